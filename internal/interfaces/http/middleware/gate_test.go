package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dinnerd/internal/application/quota"
	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/shared/constants"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

type gateFixture struct {
	router *gin.Engine
	people repository.PersonRepository
	plans  repository.AccessPlanRepository
	seen   *http.Header
}

func setupGate(t *testing.T) *gateFixture {
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	err = database.AutoMigrate(&models.PersonModel{}, &models.PersonPhone{},
		&models.AccessPlanModel{}, &models.AccessCounterModel{}, &models.DocumentModel{})
	require.NoError(t, err)

	log := logger.NewLogger()
	people := repository.NewPersonRepository(database, log)
	plans := repository.NewAccessPlanRepository(database, log)
	quotaService := quota.NewService(plans, db.NewTransactionManager(database), log)
	gate := NewGateMiddleware(quotaService, people, log)

	seen := &http.Header{}
	router := gin.New()
	router.Use(gate.Handle())
	echo := func(c *gin.Context) {
		*seen = c.Request.Header.Clone()
		c.Status(http.StatusOK)
	}
	router.GET("/recipes", echo)
	router.POST("/people", echo)
	router.GET("/openapi.json", echo)
	router.GET("/documents/:id", echo)

	return &gateFixture{router: router, people: people, plans: plans, seen: seen}
}

func (f *gateFixture) seedPerson(t *testing.T, email, secret string) *models.PersonModel {
	person := &models.PersonModel{
		Email:        email,
		PasswordHash: auth.Sha2HexText(secret),
		Name:         models.Name{Family: "Example", Given: "Eve"},
		Address:      models.Address{Postcode: "12345", Street: "Main St 1", City: "Springfield", Country: "US"},
	}
	require.NoError(t, f.people.Create(context.Background(), person))
	return person
}

func (f *gateFixture) seedPlan(t *testing.T, tenantID uint, variant models.PlanVariant) string {
	key := auth.DeriveAccessKey(tenantID, "gate-test")
	plan := &models.AccessPlanModel{
		TenantID:    tenantID,
		Application: "gate-test",
		Variant:     variant,
		Key:         key,
	}
	require.NoError(t, f.plans.Create(context.Background(), plan))
	return key
}

func basicAuth(identifier, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(identifier+":"+secret))
}

func TestGate_IdentityPropagation(t *testing.T) {
	f := setupGate(t)
	person := f.seedPerson(t, "alice@x.com", "secret")
	key := f.seedPlan(t, person.ID, models.VariantBeta)

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set(constants.HeaderAccessKey, key)
	req.Header.Set(constants.HeaderAuthorization, basicAuth("alice@x.com", "secret"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// The handler sees the resolved identity but never the raw
	// credentials or the access key.
	assert.Equal(t, "1", f.seen.Get(constants.HeaderRequesterIdentity))
	assert.Empty(t, f.seen.Get(constants.HeaderAuthorization))
	assert.Empty(t, f.seen.Get(constants.HeaderAccessKey))
}

func TestGate_SpoofedIdentityHeader(t *testing.T) {
	f := setupGate(t)
	person := f.seedPerson(t, "alice@x.com", "secret")
	key := f.seedPlan(t, person.ID, models.VariantBeta)

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set(constants.HeaderAccessKey, key)
	req.Header.Set(constants.HeaderAuthorization, basicAuth("alice@x.com", "secret"))
	req.Header.Set(constants.HeaderRequesterIdentity, "42")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGate_QuotaAdmission(t *testing.T) {
	f := setupGate(t)
	person := f.seedPerson(t, "alice@x.com", "secret")
	authorization := basicAuth("alice@x.com", "secret")

	t.Run("missing access key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
		req.Header.Set(constants.HeaderAuthorization, authorization)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("unknown access key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
		req.Header.Set(constants.HeaderAccessKey, "0000000000000000000000000000000000000000000000000000000000000000")
		req.Header.Set(constants.HeaderAuthorization, authorization)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("exhausted plan", func(t *testing.T) {
		key := f.seedPlan(t, person.ID, models.VariantAlpha)
		now := time.Now()
		require.NoError(t, f.plans.SaveCounter(context.Background(), &models.AccessCounterModel{
			AccessPlanID: 1,
			Year:         int16(now.Year()),
			Month:        int8(now.Month()),
			Amount:       101,
		}))

		req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
		req.Header.Set(constants.HeaderAccessKey, key)
		req.Header.Set(constants.HeaderAuthorization, authorization)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestGate_CredentialFailures(t *testing.T) {
	f := setupGate(t)
	person := f.seedPerson(t, "alice@x.com", "secret")
	key := f.seedPlan(t, person.ID, models.VariantBeta)

	send := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
		req.Header.Set(constants.HeaderAccessKey, key)
		if authorization != "" {
			req.Header.Set(constants.HeaderAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing credentials", func(t *testing.T) {
		rec := send("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get(constants.HeaderAuthenticate), "Basic")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rec := send("Bearer some-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get(constants.HeaderAuthenticate), "Basic")
	})

	t.Run("malformed base64", func(t *testing.T) {
		rec := send("Basic not-base64!!!")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("payload without colon", func(t *testing.T) {
		rec := send("Basic " + base64.StdEncoding.EncodeToString([]byte("no-separator")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		rec := send(basicAuth("bob@x.com", "secret"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get(constants.HeaderAuthenticate), "Basic")
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := send(basicAuth("alice@x.com", "wrong"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get(constants.HeaderAuthenticate), "Basic")
	})
}

func TestGate_PublicBypass(t *testing.T) {
	f := setupGate(t)

	t.Run("discovery document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("public document content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/1", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("write to public prefix is still gated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestGate_RegistrationBypass(t *testing.T) {
	f := setupGate(t)
	person := f.seedPerson(t, "admin@x.com", "secret")
	key := f.seedPlan(t, person.ID, models.VariantBeta)

	t.Run("registration needs no credentials but still a key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/people", nil)
		req.Header.Set(constants.HeaderAccessKey, key)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("registration without key is rate limited", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/people", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}
