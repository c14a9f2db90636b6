package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/constants"
)

func registrationBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"email":  email,
		"gender": "FEMALE",
		"family": "Muster",
		"given":  "Erika",
		"address": map[string]interface{}{
			"postcode": "10115",
			"street":   "Invalidenstr. 42",
			"city":     "Berlin",
			"country":  "DE",
		},
		"phones": []map[string]interface{}{
			{"number": "+49 30 123456", "label": "home"},
		},
	}
}

func (f *fixture) register(t *testing.T, body map[string]interface{}, password string, requesterID uint) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/people", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if password != "" {
		req.Header.Set(constants.HeaderSetPassword, password)
	}
	if requesterID != 0 {
		req.Header.Set(constants.HeaderRequesterIdentity, "1")
	}
	return f.raw(t, req)
}

func TestPersonRegistration(t *testing.T) {
	f := setupFixture(t)

	t.Run("registers with password header", func(t *testing.T) {
		recorder := f.register(t, registrationBody("erika@example.org"), "changeit", 0)
		require.Equal(t, http.StatusCreated, recorder.Code)

		person, err := f.people.GetByEmail(context.Background(), "erika@example.org")
		require.NoError(t, err)
		require.NotNil(t, person)
		assert.Equal(t, auth.Sha2HexText("changeit"), person.PasswordHash)
		assert.Equal(t, models.GroupUser, person.Group)
		assert.Len(t, person.Phones, 1)
	})

	t.Run("rejects missing password header", func(t *testing.T) {
		recorder := f.register(t, registrationBody("nopass@example.org"), "", 0)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		recorder := f.register(t, registrationBody("erika@example.org"), "changeit", 0)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("admin group needs an admin requester", func(t *testing.T) {
		body := registrationBody("boss@example.org")
		body["group"] = "ADMIN"
		recorder := f.register(t, body, "changeit", 0)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("password never appears in the response", func(t *testing.T) {
		recorder := f.register(t, registrationBody("quiet@example.org"), "topsecret", 0)
		require.Equal(t, http.StatusCreated, recorder.Code)
		assert.NotContains(t, recorder.Body.String(), "topsecret")
		assert.NotContains(t, recorder.Body.String(), auth.Sha2HexText("topsecret"))
	})
}

func TestPersonAuthorization(t *testing.T) {
	f := setupFixture(t)
	owner := f.seedPerson(t, "owner@example.org", models.GroupUser)
	other := f.seedPerson(t, "other@example.org", models.GroupUser)
	admin := f.seedPerson(t, "admin@example.org", models.GroupAdmin)

	update := map[string]interface{}{
		"email":  "owner@example.org",
		"gender": "MALE",
		"family": "Doe",
		"given":  "Jon",
		"address": map[string]interface{}{
			"postcode": "12345",
			"street":   "Main St 1",
			"city":     "Springfield",
			"country":  "US",
		},
	}

	t.Run("stranger cannot update", func(t *testing.T) {
		recorder := f.request(t, http.MethodPut, "/people/1", update, other.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("self can update", func(t *testing.T) {
		recorder := f.request(t, http.MethodPut, "/people/1", update, owner.ID)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("admin can update anyone", func(t *testing.T) {
		recorder := f.request(t, http.MethodPut, "/people/1", update, admin.ID)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("user cannot raise the own group", func(t *testing.T) {
		escalation := map[string]interface{}{}
		for k, v := range update {
			escalation[k] = v
		}
		escalation["group"] = "ADMIN"
		recorder := f.request(t, http.MethodPut, "/people/1", escalation, owner.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("requester endpoint returns the caller", func(t *testing.T) {
		recorder := f.request(t, http.MethodGet, "/people/requester", nil, other.ID)
		require.Equal(t, http.StatusOK, recorder.Code)

		var view struct {
			Email string `json:"email"`
		}
		decodeData(t, recorder, &view)
		assert.Equal(t, "other@example.org", view.Email)
	})

	t.Run("requester endpoint requires an identity", func(t *testing.T) {
		recorder := f.request(t, http.MethodGet, "/people/requester", nil, 0)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestAccessPlanResource(t *testing.T) {
	f := setupFixture(t)
	owner := f.seedPerson(t, "tenant@example.org", models.GroupUser)
	admin := f.seedPerson(t, "root@example.org", models.GroupAdmin)

	t.Run("creates a plan with a derived key", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, "/people/1/access-plans",
			map[string]interface{}{"application": "mobile"}, owner.ID)
		require.Equal(t, http.StatusCreated, recorder.Code)

		var plan struct {
			Key     string `json:"key"`
			Variant string `json:"variant"`
		}
		decodeData(t, recorder, &plan)
		assert.Equal(t, auth.DeriveAccessKey(owner.ID, "mobile"), plan.Key)
		assert.Equal(t, "ALPHA", plan.Variant)
	})

	t.Run("duplicate application conflicts", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, "/people/1/access-plans",
			map[string]interface{}{"application": "mobile"}, owner.ID)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("uncapped plan is admin only", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, "/people/1/access-plans",
			map[string]interface{}{"application": "batch", "variant": "OMEGA"}, owner.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)

		recorder = f.request(t, http.MethodPost, "/people/1/access-plans",
			map[string]interface{}{"application": "batch", "variant": "OMEGA"}, admin.ID)
		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("stranger cannot list plans", func(t *testing.T) {
		stranger := f.seedPerson(t, "stranger@example.org", models.GroupUser)
		recorder := f.request(t, http.MethodGet, "/people/1/access-plans", nil, stranger.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestPersonDeleteClearsAuthorship(t *testing.T) {
	f := setupFixture(t)
	author := f.seedPerson(t, "author@example.org", models.GroupUser)
	recipe := f.seedRecipe(t, "Goulash", author.ID)
	victual := f.seedVictual(t, "beef", models.DietCarnivorian, author.ID)

	recorder := f.request(t, http.MethodDelete, "/people/1", nil, author.ID)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	gone, err := f.people.GetByID(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	orphanRecipe, err := f.recipes.GetByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	require.NotNil(t, orphanRecipe)
	assert.Nil(t, orphanRecipe.AuthorID)

	orphanVictual, err := f.victuals.GetByID(context.Background(), victual.ID)
	require.NoError(t, err)
	require.NotNil(t, orphanVictual)
	assert.Nil(t, orphanVictual.AuthorID)
}
