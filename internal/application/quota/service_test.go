package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/shared/db"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
)

func setupQuotaService(t *testing.T) (*Service, repository.AccessPlanRepository) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = database.AutoMigrate(&models.PersonModel{}, &models.AccessPlanModel{}, &models.AccessCounterModel{})
	require.NoError(t, err)

	log := logger.NewLogger()
	plans := repository.NewAccessPlanRepository(database, log)
	svc := NewService(plans, db.NewTransactionManager(database), log)
	return svc, plans
}

func createTestPlan(t *testing.T, plans repository.AccessPlanRepository, key string, variant models.PlanVariant) *models.AccessPlanModel {
	plan := &models.AccessPlanModel{
		TenantID:    1,
		Application: "test-" + key,
		Variant:     variant,
		Key:         key,
	}
	require.NoError(t, plans.Create(context.Background(), plan))
	return plan
}

func TestService_Admit(t *testing.T) {
	svc, plans := setupQuotaService(t)
	ctx := context.Background()

	t.Run("empty key is rejected", func(t *testing.T) {
		admission, err := svc.Admit(ctx, "")
		assert.Nil(t, admission)
		assert.True(t, apperrors.IsTooManyRequestsError(err))
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		admission, err := svc.Admit(ctx, "no-such-key")
		assert.Nil(t, admission)
		assert.True(t, apperrors.IsTooManyRequestsError(err))
	})

	t.Run("known key is admitted and counted", func(t *testing.T) {
		plan := createTestPlan(t, plans, "key-count", models.VariantBeta)

		admission, err := svc.Admit(ctx, "key-count")
		require.NoError(t, err)
		assert.Equal(t, plan.ID, admission.Plan.ID)
		assert.Equal(t, uint64(1), admission.Amount)

		admission, err = svc.Admit(ctx, "key-count")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), admission.Amount)
	})
}

func TestService_Admit_MonthlyCap(t *testing.T) {
	svc, plans := setupQuotaService(t)
	ctx := context.Background()

	t.Run("capped tier rejects once the tally exceeds the limit", func(t *testing.T) {
		plan := createTestPlan(t, plans, "key-alpha", models.VariantAlpha)

		// Seed the tally just under the rejection threshold instead of
		// replaying a hundred requests.
		now := time.Now()
		counter := &models.AccessCounterModel{
			AccessPlanID: plan.ID,
			Year:         int16(now.Year()),
			Month:        int8(now.Month()),
			Amount:       100,
		}
		require.NoError(t, plans.SaveCounter(ctx, counter))

		// The cap is checked before counting, so one grace request passes.
		admission, err := svc.Admit(ctx, "key-alpha")
		require.NoError(t, err)
		assert.Equal(t, uint64(101), admission.Amount)

		admission, err = svc.Admit(ctx, "key-alpha")
		assert.Nil(t, admission)
		assert.True(t, apperrors.IsTooManyRequestsError(err))

		// Rejection does not consume quota.
		stored, err := plans.GetCounter(ctx, plan.ID, int16(now.Year()), int8(now.Month()))
		require.NoError(t, err)
		assert.Equal(t, uint64(101), stored.Amount)
	})

	t.Run("omega tier is never capped", func(t *testing.T) {
		plan := createTestPlan(t, plans, "key-omega", models.VariantOmega)

		now := time.Now()
		counter := &models.AccessCounterModel{
			AccessPlanID: plan.ID,
			Year:         int16(now.Year()),
			Month:        int8(now.Month()),
			Amount:       200_000_000,
		}
		require.NoError(t, plans.SaveCounter(ctx, counter))

		admission, err := svc.Admit(ctx, "key-omega")
		require.NoError(t, err)
		assert.Equal(t, uint64(200_000_001), admission.Amount)
	})
}

func TestService_Admit_MonthRollover(t *testing.T) {
	svc, plans := setupQuotaService(t)
	ctx := context.Background()

	plan := createTestPlan(t, plans, "key-rollover", models.VariantAlpha)

	svc.now = func() time.Time { return time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC) }
	marchCounter := &models.AccessCounterModel{
		AccessPlanID: plan.ID,
		Year:         2026,
		Month:        3,
		Amount:       101,
	}
	require.NoError(t, plans.SaveCounter(ctx, marchCounter))

	admission, err := svc.Admit(ctx, "key-rollover")
	assert.Nil(t, admission)
	assert.True(t, apperrors.IsTooManyRequestsError(err))

	// The new month starts a fresh tally; the old row keeps its amount.
	svc.now = func() time.Time { return time.Date(2026, time.April, 1, 0, 1, 0, 0, time.UTC) }

	admission, err = svc.Admit(ctx, "key-rollover")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), admission.Amount)

	stored, err := plans.GetCounter(ctx, plan.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), stored.Amount)
}

func TestService_Admit_Concurrent(t *testing.T) {
	svc, plans := setupQuotaService(t)
	ctx := context.Background()

	plan := createTestPlan(t, plans, "key-concurrent", models.VariantOmega)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Admit(ctx, "key-concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	now := time.Now()
	stored, err := plans.GetCounter(ctx, plan.ID, int16(now.Year()), int8(now.Month()))
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), stored.Amount)
}

// brokenCounterRepository fails every counter write, simulating a lost
// persistence race on the tally row.
type brokenCounterRepository struct {
	repository.AccessPlanRepository
}

func (r *brokenCounterRepository) SaveCounter(ctx context.Context, counter *models.AccessCounterModel) error {
	return errors.New("Error 1213: Deadlock found when trying to get lock")
}

func TestService_Admit_CounterWriteConflict(t *testing.T) {
	svc, plans := setupQuotaService(t)
	ctx := context.Background()

	plan := createTestPlan(t, plans, "key-broken", models.VariantOmega)
	svc.plans = &brokenCounterRepository{AccessPlanRepository: plans}

	admission, err := svc.Admit(ctx, "key-broken")
	assert.Nil(t, admission)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)

	// The failed write is rolled back, never counted.
	now := time.Now()
	stored, err := plans.GetCounter(ctx, plan.ID, int16(now.Year()), int8(now.Month()))
	require.NoError(t, err)
	assert.Nil(t, stored)
}
