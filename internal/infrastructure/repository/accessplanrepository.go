package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// AccessPlanRepository is the durable store of metered access contracts and
// their monthly counters.
type AccessPlanRepository interface {
	Create(ctx context.Context, plan *models.AccessPlanModel) error
	GetByID(ctx context.Context, id uint) (*models.AccessPlanModel, error)
	GetByKey(ctx context.Context, key string) (*models.AccessPlanModel, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]models.AccessPlanModel, error)
	Update(ctx context.Context, plan *models.AccessPlanModel) error

	GetCounter(ctx context.Context, planID uint, year int16, month int8) (*models.AccessCounterModel, error)
	SaveCounter(ctx context.Context, counter *models.AccessCounterModel) error
}

type AccessPlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAccessPlanRepository(database *gorm.DB, log logger.Interface) AccessPlanRepository {
	return &AccessPlanRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *AccessPlanRepositoryImpl) Create(ctx context.Context, plan *models.AccessPlanModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(plan).Error; err != nil {
		r.logger.Errorw("failed to create access plan", "error", err, "tenant_id", plan.TenantID, "application", plan.Application)
		return fmt.Errorf("failed to create access plan: %w", err)
	}

	r.logger.Infow("access plan created", "plan_id", plan.ID, "tenant_id", plan.TenantID, "variant", plan.Variant)
	return nil
}

func (r *AccessPlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.AccessPlanModel, error) {
	var plan models.AccessPlanModel
	if err := db.GetTxFromContext(ctx, r.db).First(&plan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get access plan by ID", "error", err, "plan_id", id)
		return nil, fmt.Errorf("failed to get access plan: %w", err)
	}
	return &plan, nil
}

// GetByKey resolves the opaque lookup key to exactly one plan, or nil when
// the key is unknown.
func (r *AccessPlanRepositoryImpl) GetByKey(ctx context.Context, key string) (*models.AccessPlanModel, error) {
	var plan models.AccessPlanModel
	if err := db.GetTxFromContext(ctx, r.db).Where("alias = ?", key).First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get access plan by key", "error", err)
		return nil, fmt.Errorf("failed to get access plan by key: %w", err)
	}
	return &plan, nil
}

func (r *AccessPlanRepositoryImpl) ListByTenant(ctx context.Context, tenantID uint) ([]models.AccessPlanModel, error) {
	var plans []models.AccessPlanModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("id asc").
		Find(&plans).Error; err != nil {
		r.logger.Errorw("failed to list access plans", "error", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to list access plans: %w", err)
	}
	return plans, nil
}

// Update persists variant changes under optimistic locking. The application
// name and key are immutable and deliberately not part of the update set.
func (r *AccessPlanRepositoryImpl) Update(ctx context.Context, plan *models.AccessPlanModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.AccessPlanModel{}).
		Where("id = ? AND version = ?", plan.ID, plan.Version).
		Updates(map[string]interface{}{
			"variant": plan.Variant,
			"version": plan.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update access plan", "error", result.Error, "plan_id", plan.ID)
		return fmt.Errorf("failed to update access plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	plan.Version++
	return nil
}

func (r *AccessPlanRepositoryImpl) GetCounter(ctx context.Context, planID uint, year int16, month int8) (*models.AccessCounterModel, error) {
	var counter models.AccessCounterModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("access_plan_id = ? AND year = ? AND month = ?", planID, year, month).
		First(&counter).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get access counter", "error", err, "plan_id", planID, "year", year, "month", month)
		return nil, fmt.Errorf("failed to get access counter: %w", err)
	}
	return &counter, nil
}

// SaveCounter inserts the counter on first use within a period and updates
// the amount afterwards.
func (r *AccessPlanRepositoryImpl) SaveCounter(ctx context.Context, counter *models.AccessCounterModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Save(counter).Error; err != nil {
		r.logger.Errorw("failed to save access counter", "error", err, "plan_id", counter.AccessPlanID)
		return fmt.Errorf("failed to save access counter: %w", err)
	}
	return nil
}
