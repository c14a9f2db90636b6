package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// DishFilter narrows dish queries.
type DishFilter struct {
	MinCreated   *int64
	MaxCreated   *int64
	MinModified  *int64
	MaxModified  *int64
	TypeFragment *string
	AuthorID     *uint
	Offset       *int
	Limit        *int
}

type DishRepository interface {
	Create(ctx context.Context, dish *models.DishModel) error
	GetByID(ctx context.Context, id uint) (*models.DishModel, error)
	Query(ctx context.Context, filter DishFilter) ([]models.DishModel, error)
	Update(ctx context.Context, dish *models.DishModel) error
	Delete(ctx context.Context, id uint) error
	CountMealTypeReferences(ctx context.Context, dishID uint) (int64, error)
	ClearAuthor(ctx context.Context, authorID uint) error
}

type DishRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewDishRepository(database *gorm.DB, log logger.Interface) DishRepository {
	return &DishRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *DishRepositoryImpl) Create(ctx context.Context, dish *models.DishModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(dish).Error; err != nil {
		r.logger.Errorw("failed to create dish", "error", err, "dish_type", dish.DishType)
		return fmt.Errorf("failed to create dish: %w", err)
	}

	r.logger.Infow("dish created", "dish_id", dish.ID, "dish_type", dish.DishType)
	return nil
}

func (r *DishRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.DishModel, error) {
	var dish models.DishModel
	err := db.GetTxFromContext(ctx, r.db).First(&dish, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get dish", "error", err, "dish_id", id)
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}
	return &dish, nil
}

func (r *DishRepositoryImpl) Query(ctx context.Context, filter DishFilter) ([]models.DishModel, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.DishModel{})

	query = applyTimestampRange(query, filter.MinCreated, filter.MaxCreated, filter.MinModified, filter.MaxModified)

	if filter.TypeFragment != nil {
		query = query.Where("dish_type LIKE ?", "%"+*filter.TypeFragment+"%")
	}
	if filter.AuthorID != nil {
		query = query.Where("author_reference = ?", *filter.AuthorID)
	}
	if filter.Offset != nil {
		query = query.Offset(*filter.Offset)
	}
	if filter.Limit != nil {
		query = query.Limit(*filter.Limit)
	}

	var dishes []models.DishModel
	if err := query.Order("dish_type asc, id asc").Find(&dishes).Error; err != nil {
		r.logger.Errorw("failed to query dishes", "error", err)
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}
	return dishes, nil
}

func (r *DishRepositoryImpl) Update(ctx context.Context, dish *models.DishModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.DishModel{}).
		Where("id = ? AND version = ?", dish.ID, dish.Version).
		Updates(map[string]interface{}{
			"dish_type":        dish.DishType,
			"author_reference": dish.AuthorID,
			"version":          dish.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update dish", "error", result.Error, "dish_id", dish.ID)
		return fmt.Errorf("failed to update dish: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	dish.Version++
	return nil
}

func (r *DishRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.DishModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete dish", "error", err, "dish_id", id)
		return fmt.Errorf("failed to delete dish: %w", err)
	}

	r.logger.Infow("dish deleted", "dish_id", id)
	return nil
}

// CountMealTypeReferences reports how many course slots still reference a
// dish, guarding dish deletion.
func (r *DishRepositoryImpl) CountMealTypeReferences(ctx context.Context, dishID uint) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Where("dish_reference = ?", dishID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count meal type references: %w", err)
	}
	return count, nil
}

// ClearAuthor detaches all dishes from a person about to be removed.
func (r *DishRepositoryImpl) ClearAuthor(ctx context.Context, authorID uint) error {
	err := db.GetTxFromContext(ctx, r.db).Model(&models.DishModel{}).
		Where("author_reference = ?", authorID).
		UpdateColumn("author_reference", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear dish author: %w", err)
	}
	return nil
}
