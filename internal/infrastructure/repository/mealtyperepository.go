package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// MealTypeFilter narrows meal type queries. Nil fields are ignored.
type MealTypeFilter struct {
	MinCreated  *int64
	MaxCreated  *int64
	MinModified *int64
	MaxModified *int64
	CourseType  *models.CourseType
	Offset      *int
	Limit       *int
}

// MealTypeRepository stores course slots and owns the sequencing primitives
// that keep course numbers a dense 1..N sequence. The shift methods are bulk
// conditional updates; callers invoke them on an open transaction together
// with the row mutation they compensate for.
type MealTypeRepository interface {
	Create(ctx context.Context, mealType *models.MealTypeModel) error
	GetByID(ctx context.Context, id uint) (*models.MealTypeModel, error)
	Query(ctx context.Context, filter MealTypeFilter) ([]models.MealTypeModel, error)
	Update(ctx context.Context, mealType *models.MealTypeModel) error
	Delete(ctx context.Context, id uint) error

	NextCourseNumber(ctx context.Context) (int, error)
	ShiftUpFrom(ctx context.Context, from int) error
	ShiftDownFrom(ctx context.Context, from int) error
	ShiftRangeUp(ctx context.Context, from, to int) error
	ShiftRangeDown(ctx context.Context, from, to int) error
}

type MealTypeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewMealTypeRepository(database *gorm.DB, log logger.Interface) MealTypeRepository {
	return &MealTypeRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *MealTypeRepositoryImpl) Create(ctx context.Context, mealType *models.MealTypeModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mealType).Error; err != nil {
		r.logger.Errorw("failed to create meal type", "error", err)
		return fmt.Errorf("failed to create meal type: %w", err)
	}
	return nil
}

func (r *MealTypeRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.MealTypeModel, error) {
	var mealType models.MealTypeModel
	if err := db.GetTxFromContext(ctx, r.db).First(&mealType, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get meal type", "error", err, "meal_type_id", id)
		return nil, fmt.Errorf("failed to get meal type: %w", err)
	}
	return &mealType, nil
}

func (r *MealTypeRepositoryImpl) Query(ctx context.Context, filter MealTypeFilter) ([]models.MealTypeModel, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{})

	query = applyTimestampRange(query, filter.MinCreated, filter.MaxCreated, filter.MinModified, filter.MaxModified)
	if filter.CourseType != nil {
		query = query.Where("course_type = ?", *filter.CourseType)
	}
	if filter.Offset != nil {
		query = query.Offset(*filter.Offset)
	}
	if filter.Limit != nil {
		query = query.Limit(*filter.Limit)
	}

	var mealTypes []models.MealTypeModel
	if err := query.Order("course_number asc").Find(&mealTypes).Error; err != nil {
		r.logger.Errorw("failed to query meal types", "error", err)
		return nil, fmt.Errorf("failed to query meal types: %w", err)
	}
	return mealTypes, nil
}

func (r *MealTypeRepositoryImpl) Update(ctx context.Context, mealType *models.MealTypeModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Where("id = ? AND version = ?", mealType.ID, mealType.Version).
		Updates(map[string]interface{}{
			"course_number":  mealType.CourseNumber,
			"course_type":    mealType.CourseType,
			"dish_reference": mealType.DishID,
			"version":        mealType.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update meal type", "error", result.Error, "meal_type_id", mealType.ID)
		return fmt.Errorf("failed to update meal type: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	mealType.Version++
	return nil
}

func (r *MealTypeRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.MealTypeModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete meal type", "error", err, "meal_type_id", id)
		return fmt.Errorf("failed to delete meal type: %w", err)
	}
	return nil
}

// NextCourseNumber returns 1 plus the current maximum course number, or 1
// when no rows exist.
func (r *MealTypeRepositoryImpl) NextCourseNumber(ctx context.Context) (int, error) {
	var max *int
	err := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Select("MAX(course_number)").
		Scan(&max).Error
	if err != nil {
		r.logger.Errorw("failed to determine next course number", "error", err)
		return 0, fmt.Errorf("failed to determine next course number: %w", err)
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// ShiftUpFrom increments every course number >= from by one, opening a gap
// at position from.
func (r *MealTypeRepositoryImpl) ShiftUpFrom(ctx context.Context, from int) error {
	err := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Where("course_number >= ?", from).
		UpdateColumn("course_number", gorm.Expr("course_number + 1")).Error
	if err != nil {
		r.logger.Errorw("failed to shift course numbers up", "error", err, "from", from)
		return fmt.Errorf("failed to shift course numbers up: %w", err)
	}
	return nil
}

// ShiftDownFrom decrements every course number >= from by one, closing the
// gap left at position from-1.
func (r *MealTypeRepositoryImpl) ShiftDownFrom(ctx context.Context, from int) error {
	err := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Where("course_number >= ?", from).
		UpdateColumn("course_number", gorm.Expr("course_number - 1")).Error
	if err != nil {
		r.logger.Errorw("failed to shift course numbers down", "error", err, "from", from)
		return fmt.Errorf("failed to shift course numbers down: %w", err)
	}
	return nil
}

// ShiftRangeUp increments every course number in [from, to] by one. A range
// with from > to is a no-op.
func (r *MealTypeRepositoryImpl) ShiftRangeUp(ctx context.Context, from, to int) error {
	if from > to {
		return nil
	}
	err := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Where("course_number BETWEEN ? AND ?", from, to).
		UpdateColumn("course_number", gorm.Expr("course_number + 1")).Error
	if err != nil {
		r.logger.Errorw("failed to shift course number range up", "error", err, "from", from, "to", to)
		return fmt.Errorf("failed to shift course number range up: %w", err)
	}
	return nil
}

// ShiftRangeDown decrements every course number in [from, to] by one. A
// range with from > to is a no-op.
func (r *MealTypeRepositoryImpl) ShiftRangeDown(ctx context.Context, from, to int) error {
	if from > to {
		return nil
	}
	err := db.GetTxFromContext(ctx, r.db).Model(&models.MealTypeModel{}).
		Where("course_number BETWEEN ? AND ?", from, to).
		UpdateColumn("course_number", gorm.Expr("course_number - 1")).Error
	if err != nil {
		r.logger.Errorw("failed to shift course number range down", "error", err, "from", from, "to", to)
		return fmt.Errorf("failed to shift course number range down: %w", err)
	}
	return nil
}
