// Package sequence keeps meal-type course numbers a dense 1..N sequence
// under insert, move and delete. Each operation pairs the row mutation with
// compensating bulk shifts inside one transaction, so no gap or duplicate is
// ever committed.
package sequence

import (
	"context"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/shared/db"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
)

// Service orchestrates course-slot mutations against the sequencing
// primitives of the meal-type repository.
type Service struct {
	mealTypes repository.MealTypeRepository
	txMgr     *db.TransactionManager
	logger    logger.Interface
}

func NewService(mealTypes repository.MealTypeRepository, txMgr *db.TransactionManager, log logger.Interface) *Service {
	return &Service{
		mealTypes: mealTypes,
		txMgr:     txMgr,
		logger:    log,
	}
}

// Insert stores a new course slot. With courseNumber zero the slot is
// appended at the end; with an explicit number everything at or above it
// shifts up first, so the requested number is guaranteed free.
func (s *Service) Insert(ctx context.Context, mealType *models.MealTypeModel) error {
	if mealType.CourseNumber < 0 {
		return apperrors.NewValidationError("course number must be positive")
	}

	return s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		next, err := s.mealTypes.NextCourseNumber(txCtx)
		if err != nil {
			return err
		}
		// Numbers past the end of the sequence collapse to an append,
		// keeping the sequence dense.
		if mealType.CourseNumber == 0 || mealType.CourseNumber >= next {
			mealType.CourseNumber = next
		} else if err := s.mealTypes.ShiftUpFrom(txCtx, mealType.CourseNumber); err != nil {
			return err
		}
		return s.mealTypes.Create(txCtx, mealType)
	})
}

// Move reassigns the slot's course number, shifting the rows in between to
// close the old position and open the new one. Moving to the current number
// is a no-op.
func (s *Service) Move(ctx context.Context, id uint, newNumber int) (*models.MealTypeModel, error) {
	if newNumber < 1 {
		return nil, apperrors.NewValidationError("course number must be positive")
	}

	var moved *models.MealTypeModel
	err := s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		mealType, err := s.mealTypes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if mealType == nil {
			return apperrors.NewNotFoundError("meal type not found")
		}

		next, err := s.mealTypes.NextCourseNumber(txCtx)
		if err != nil {
			return err
		}
		if newNumber >= next {
			newNumber = next - 1
		}

		oldNumber := mealType.CourseNumber
		moved = mealType
		if newNumber == oldNumber {
			return nil
		}

		if newNumber > oldNumber {
			err = s.mealTypes.ShiftRangeDown(txCtx, oldNumber+1, newNumber)
		} else {
			err = s.mealTypes.ShiftRangeUp(txCtx, newNumber, oldNumber-1)
		}
		if err != nil {
			return err
		}

		mealType.CourseNumber = newNumber
		if err := s.mealTypes.Update(txCtx, mealType); err != nil {
			if err == repository.ErrStaleVersion {
				return apperrors.NewConflictError("meal type was modified concurrently")
			}
			return err
		}

		s.logger.Infow("course slot moved",
			"meal_type_id", id,
			"from", oldNumber,
			"to", newNumber)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Update rewrites the slot's type and dish and, when the course number
// changed, performs the same renumbering as Move. A zero course number
// keeps the slot's current position.
func (s *Service) Update(ctx context.Context, id uint, update *models.MealTypeModel) (*models.MealTypeModel, error) {
	if update.CourseNumber < 0 {
		return nil, apperrors.NewValidationError("course number must be positive")
	}

	var updated *models.MealTypeModel
	err := s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		mealType, err := s.mealTypes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if mealType == nil {
			return apperrors.NewNotFoundError("meal type not found")
		}

		next, err := s.mealTypes.NextCourseNumber(txCtx)
		if err != nil {
			return err
		}
		oldNumber := mealType.CourseNumber
		newNumber := update.CourseNumber
		if newNumber == 0 {
			newNumber = oldNumber
		}
		if newNumber >= next {
			newNumber = next - 1
		}

		if newNumber > oldNumber {
			err = s.mealTypes.ShiftRangeDown(txCtx, oldNumber+1, newNumber)
		} else if newNumber < oldNumber {
			err = s.mealTypes.ShiftRangeUp(txCtx, newNumber, oldNumber-1)
		}
		if err != nil {
			return err
		}

		mealType.CourseNumber = newNumber
		mealType.CourseType = update.CourseType
		mealType.DishID = update.DishID
		if err := s.mealTypes.Update(txCtx, mealType); err != nil {
			if err == repository.ErrStaleVersion {
				return apperrors.NewConflictError("meal type was modified concurrently")
			}
			return err
		}

		updated = mealType
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes the slot and closes the gap its number leaves behind.
func (s *Service) Remove(ctx context.Context, id uint) error {
	return s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		mealType, err := s.mealTypes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if mealType == nil {
			return apperrors.NewNotFoundError("meal type not found")
		}

		if err := s.mealTypes.Delete(txCtx, id); err != nil {
			return err
		}
		return s.mealTypes.ShiftDownFrom(txCtx, mealType.CourseNumber+1)
	})
}
