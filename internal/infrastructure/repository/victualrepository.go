package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// VictualFilter narrows victual queries. Fragment fields match with LIKE.
type VictualFilter struct {
	MinCreated    *int64
	MaxCreated    *int64
	MinModified   *int64
	MaxModified   *int64
	Diet          *models.Diet
	AliasFragment *string
	DescFragment  *string
	AuthorID      *uint
	Offset        *int
	Limit         *int
}

type VictualRepository interface {
	Create(ctx context.Context, victual *models.VictualModel) error
	GetByID(ctx context.Context, id uint) (*models.VictualModel, error)
	GetByAlias(ctx context.Context, alias string) (*models.VictualModel, error)
	Query(ctx context.Context, filter VictualFilter) ([]models.VictualModel, error)
	Update(ctx context.Context, victual *models.VictualModel) error
	Delete(ctx context.Context, id uint) error
	ClearAuthor(ctx context.Context, authorID uint) error
}

type VictualRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewVictualRepository(database *gorm.DB, log logger.Interface) VictualRepository {
	return &VictualRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *VictualRepositoryImpl) Create(ctx context.Context, victual *models.VictualModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(victual).Error; err != nil {
		r.logger.Errorw("failed to create victual", "error", err, "alias", victual.Alias)
		return fmt.Errorf("failed to create victual: %w", err)
	}

	r.logger.Infow("victual created", "victual_id", victual.ID, "alias", victual.Alias)
	return nil
}

func (r *VictualRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.VictualModel, error) {
	var victual models.VictualModel
	err := db.GetTxFromContext(ctx, r.db).First(&victual, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get victual", "error", err, "victual_id", id)
		return nil, fmt.Errorf("failed to get victual: %w", err)
	}
	return &victual, nil
}

func (r *VictualRepositoryImpl) GetByAlias(ctx context.Context, alias string) (*models.VictualModel, error) {
	var victual models.VictualModel
	err := db.GetTxFromContext(ctx, r.db).Where("alias = ?", alias).First(&victual).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get victual by alias: %w", err)
	}
	return &victual, nil
}

func (r *VictualRepositoryImpl) Query(ctx context.Context, filter VictualFilter) ([]models.VictualModel, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.VictualModel{})

	query = applyTimestampRange(query, filter.MinCreated, filter.MaxCreated, filter.MinModified, filter.MaxModified)

	if filter.Diet != nil {
		query = query.Where("diet = ?", *filter.Diet)
	}
	if filter.AliasFragment != nil {
		query = query.Where("alias LIKE ?", "%"+*filter.AliasFragment+"%")
	}
	if filter.DescFragment != nil {
		query = query.Where("description LIKE ?", "%"+*filter.DescFragment+"%")
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

	var victuals []models.VictualModel
	if err := query.Order("alias asc").Find(&victuals).Error; err != nil {
		r.logger.Errorw("failed to query victuals", "error", err)
		return nil, fmt.Errorf("failed to query victuals: %w", err)
	}
	return victuals, nil
}

func (r *VictualRepositoryImpl) Update(ctx context.Context, victual *models.VictualModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.VictualModel{}).
		Where("id = ? AND version = ?", victual.ID, victual.Version).
		Updates(map[string]interface{}{
			"diet":             victual.Diet,
			"alias":            victual.Alias,
			"description":      victual.Description,
			"avatar_reference": victual.AvatarID,
			"author_reference": victual.AuthorID,
			"version":          victual.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update victual", "error", result.Error, "victual_id", victual.ID)
		return fmt.Errorf("failed to update victual: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	victual.Version++
	return nil
}

func (r *VictualRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.VictualModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete victual", "error", err, "victual_id", id)
		return fmt.Errorf("failed to delete victual: %w", err)
	}

	r.logger.Infow("victual deleted", "victual_id", id)
	return nil
}

// ClearAuthor detaches all victuals from a person about to be removed.
func (r *VictualRepositoryImpl) ClearAuthor(ctx context.Context, authorID uint) error {
	err := db.GetTxFromContext(ctx, r.db).Model(&models.VictualModel{}).
		Where("author_reference = ?", authorID).
		UpdateColumn("author_reference", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear victual author: %w", err)
	}
	return nil
}
