package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// DocumentFilter narrows document queries. Fragment fields match with LIKE.
type DocumentFilter struct {
	MinCreated   *int64
	MaxCreated   *int64
	MinModified  *int64
	MaxModified  *int64
	Hash         *string
	TypeFragment *string
	DescFragment *string
	MinSize      *int64
	MaxSize      *int64
	Offset       *int
	Limit        *int
}

type DocumentRepository interface {
	Create(ctx context.Context, document *models.DocumentModel) error
	GetByID(ctx context.Context, id uint) (*models.DocumentModel, error)
	GetByHash(ctx context.Context, hash string) (*models.DocumentModel, error)
	GetMeta(ctx context.Context, id uint) (*models.DocumentModel, error)
	Query(ctx context.Context, filter DocumentFilter) ([]models.DocumentModel, error)
	Update(ctx context.Context, document *models.DocumentModel) error
	Delete(ctx context.Context, id uint) error
	ReferenceCount(ctx context.Context, id uint) (int64, error)
}

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewDocumentRepository(database *gorm.DB, log logger.Interface) DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *models.DocumentModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(document).Error; err != nil {
		r.logger.Errorw("failed to create document", "error", err)
		return fmt.Errorf("failed to create document: %w", err)
	}

	r.logger.Infow("document created", "document_id", document.ID, "hash", document.Hash)
	return nil
}

func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.DocumentModel, error) {
	var document models.DocumentModel
	err := db.GetTxFromContext(ctx, r.db).First(&document, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get document", "error", err, "document_id", id)
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &document, nil
}

// GetByHash finds an existing document with identical content, used to
// deduplicate uploads.
func (r *DocumentRepositoryImpl) GetByHash(ctx context.Context, hash string) (*models.DocumentModel, error) {
	var document models.DocumentModel
	err := db.GetTxFromContext(ctx, r.db).Where("hash = ?", hash).First(&document).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get document by hash", "error", err)
		return nil, fmt.Errorf("failed to get document by hash: %w", err)
	}
	return &document, nil
}

// GetMeta loads everything except the content blob.
func (r *DocumentRepositoryImpl) GetMeta(ctx context.Context, id uint) (*models.DocumentModel, error) {
	var document models.DocumentModel
	err := db.GetTxFromContext(ctx, r.db).
		Select("id", "version", "created_at", "updated_at", "type", "description", "hash",
			"LENGTH(content) AS content_length").
		First(&document, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document metadata: %w", err)
	}
	return &document, nil
}

func (r *DocumentRepositoryImpl) Query(ctx context.Context, filter DocumentFilter) ([]models.DocumentModel, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.DocumentModel{}).
		Select("id", "version", "created_at", "updated_at", "type", "description", "hash", "LENGTH(content) AS content_length")

	query = applyTimestampRange(query, filter.MinCreated, filter.MaxCreated, filter.MinModified, filter.MaxModified)

	if filter.Hash != nil {
		query = query.Where("hash = ?", *filter.Hash)
	}
	if filter.TypeFragment != nil {
		query = query.Where("type LIKE ?", "%"+*filter.TypeFragment+"%")
	}
	if filter.DescFragment != nil {
		query = query.Where("description LIKE ?", "%"+*filter.DescFragment+"%")
	}
	if filter.MinSize != nil {
		query = query.Where("LENGTH(content) >= ?", *filter.MinSize)
	}
	if filter.MaxSize != nil {
		query = query.Where("LENGTH(content) <= ?", *filter.MaxSize)
	}
	if filter.Offset != nil {
		query = query.Offset(*filter.Offset)
	}
	if filter.Limit != nil {
		query = query.Limit(*filter.Limit)
	}

	var documents []models.DocumentModel
	if err := query.Order("id asc").Find(&documents).Error; err != nil {
		r.logger.Errorw("failed to query documents", "error", err)
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return documents, nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *models.DocumentModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", document.ID, document.Version).
		Updates(map[string]interface{}{
			"type":        document.Type,
			"description": document.Description,
			"content":     document.Content,
			"hash":        document.Hash,
			"version":     document.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update document", "error", result.Error, "document_id", document.ID)
		return fmt.Errorf("failed to update document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	document.Version++
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.DocumentModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete document", "error", err, "document_id", id)
		return fmt.Errorf("failed to delete document: %w", err)
	}

	r.logger.Infow("document deleted", "document_id", id)
	return nil
}

// ReferenceCount reports how many avatars and recipe illustrations still
// point at the document.
func (r *DocumentRepositoryImpl) ReferenceCount(ctx context.Context, id uint) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var avatars int64
	if err := tx.Model(&models.PersonModel{}).Where("avatar_reference = ?", id).Count(&avatars).Error; err != nil {
		return 0, fmt.Errorf("failed to count avatar references: %w", err)
	}

	var recipeAvatars int64
	if err := tx.Model(&models.RecipeModel{}).Where("avatar_reference = ?", id).Count(&recipeAvatars).Error; err != nil {
		return 0, fmt.Errorf("failed to count recipe avatar references: %w", err)
	}

	var illustrations int64
	if err := tx.Table("recipe_illustrations").Where("document_model_id = ?", id).Count(&illustrations).Error; err != nil {
		return 0, fmt.Errorf("failed to count illustration references: %w", err)
	}

	return avatars + recipeAvatars + illustrations, nil
}
