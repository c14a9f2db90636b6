package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// RecipeFilter narrows recipe queries. Fragment fields match with LIKE.
type RecipeFilter struct {
	MinCreated    *int64
	MaxCreated    *int64
	MinModified   *int64
	MaxModified   *int64
	Category      *models.RecipeCategory
	TitleFragment *string
	DescFragment  *string
	InstrFragment *string
	AuthorID      *uint
	Offset        *int
	Limit         *int
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.RecipeModel) error
	GetByID(ctx context.Context, id uint) (*models.RecipeModel, error)
	Query(ctx context.Context, filter RecipeFilter) ([]models.RecipeModel, error)
	Update(ctx context.Context, recipe *models.RecipeModel) error
	Delete(ctx context.Context, id uint) error
	ClearAuthor(ctx context.Context, authorID uint) error

	ListIngredients(ctx context.Context, recipeID uint) ([]models.IngredientModel, error)
	GetIngredient(ctx context.Context, recipeID, ingredientID uint) (*models.IngredientModel, error)
	AddIngredient(ctx context.Context, ingredient *models.IngredientModel) error
	UpdateIngredient(ctx context.Context, ingredient *models.IngredientModel) error
	RemoveIngredient(ctx context.Context, recipeID, ingredientID uint) error
	CountIngredientsByVictual(ctx context.Context, victualID uint) (int64, error)

	ListIllustrations(ctx context.Context, recipeID uint) ([]models.DocumentModel, error)
	AddIllustration(ctx context.Context, recipeID, documentID uint) error
	RemoveIllustration(ctx context.Context, recipeID, documentID uint) (bool, error)
}

type RecipeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewRecipeRepository(database *gorm.DB, log logger.Interface) RecipeRepository {
	return &RecipeRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *RecipeRepositoryImpl) Create(ctx context.Context, recipe *models.RecipeModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(recipe).Error; err != nil {
		r.logger.Errorw("failed to create recipe", "error", err, "title", recipe.Title)
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	r.logger.Infow("recipe created", "recipe_id", recipe.ID, "title", recipe.Title)
	return nil
}

func (r *RecipeRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.RecipeModel, error) {
	var recipe models.RecipeModel
	err := db.GetTxFromContext(ctx, r.db).
		Preload("Ingredients.Victual").
		Preload("Illustrations").
		First(&recipe, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get recipe", "error", err, "recipe_id", id)
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

func (r *RecipeRepositoryImpl) Query(ctx context.Context, filter RecipeFilter) ([]models.RecipeModel, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.RecipeModel{}).
		Preload("Ingredients.Victual")

	query = applyTimestampRange(query, filter.MinCreated, filter.MaxCreated, filter.MinModified, filter.MaxModified)

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.TitleFragment != nil {
		query = query.Where("title LIKE ?", "%"+*filter.TitleFragment+"%")
	}
	if filter.DescFragment != nil {
		query = query.Where("description LIKE ?", "%"+*filter.DescFragment+"%")
	}
	if filter.InstrFragment != nil {
		query = query.Where("instruction LIKE ?", "%"+*filter.InstrFragment+"%")
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

	var recipes []models.RecipeModel
	if err := query.Order("title asc").Find(&recipes).Error; err != nil {
		r.logger.Errorw("failed to query recipes", "error", err)
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	return recipes, nil
}

func (r *RecipeRepositoryImpl) Update(ctx context.Context, recipe *models.RecipeModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.RecipeModel{}).
		Where("id = ? AND version = ?", recipe.ID, recipe.Version).
		Updates(map[string]interface{}{
			"category":         recipe.Category,
			"title":            recipe.Title,
			"description":      recipe.Description,
			"instruction":      recipe.Instruction,
			"avatar_reference": recipe.AvatarID,
			"author_reference": recipe.AuthorID,
			"version":          recipe.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update recipe", "error", result.Error, "recipe_id", recipe.ID)
		return fmt.Errorf("failed to update recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	recipe.Version++
	return nil
}

func (r *RecipeRepositoryImpl) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("recipe_reference = ?", id).Delete(&models.IngredientModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete recipe ingredients: %w", err)
	}
	if err := tx.Table("recipe_illustrations").Where("recipe_model_id = ?", id).Delete(nil).Error; err != nil {
		return fmt.Errorf("failed to unlink recipe illustrations: %w", err)
	}
	if err := tx.Delete(&models.RecipeModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete recipe", "error", err, "recipe_id", id)
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	r.logger.Infow("recipe deleted", "recipe_id", id)
	return nil
}

// ClearAuthor detaches all recipes from a person about to be removed.
func (r *RecipeRepositoryImpl) ClearAuthor(ctx context.Context, authorID uint) error {
	err := db.GetTxFromContext(ctx, r.db).Model(&models.RecipeModel{}).
		Where("author_reference = ?", authorID).
		UpdateColumn("author_reference", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear recipe author: %w", err)
	}
	return nil
}

func (r *RecipeRepositoryImpl) ListIngredients(ctx context.Context, recipeID uint) ([]models.IngredientModel, error) {
	var ingredients []models.IngredientModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("recipe_reference = ?", recipeID).
		Order("id asc").
		Find(&ingredients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

func (r *RecipeRepositoryImpl) GetIngredient(ctx context.Context, recipeID, ingredientID uint) (*models.IngredientModel, error) {
	var ingredient models.IngredientModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("id = ? AND recipe_reference = ?", ingredientID, recipeID).
		First(&ingredient).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ingredient, nil
}

func (r *RecipeRepositoryImpl) AddIngredient(ctx context.Context, ingredient *models.IngredientModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(ingredient).Error; err != nil {
		r.logger.Errorw("failed to add ingredient", "error", err, "recipe_id", ingredient.RecipeID)
		return fmt.Errorf("failed to add ingredient: %w", err)
	}
	return nil
}

func (r *RecipeRepositoryImpl) UpdateIngredient(ctx context.Context, ingredient *models.IngredientModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.IngredientModel{}).
		Where("id = ? AND version = ?", ingredient.ID, ingredient.Version).
		Updates(map[string]interface{}{
			"amount":            ingredient.Amount,
			"unit":              ingredient.Unit,
			"victual_reference": ingredient.VictualID,
			"version":           ingredient.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update ingredient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	ingredient.Version++
	return nil
}

func (r *RecipeRepositoryImpl) RemoveIngredient(ctx context.Context, recipeID, ingredientID uint) error {
	err := db.GetTxFromContext(ctx, r.db).
		Where("id = ? AND recipe_reference = ?", ingredientID, recipeID).
		Delete(&models.IngredientModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove ingredient: %w", err)
	}
	return nil
}

// CountIngredientsByVictual reports how many ingredients still reference a
// victual, guarding victual deletion.
func (r *RecipeRepositoryImpl) CountIngredientsByVictual(ctx context.Context, victualID uint) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.IngredientModel{}).
		Where("victual_reference = ?", victualID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ingredient references: %w", err)
	}
	return count, nil
}

func (r *RecipeRepositoryImpl) ListIllustrations(ctx context.Context, recipeID uint) ([]models.DocumentModel, error) {
	var documents []models.DocumentModel
	err := db.GetTxFromContext(ctx, r.db).
		Select("documents.id", "documents.version", "documents.created_at", "documents.updated_at",
			"documents.type", "documents.description", "documents.hash",
			"LENGTH(documents.content) AS content_length").
		Joins("JOIN recipe_illustrations ON recipe_illustrations.document_model_id = documents.id").
		Where("recipe_illustrations.recipe_model_id = ?", recipeID).
		Order("documents.id asc").
		Find(&documents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list illustrations: %w", err)
	}
	return documents, nil
}

func (r *RecipeRepositoryImpl) AddIllustration(ctx context.Context, recipeID, documentID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	var existing int64
	err := tx.Table("recipe_illustrations").
		Where("recipe_model_id = ? AND document_model_id = ?", recipeID, documentID).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to check illustration link: %w", err)
	}
	if existing > 0 {
		return nil
	}

	err = tx.Table("recipe_illustrations").Create(map[string]interface{}{
		"recipe_model_id":   recipeID,
		"document_model_id": documentID,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to add illustration link: %w", err)
	}
	return nil
}

// RemoveIllustration unlinks a document from a recipe. The second return
// value reports whether a link existed.
func (r *RecipeRepositoryImpl) RemoveIllustration(ctx context.Context, recipeID, documentID uint) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).Table("recipe_illustrations").
		Where("recipe_model_id = ? AND document_model_id = ?", recipeID, documentID).
		Delete(nil)
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove illustration link: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
