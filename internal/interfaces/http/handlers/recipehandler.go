package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/interfaces/dto"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/services/markdown"
	"dinnerd/internal/shared/utils"
)

type RecipeHandler struct {
	recipes   repository.RecipeRepository
	victuals  repository.VictualRepository
	documents repository.DocumentRepository
	people    repository.PersonRepository
	markdown  markdown.MarkdownService
	logger    logger.Interface
}

func NewRecipeHandler(
	recipes repository.RecipeRepository,
	victuals repository.VictualRepository,
	documents repository.DocumentRepository,
	people repository.PersonRepository,
	markdownService markdown.MarkdownService,
	log logger.Interface,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		victuals:  victuals,
		documents: documents,
		people:    people,
		markdown:  markdownService,
		logger:    log,
	}
}

type RecipeRequest struct {
	Category    string  `json:"category" binding:"required,oneof=MAIN_COURSE APPETIZER SNACK DESSERT BREAKFAST BUFFET BARBEQUE ADOLESCENT INFANT"`
	Title       string  `json:"title" binding:"required,max=128"`
	Description *string `json:"description" binding:"omitempty,max=4094"`
	Instruction *string `json:"instruction" binding:"omitempty,max=4094"`
	Avatar      *uint   `json:"avatar-reference"`
}

type IngredientRequest struct {
	Amount  float32 `json:"amount" binding:"required,gt=0"`
	Unit    string  `json:"unit" binding:"required,oneof=LITRE GRAM TEASPOON TABLESPOON PINCH CUP CAN TUBE BUSHEL PIECE"`
	Victual uint    `json:"victual-reference" binding:"required"`
}

// RecipeHTMLView is the text/html projection of a recipe: description and
// instruction rendered from markdown to sanitized HTML.
type RecipeHTMLView struct {
	dto.RecipeView

	DescriptionHTML string `json:"description-html,omitempty"`
	InstructionHTML string `json:"instruction-html,omitempty"`
}

func (h *RecipeHandler) Create(c *gin.Context) {
	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for recipe", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	authorID := actor.ID
	recipe := &models.RecipeModel{
		Category:    models.RecipeCategory(req.Category),
		Title:       req.Title,
		Description: req.Description,
		Instruction: req.Instruction,
		AvatarID:    req.Avatar,
		AuthorID:    &authorID,
	}
	if err := h.recipes.Create(c.Request.Context(), recipe); err != nil {
		if apperrors.IsDuplicateError(err) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("recipe title already exists"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.NewRecipeView(recipe))
}

func (h *RecipeHandler) List(c *gin.Context) {
	filter, err := parseRecipeFilter(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	recipes, err := h.recipes.Query(c.Request.Context(), *filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	views := make([]dto.RecipeView, 0, len(recipes))
	for i := range recipes {
		views = append(views, dto.NewRecipeView(&recipes[i]))
	}
	utils.OKResponse(c, views)
}

// Get returns a recipe. With format=html the markdown description and
// instruction are additionally rendered to sanitized HTML.
func (h *RecipeHandler) Get(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	view := dto.NewRecipeView(recipe)
	if c.Query("format") != "html" {
		utils.OKResponse(c, view)
		return
	}

	htmlView := RecipeHTMLView{RecipeView: view}
	if recipe.Description != nil {
		if htmlView.DescriptionHTML, err = h.markdown.ToHTMLSanitized(*recipe.Description); err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
	}
	if recipe.Instruction != nil {
		if htmlView.InstructionHTML, err = h.markdown.ToHTMLSanitized(*recipe.Instruction); err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
	}
	utils.OKResponse(c, htmlView)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, recipe.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), recipe.ID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// GetAuthor returns the person who authored the recipe.
func (h *RecipeHandler) GetAuthor(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if recipe.AuthorID == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("recipe has no author"))
		return
	}

	author, err := h.people.GetByID(c.Request.Context(), *recipe.AuthorID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if author == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("author not found"))
		return
	}
	utils.OKResponse(c, dto.NewPersonView(author))
}

func (h *RecipeHandler) ListIngredients(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	ingredients, err := h.recipes.ListIngredients(c.Request.Context(), recipe.ID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, ingredients)
}

func (h *RecipeHandler) AddIngredient(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, recipe.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for ingredient", "recipe_id", recipe.ID, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	victual, err := h.victuals.GetByID(c.Request.Context(), req.Victual)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if victual == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("victual not found"))
		return
	}

	ingredient := &models.IngredientModel{
		Amount:    req.Amount,
		Unit:      models.Unit(req.Unit),
		VictualID: req.Victual,
		RecipeID:  recipe.ID,
	}
	if err := h.recipes.AddIngredient(c.Request.Context(), ingredient); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, ingredient)
}

func (h *RecipeHandler) RemoveIngredient(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, recipe.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	ingredientID, err := utils.ParseIDParam(c, "ingredientId")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	ingredient, err := h.recipes.GetIngredient(c.Request.Context(), recipe.ID, ingredientID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if ingredient == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("ingredient not found"))
		return
	}

	if err := h.recipes.RemoveIngredient(c.Request.Context(), recipe.ID, ingredientID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

func (h *RecipeHandler) ListIllustrations(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	documents, err := h.recipes.ListIllustrations(c.Request.Context(), recipe.ID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	views := make([]dto.DocumentView, 0, len(documents))
	for i := range documents {
		views = append(views, dto.NewDocumentView(&documents[i]))
	}
	utils.OKResponse(c, views)
}

// AddIllustration links an existing document to the recipe. Linking twice
// is idempotent.
func (h *RecipeHandler) AddIllustration(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, recipe.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	documentID, err := utils.ParseIDParam(c, "documentId")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	document, err := h.documents.GetMeta(c.Request.Context(), documentID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if document == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("document not found"))
		return
	}

	if err := h.recipes.AddIllustration(c.Request.Context(), recipe.ID, documentID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) RemoveIllustration(c *gin.Context) {
	recipe, err := h.loadRecipe(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, recipe.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	documentID, err := utils.ParseIDParam(c, "documentId")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	removed, err := h.recipes.RemoveIllustration(c.Request.Context(), recipe.ID, documentID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !removed {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("illustration not linked"))
		return
	}
	utils.NoContentResponse(c)
}

func (h *RecipeHandler) loadRecipe(c *gin.Context) (*models.RecipeModel, error) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	recipe, err := h.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, apperrors.NewNotFoundError("recipe not found")
	}
	return recipe, nil
}

func parseRecipeFilter(c *gin.Context) (*repository.RecipeFilter, error) {
	filter := &repository.RecipeFilter{}

	var err error
	if filter.MinCreated, err = utils.QueryInt64(c, "min-created"); err != nil {
		return nil, err
	}
	if filter.MaxCreated, err = utils.QueryInt64(c, "max-created"); err != nil {
		return nil, err
	}
	if filter.MinModified, err = utils.QueryInt64(c, "min-modified"); err != nil {
		return nil, err
	}
	if filter.MaxModified, err = utils.QueryInt64(c, "max-modified"); err != nil {
		return nil, err
	}

	if category, err := utils.QueryEnum(c, "category",
		"MAIN_COURSE", "APPETIZER", "SNACK", "DESSERT", "BREAKFAST",
		"BUFFET", "BARBEQUE", "ADOLESCENT", "INFANT"); err != nil {
		return nil, err
	} else if category != nil {
		value := models.RecipeCategory(*category)
		filter.Category = &value
	}

	filter.TitleFragment = utils.QueryString(c, "title")
	filter.DescFragment = utils.QueryString(c, "description")
	filter.InstrFragment = utils.QueryString(c, "instruction")

	paging, err := utils.ParsePaging(c)
	if err != nil {
		return nil, err
	}
	filter.Offset = paging.Offset
	filter.Limit = paging.Limit

	return filter, nil
}
