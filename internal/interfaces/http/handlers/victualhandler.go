package handlers

import (
	"github.com/gin-gonic/gin"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/interfaces/dto"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/utils"
)

type VictualHandler struct {
	victuals repository.VictualRepository
	recipes  repository.RecipeRepository
	people   repository.PersonRepository
	logger   logger.Interface
}

func NewVictualHandler(
	victuals repository.VictualRepository,
	recipes repository.RecipeRepository,
	people repository.PersonRepository,
	log logger.Interface,
) *VictualHandler {
	return &VictualHandler{
		victuals: victuals,
		recipes:  recipes,
		people:   people,
		logger:   log,
	}
}

type VictualRequest struct {
	Diet        string  `json:"diet" binding:"required,oneof=CARNIVORIAN PESCATARIAN LACTO_OVO_VEGETARIAN LACTO_VEGETARIAN VEGAN"`
	Alias       string  `json:"alias" binding:"required,max=128"`
	Description *string `json:"description" binding:"omitempty,max=4094"`
	Avatar      *uint   `json:"avatar-reference"`
}

func (h *VictualHandler) Create(c *gin.Context) {
	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req VictualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for victual", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	authorID := actor.ID
	victual := &models.VictualModel{
		Diet:        models.Diet(req.Diet),
		Alias:       req.Alias,
		Description: req.Description,
		AvatarID:    req.Avatar,
		AuthorID:    &authorID,
	}
	if err := h.victuals.Create(c.Request.Context(), victual); err != nil {
		if apperrors.IsDuplicateError(err) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("victual alias already exists"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.NewVictualView(victual))
}

func (h *VictualHandler) List(c *gin.Context) {
	filter, err := parseVictualFilter(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	victuals, err := h.victuals.Query(c.Request.Context(), *filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	views := make([]dto.VictualView, 0, len(victuals))
	for i := range victuals {
		views = append(views, dto.NewVictualView(&victuals[i]))
	}
	utils.OKResponse(c, views)
}

func (h *VictualHandler) Get(c *gin.Context) {
	victual, err := h.loadVictual(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, dto.NewVictualView(victual))
}

func (h *VictualHandler) Update(c *gin.Context) {
	victual, err := h.loadVictual(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, victual.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	var req VictualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for victual", "victual_id", victual.ID, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	victual.Diet = models.Diet(req.Diet)
	victual.Alias = req.Alias
	victual.Description = req.Description
	victual.AvatarID = req.Avatar

	if err := h.victuals.Update(c.Request.Context(), victual); err != nil {
		if err == repository.ErrStaleVersion {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("victual was modified concurrently"))
			return
		}
		if apperrors.IsDuplicateError(err) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("victual alias already exists"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	refreshed, err := h.victuals.GetByID(c.Request.Context(), victual.ID)
	if err != nil || refreshed == nil {
		utils.OKResponse(c, dto.NewVictualView(victual))
		return
	}
	utils.OKResponse(c, dto.NewVictualView(refreshed))
}

// Delete removes a victual. A victual still referenced by any ingredient
// cannot be removed.
func (h *VictualHandler) Delete(c *gin.Context) {
	victual, err := h.loadVictual(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, victual.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	references, err := h.recipes.CountIngredientsByVictual(c.Request.Context(), victual.ID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if references > 0 {
		utils.ErrorResponseWithError(c, apperrors.NewConflictError("victual is referenced by ingredients"))
		return
	}

	if err := h.victuals.Delete(c.Request.Context(), victual.ID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// GetAuthor returns the person who authored the victual.
func (h *VictualHandler) GetAuthor(c *gin.Context) {
	victual, err := h.loadVictual(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if victual.AuthorID == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("victual has no author"))
		return
	}

	author, err := h.people.GetByID(c.Request.Context(), *victual.AuthorID)
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

func (h *VictualHandler) loadVictual(c *gin.Context) (*models.VictualModel, error) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	victual, err := h.victuals.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if victual == nil {
		return nil, apperrors.NewNotFoundError("victual not found")
	}
	return victual, nil
}

func parseVictualFilter(c *gin.Context) (*repository.VictualFilter, error) {
	filter := &repository.VictualFilter{}

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

	if diet, err := utils.QueryEnum(c, "diet",
		"CARNIVORIAN", "PESCATARIAN", "LACTO_OVO_VEGETARIAN", "LACTO_VEGETARIAN", "VEGAN"); err != nil {
		return nil, err
	} else if diet != nil {
		value := models.Diet(*diet)
		filter.Diet = &value
	}

	filter.AliasFragment = utils.QueryString(c, "alias")
	filter.DescFragment = utils.QueryString(c, "description")

	paging, err := utils.ParsePaging(c)
	if err != nil {
		return nil, err
	}
	filter.Offset = paging.Offset
	filter.Limit = paging.Limit

	return filter, nil
}
