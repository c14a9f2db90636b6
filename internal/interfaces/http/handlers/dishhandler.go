package handlers

import (
	"github.com/gin-gonic/gin"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/utils"
)

type DishHandler struct {
	dishes repository.DishRepository
	people repository.PersonRepository
	logger logger.Interface
}

func NewDishHandler(
	dishes repository.DishRepository,
	people repository.PersonRepository,
	log logger.Interface,
) *DishHandler {
	return &DishHandler{
		dishes: dishes,
		people: people,
		logger: log,
	}
}

type DishRequest struct {
	DishType string `json:"dishType" binding:"required,max=128"`
}

func (h *DishHandler) Create(c *gin.Context) {
	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for dish", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	authorID := actor.ID
	dish := &models.DishModel{
		DishType: req.DishType,
		AuthorID: &authorID,
	}
	if err := h.dishes.Create(c.Request.Context(), dish); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, dish)
}

func (h *DishHandler) List(c *gin.Context) {
	filter := repository.DishFilter{}

	var err error
	if filter.MinCreated, err = utils.QueryInt64(c, "min-created"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MaxCreated, err = utils.QueryInt64(c, "max-created"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MinModified, err = utils.QueryInt64(c, "min-modified"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MaxModified, err = utils.QueryInt64(c, "max-modified"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter.TypeFragment = utils.QueryString(c, "dishType")

	paging, err := utils.ParsePaging(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter.Offset = paging.Offset
	filter.Limit = paging.Limit

	dishes, err := h.dishes.Query(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, dishes)
}

func (h *DishHandler) Get(c *gin.Context) {
	dish, err := h.loadDish(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, dish)
}

func (h *DishHandler) Update(c *gin.Context) {
	dish, err := h.loadDish(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, dish.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for dish", "dish_id", dish.ID, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	dish.DishType = req.DishType
	if err := h.dishes.Update(c.Request.Context(), dish); err != nil {
		if err == repository.ErrStaleVersion {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("dish was modified concurrently"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	refreshed, err := h.dishes.GetByID(c.Request.Context(), dish.ID)
	if err != nil || refreshed == nil {
		utils.OKResponse(c, dish)
		return
	}
	utils.OKResponse(c, refreshed)
}

// Delete removes a dish. A dish still referenced by a meal type cannot be
// removed.
func (h *DishHandler) Delete(c *gin.Context) {
	dish, err := h.loadDish(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !isAuthorOrAdmin(actor, dish.AuthorID) {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("not the author and not an administrator"))
		return
	}

	references, err := h.dishes.CountMealTypeReferences(c.Request.Context(), dish.ID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if references > 0 {
		utils.ErrorResponseWithError(c, apperrors.NewConflictError("dish is referenced by meal types"))
		return
	}

	if err := h.dishes.Delete(c.Request.Context(), dish.ID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

func (h *DishHandler) loadDish(c *gin.Context) (*models.DishModel, error) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	dish, err := h.dishes.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if dish == nil {
		return nil, apperrors.NewNotFoundError("dish not found")
	}
	return dish, nil
}
