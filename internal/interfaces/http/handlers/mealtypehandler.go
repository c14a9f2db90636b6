package handlers

import (
	"github.com/gin-gonic/gin"

	"dinnerd/internal/application/sequence"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/utils"
)

type MealTypeHandler struct {
	sequencer *sequence.Service
	mealTypes repository.MealTypeRepository
	dishes    repository.DishRepository
	people    repository.PersonRepository
	logger    logger.Interface
}

func NewMealTypeHandler(
	sequencer *sequence.Service,
	mealTypes repository.MealTypeRepository,
	dishes repository.DishRepository,
	people repository.PersonRepository,
	log logger.Interface,
) *MealTypeHandler {
	return &MealTypeHandler{
		sequencer: sequencer,
		mealTypes: mealTypes,
		dishes:    dishes,
		people:    people,
		logger:    log,
	}
}

// MealTypeRequest creates a slot when ID is absent and rewrites the
// identified slot otherwise. An absent course number appends on creation
// and keeps the current position on update.
type MealTypeRequest struct {
	ID           *uint  `json:"id"`
	CourseNumber *int   `json:"course-number"`
	CourseType   string `json:"course-type" binding:"required,oneof=APPETIZER MAIN_COURSE DESSERT"`
	Dish         *uint  `json:"dish-reference"`
}

func (r *MealTypeRequest) courseNumber() int {
	if r.CourseNumber == nil {
		return 0
	}
	return *r.CourseNumber
}

func (h *MealTypeHandler) List(c *gin.Context) {
	filter := repository.MealTypeFilter{}

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
	if courseType, err := utils.QueryEnum(c, "course-type",
		"APPETIZER", "MAIN_COURSE", "DESSERT"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	} else if courseType != nil {
		value := models.CourseType(*courseType)
		filter.CourseType = &value
	}

	paging, err := utils.ParsePaging(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter.Offset = paging.Offset
	filter.Limit = paging.Limit

	mealTypes, err := h.mealTypes.Query(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, mealTypes)
}

// Save inserts or updates a course slot; the sequencer keeps course numbers
// a dense 1..N sequence in both cases.
func (h *MealTypeHandler) Save(c *gin.Context) {
	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req MealTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for meal type", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	if req.Dish != nil {
		dish, err := h.dishes.GetByID(c.Request.Context(), *req.Dish)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		if dish == nil {
			utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("dish not found"))
			return
		}
	}

	if req.ID == nil {
		authorID := actor.ID
		mealType := &models.MealTypeModel{
			CourseNumber: req.courseNumber(),
			CourseType:   models.CourseType(req.CourseType),
			DishID:       req.Dish,
			AuthorID:     &authorID,
		}
		if err := h.sequencer.Insert(c.Request.Context(), mealType); err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.CreatedResponse(c, mealType)
		return
	}

	updated, err := h.sequencer.Update(c.Request.Context(), *req.ID, &models.MealTypeModel{
		CourseNumber: req.courseNumber(),
		CourseType:   models.CourseType(req.CourseType),
		DishID:       req.Dish,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, updated)
}

func (h *MealTypeHandler) Get(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	mealType, err := h.mealTypes.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if mealType == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("meal type not found"))
		return
	}
	utils.OKResponse(c, mealType)
}

// Delete removes the slot and closes the gap its course number leaves.
func (h *MealTypeHandler) Delete(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if _, err := requester(c.Request.Context(), c, h.people); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.sequencer.Remove(c.Request.Context(), id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}
