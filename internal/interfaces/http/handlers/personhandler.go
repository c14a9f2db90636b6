package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/interfaces/dto"
	"dinnerd/internal/shared/constants"
	"dinnerd/internal/shared/db"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/utils"
)

type PersonHandler struct {
	people   repository.PersonRepository
	plans    repository.AccessPlanRepository
	recipes  repository.RecipeRepository
	victuals repository.VictualRepository
	dishes   repository.DishRepository
	txMgr    *db.TransactionManager
	logger   logger.Interface
}

func NewPersonHandler(
	people repository.PersonRepository,
	plans repository.AccessPlanRepository,
	recipes repository.RecipeRepository,
	victuals repository.VictualRepository,
	dishes repository.DishRepository,
	txMgr *db.TransactionManager,
	log logger.Interface,
) *PersonHandler {
	return &PersonHandler{
		people:   people,
		plans:    plans,
		recipes:  recipes,
		victuals: victuals,
		dishes:   dishes,
		txMgr:    txMgr,
		logger:   log,
	}
}

type PhoneRequest struct {
	Number string `json:"number" binding:"required,max=32"`
	Label  string `json:"label" binding:"max=32"`
}

type PersonRequest struct {
	Email   string  `json:"email" binding:"required,email,max=128"`
	Gender  string  `json:"gender" binding:"omitempty,oneof=DIVERSE FEMALE MALE"`
	Group   string  `json:"group" binding:"omitempty,oneof=ADMIN USER"`
	Title   *string `json:"title" binding:"omitempty,max=16"`
	Family  string  `json:"family" binding:"required,max=32"`
	Given   string  `json:"given" binding:"required,max=32"`
	Address struct {
		Postcode string `json:"postcode" binding:"required,max=16"`
		Street   string `json:"street" binding:"required,max=64"`
		City     string `json:"city" binding:"required,max=64"`
		Country  string `json:"country" binding:"required,max=64"`
	} `json:"address" binding:"required"`
	Phones []PhoneRequest `json:"phones" binding:"omitempty,dive"`
}

type AccessPlanRequest struct {
	Application string `json:"application" binding:"required,max=128"`
	Variant     string `json:"variant" binding:"omitempty,oneof=ALPHA BETA GAMMA DELTA OMEGA"`
}

// Register creates a new account. The route is reachable without existing
// credentials (the gate exempts it) and the secret arrives in the
// X-Set-Password header, never in the body.
func (h *PersonHandler) Register(c *gin.Context) {
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for registration", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	secret := c.GetHeader(constants.HeaderSetPassword)
	if secret == "" {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("password header required"))
		return
	}

	group := models.GroupUser
	if req.Group == string(models.GroupAdmin) {
		// Only an authenticated administrator may create another admin.
		actor, err := requester(c.Request.Context(), c, h.people)
		if err != nil || actor.Group != models.GroupAdmin {
			utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("group escalation requires an administrator"))
			return
		}
		group = models.GroupAdmin
	}

	person := &models.PersonModel{
		Email:        req.Email,
		PasswordHash: auth.Sha2HexText(secret),
		Gender:       models.Gender(req.Gender),
		Group:        group,
		Name:         models.Name{Title: req.Title, Family: req.Family, Given: req.Given},
		Address: models.Address{
			Postcode: req.Address.Postcode,
			Street:   req.Address.Street,
			City:     req.Address.City,
			Country:  req.Address.Country,
		},
	}
	for _, phone := range req.Phones {
		person.Phones = append(person.Phones, models.PersonPhone{Number: phone.Number, Label: phone.Label})
	}

	if err := h.people.Create(c.Request.Context(), person); err != nil {
		if apperrors.IsDuplicateError(err) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("email already registered"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.NewPersonView(person))
}

func (h *PersonHandler) List(c *gin.Context) {
	filter, err := parsePersonFilter(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	people, err := h.people.Query(c.Request.Context(), *filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	views := make([]dto.PersonView, 0, len(people))
	for i := range people {
		views = append(views, dto.NewPersonView(&people[i]))
	}
	utils.OKResponse(c, views)
}

// GetRequester returns the principal the gate resolved for this request.
func (h *PersonHandler) GetRequester(c *gin.Context) {
	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, dto.NewPersonView(actor))
}

func (h *PersonHandler) Get(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	person, err := h.people.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if person == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("person not found"))
		return
	}

	utils.OKResponse(c, dto.NewPersonView(person))
}

// Update rewrites a person. Only the person themselves or an administrator
// may do so, and only an administrator may raise the group. A new secret
// may ride along in the X-Set-Password header.
func (h *PersonHandler) Update(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requireSelfOrAdmin(c.Request.Context(), c, h.people, id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for person update", "person_id", id, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	person, err := h.people.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if person == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("person not found"))
		return
	}

	if req.Group != "" && models.Group(req.Group) != person.Group {
		if models.Group(req.Group).Rank() > person.Group.Rank() && actor.Group != models.GroupAdmin {
			utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("group escalation requires an administrator"))
			return
		}
		person.Group = models.Group(req.Group)
	}

	person.Email = req.Email
	if req.Gender != "" {
		person.Gender = models.Gender(req.Gender)
	}
	person.Name = models.Name{Title: req.Title, Family: req.Family, Given: req.Given}
	person.Address = models.Address{
		Postcode: req.Address.Postcode,
		Street:   req.Address.Street,
		City:     req.Address.City,
		Country:  req.Address.Country,
	}
	if secret := c.GetHeader(constants.HeaderSetPassword); secret != "" {
		person.PasswordHash = auth.Sha2HexText(secret)
	}

	err = h.txMgr.RunInTransaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.people.Update(txCtx, person); err != nil {
			if err == repository.ErrStaleVersion {
				return apperrors.NewConflictError("person was modified concurrently")
			}
			return err
		}
		if req.Phones != nil {
			phones := make([]models.PersonPhone, 0, len(req.Phones))
			for _, phone := range req.Phones {
				phones = append(phones, models.PersonPhone{Number: phone.Number, Label: phone.Label})
			}
			return h.people.ReplacePhones(txCtx, id, phones)
		}
		return nil
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, dto.NewPersonView(person))
}

// Delete removes a person, detaching everything they authored first so
// recipes, victuals and dishes survive their author.
func (h *PersonHandler) Delete(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if _, err := requireSelfOrAdmin(c.Request.Context(), c, h.people, id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	person, err := h.people.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if person == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("person not found"))
		return
	}

	err = h.txMgr.RunInTransaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.recipes.ClearAuthor(txCtx, id); err != nil {
			return err
		}
		if err := h.victuals.ClearAuthor(txCtx, id); err != nil {
			return err
		}
		if err := h.dishes.ClearAuthor(txCtx, id); err != nil {
			return err
		}
		return h.people.Delete(txCtx, id)
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// ListPlans returns the person's access plans including derived keys. Only
// the tenant themselves or an administrator may read them.
func (h *PersonHandler) ListPlans(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if _, err := requireSelfOrAdmin(c.Request.Context(), c, h.people, id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	plans, err := h.plans.ListByTenant(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, plans)
}

// CreatePlan registers a metered contract for one named application. The
// lookup key derives from (tenant, application); uncapped OMEGA plans are
// reserved for administrators.
func (h *PersonHandler) CreatePlan(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requireSelfOrAdmin(c.Request.Context(), c, h.people, id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req AccessPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for access plan", "person_id", id, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	variant := models.PlanVariant(req.Variant)
	if variant == "" {
		variant = models.VariantAlpha
	}
	if variant == models.VariantOmega && actor.Group != models.GroupAdmin {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("uncapped plans require an administrator"))
		return
	}

	plan := &models.AccessPlanModel{
		TenantID:    id,
		Application: req.Application,
		Variant:     variant,
		Key:         auth.DeriveAccessKey(id, req.Application),
	}
	if err := h.plans.Create(c.Request.Context(), plan); err != nil {
		if apperrors.IsDuplicateError(err) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("plan already exists for this application"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, plan)
}

// ListRecipes returns the recipes authored by the person.
func (h *PersonHandler) ListRecipes(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	recipes, err := h.recipes.Query(c.Request.Context(), repository.RecipeFilter{AuthorID: &id})
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

// ListVictuals returns the victuals authored by the person.
func (h *PersonHandler) ListVictuals(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	victuals, err := h.victuals.Query(c.Request.Context(), repository.VictualFilter{AuthorID: &id})
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

func parsePersonFilter(c *gin.Context) (*repository.PersonFilter, error) {
	filter := &repository.PersonFilter{}

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

	filter.Email = utils.QueryString(c, "email")
	filter.Title = utils.QueryString(c, "title")
	filter.Surname = utils.QueryString(c, "surname")
	filter.Forename = utils.QueryString(c, "forename")
	filter.Postcode = utils.QueryString(c, "postcode")
	filter.Street = utils.QueryString(c, "street")
	filter.City = utils.QueryString(c, "city")
	filter.Country = utils.QueryString(c, "country")

	if gender, err := utils.QueryEnum(c, "gender", "DIVERSE", "FEMALE", "MALE"); err != nil {
		return nil, err
	} else if gender != nil {
		value := models.Gender(*gender)
		filter.Gender = &value
	}
	if group, err := utils.QueryEnum(c, "group", "ADMIN", "USER"); err != nil {
		return nil, err
	} else if group != nil {
		value := models.Group(*group)
		filter.Group = &value
	}

	paging, err := utils.ParsePaging(c)
	if err != nil {
		return nil, err
	}
	filter.Offset = paging.Offset
	filter.Limit = paging.Limit

	return filter, nil
}
