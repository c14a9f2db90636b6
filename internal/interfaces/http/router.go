package http

import (
	_ "embed"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"dinnerd/internal/application/quota"
	"dinnerd/internal/application/sequence"
	"dinnerd/internal/infrastructure/config"
	"dinnerd/internal/infrastructure/ratelimit"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/interfaces/http/handlers"
	"dinnerd/internal/interfaces/http/middleware"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/services/markdown"
)

// openapiDocument is the embedded service-discovery document; it is served
// on a gate-bypass path so unauthenticated clients can discover the API.
//
//go:embed openapi.json
var openapiDocument []byte

// Router wires repositories, services, handlers and the middleware chain
// into a Gin engine.
type Router struct {
	engine *gin.Engine
	logger logger.Interface

	gate            *middleware.GateMiddleware
	registrationCap gin.HandlerFunc

	personHandler   *handlers.PersonHandler
	recipeHandler   *handlers.RecipeHandler
	victualHandler  *handlers.VictualHandler
	dishHandler     *handlers.DishHandler
	mealTypeHandler *handlers.MealTypeHandler
	documentHandler *handlers.DocumentHandler
}

// NewRouter creates the router with all dependencies constructed from the
// database handle and configuration.
func NewRouter(database *gorm.DB, cfg *config.Config, log logger.Interface) *Router {
	gin.SetMode(ginMode(cfg.Server.Mode))
	engine := gin.New()
	registerTagNames()

	txMgr := db.NewTransactionManager(database)

	people := repository.NewPersonRepository(database, log)
	plans := repository.NewAccessPlanRepository(database, log)
	recipes := repository.NewRecipeRepository(database, log)
	victuals := repository.NewVictualRepository(database, log)
	dishes := repository.NewDishRepository(database, log)
	mealTypes := repository.NewMealTypeRepository(database, log)
	documents := repository.NewDocumentRepository(database, log)

	quotaService := quota.NewService(plans, txMgr, log)
	sequencer := sequence.NewService(mealTypes, txMgr, log)
	markdownService := markdown.NewMarkdownService()

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}
	registrationWindow := time.Duration(cfg.RateLimit.RegistrationWindow) * time.Second

	return &Router{
		engine:          engine,
		logger:          log,
		gate:            middleware.NewGateMiddleware(quotaService, people, log),
		registrationCap: middleware.RegistrationLimit(limiter, cfg.RateLimit.RegistrationLimit, registrationWindow),
		personHandler:   handlers.NewPersonHandler(people, plans, recipes, victuals, dishes, txMgr, log),
		recipeHandler:   handlers.NewRecipeHandler(recipes, victuals, documents, people, markdownService, log),
		victualHandler:  handlers.NewVictualHandler(victuals, recipes, people, log),
		dishHandler:     handlers.NewDishHandler(dishes, people, log),
		mealTypeHandler: handlers.NewMealTypeHandler(sequencer, mealTypes, dishes, people, log),
		documentHandler: handlers.NewDocumentHandler(documents, people, log),
	}
}

// SetupRoutes configures the middleware chain and all resource routes. The
// gate runs after CORS so preflight requests pass without credentials.
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(r.gate.Handle())

	r.engine.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openapiDocument)
	})

	people := r.engine.Group("/people")
	{
		people.GET("", r.personHandler.List)
		people.POST("", r.registrationCap, r.personHandler.Register)
		people.GET("/requester", r.personHandler.GetRequester)
		people.GET("/:id", r.personHandler.Get)
		people.PUT("/:id", r.personHandler.Update)
		people.DELETE("/:id", r.personHandler.Delete)
		people.GET("/:id/access-plans", r.personHandler.ListPlans)
		people.POST("/:id/access-plans", r.personHandler.CreatePlan)
		people.GET("/:id/recipes", r.personHandler.ListRecipes)
		people.GET("/:id/victuals", r.personHandler.ListVictuals)
	}

	recipes := r.engine.Group("/recipes")
	{
		recipes.GET("", r.recipeHandler.List)
		recipes.POST("", r.recipeHandler.Create)
		recipes.GET("/:id", r.recipeHandler.Get)
		recipes.DELETE("/:id", r.recipeHandler.Delete)
		recipes.GET("/:id/author", r.recipeHandler.GetAuthor)
		recipes.GET("/:id/ingredients", r.recipeHandler.ListIngredients)
		recipes.POST("/:id/ingredients", r.recipeHandler.AddIngredient)
		recipes.DELETE("/:id/ingredients/:ingredientId", r.recipeHandler.RemoveIngredient)
		recipes.GET("/:id/illustrations", r.recipeHandler.ListIllustrations)
		recipes.PUT("/:id/illustrations/:documentId", r.recipeHandler.AddIllustration)
		recipes.DELETE("/:id/illustrations/:documentId", r.recipeHandler.RemoveIllustration)
	}

	victuals := r.engine.Group("/victuals")
	{
		victuals.GET("", r.victualHandler.List)
		victuals.POST("", r.victualHandler.Create)
		victuals.GET("/:id", r.victualHandler.Get)
		victuals.PUT("/:id", r.victualHandler.Update)
		victuals.DELETE("/:id", r.victualHandler.Delete)
		victuals.GET("/:id/author", r.victualHandler.GetAuthor)
	}

	dishes := r.engine.Group("/dishes")
	{
		dishes.GET("", r.dishHandler.List)
		dishes.POST("", r.dishHandler.Create)
		dishes.GET("/:id", r.dishHandler.Get)
		dishes.PUT("/:id", r.dishHandler.Update)
		dishes.DELETE("/:id", r.dishHandler.Delete)
	}

	mealTypes := r.engine.Group("/meal-types")
	{
		mealTypes.GET("", r.mealTypeHandler.List)
		mealTypes.POST("", r.mealTypeHandler.Save)
		mealTypes.GET("/:id", r.mealTypeHandler.Get)
		mealTypes.DELETE("/:id", r.mealTypeHandler.Delete)
	}

	documents := r.engine.Group("/documents")
	{
		documents.GET("", r.documentHandler.List)
		documents.POST("", r.documentHandler.Create)
		documents.GET("/:id", r.documentHandler.Get)
		documents.DELETE("/:id", r.documentHandler.Delete)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

func ginMode(mode string) string {
	switch mode {
	case "release", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// registerTagNames makes binding errors report JSON field names instead of
// Go struct field names.
func registerTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
