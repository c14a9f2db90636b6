package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dinnerd/internal/application/sequence"
	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/migration"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/shared/constants"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/services/markdown"
)

// fixture wires every handler against an in-memory database behind the same
// routes the router registers, minus the authentication gate; tests inject
// the requester identity header directly.
type fixture struct {
	router    *gin.Engine
	database  *gorm.DB
	people    repository.PersonRepository
	plans     repository.AccessPlanRepository
	recipes   repository.RecipeRepository
	victuals  repository.VictualRepository
	dishes    repository.DishRepository
	mealTypes repository.MealTypeRepository
	documents repository.DocumentRepository
}

func setupFixture(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(models.All()...))
	require.NoError(t, migration.Seed(database))

	log := logger.NewLogger()
	txMgr := db.NewTransactionManager(database)

	f := &fixture{
		database:  database,
		people:    repository.NewPersonRepository(database, log),
		plans:     repository.NewAccessPlanRepository(database, log),
		recipes:   repository.NewRecipeRepository(database, log),
		victuals:  repository.NewVictualRepository(database, log),
		dishes:    repository.NewDishRepository(database, log),
		mealTypes: repository.NewMealTypeRepository(database, log),
		documents: repository.NewDocumentRepository(database, log),
	}

	sequencer := sequence.NewService(f.mealTypes, txMgr, log)

	personHandler := NewPersonHandler(f.people, f.plans, f.recipes, f.victuals, f.dishes, txMgr, log)
	recipeHandler := NewRecipeHandler(f.recipes, f.victuals, f.documents, f.people, markdown.NewMarkdownService(), log)
	victualHandler := NewVictualHandler(f.victuals, f.recipes, f.people, log)
	dishHandler := NewDishHandler(f.dishes, f.people, log)
	mealTypeHandler := NewMealTypeHandler(sequencer, f.mealTypes, f.dishes, f.people, log)
	documentHandler := NewDocumentHandler(f.documents, f.people, log)

	router := gin.New()

	people := router.Group("/people")
	people.GET("", personHandler.List)
	people.POST("", personHandler.Register)
	people.GET("/requester", personHandler.GetRequester)
	people.GET("/:id", personHandler.Get)
	people.PUT("/:id", personHandler.Update)
	people.DELETE("/:id", personHandler.Delete)
	people.GET("/:id/access-plans", personHandler.ListPlans)
	people.POST("/:id/access-plans", personHandler.CreatePlan)
	people.GET("/:id/recipes", personHandler.ListRecipes)
	people.GET("/:id/victuals", personHandler.ListVictuals)

	recipes := router.Group("/recipes")
	recipes.GET("", recipeHandler.List)
	recipes.POST("", recipeHandler.Create)
	recipes.GET("/:id", recipeHandler.Get)
	recipes.DELETE("/:id", recipeHandler.Delete)
	recipes.GET("/:id/author", recipeHandler.GetAuthor)
	recipes.GET("/:id/ingredients", recipeHandler.ListIngredients)
	recipes.POST("/:id/ingredients", recipeHandler.AddIngredient)
	recipes.DELETE("/:id/ingredients/:ingredientId", recipeHandler.RemoveIngredient)
	recipes.GET("/:id/illustrations", recipeHandler.ListIllustrations)
	recipes.PUT("/:id/illustrations/:documentId", recipeHandler.AddIllustration)
	recipes.DELETE("/:id/illustrations/:documentId", recipeHandler.RemoveIllustration)

	victuals := router.Group("/victuals")
	victuals.GET("", victualHandler.List)
	victuals.POST("", victualHandler.Create)
	victuals.GET("/:id", victualHandler.Get)
	victuals.PUT("/:id", victualHandler.Update)
	victuals.DELETE("/:id", victualHandler.Delete)
	victuals.GET("/:id/author", victualHandler.GetAuthor)

	dishes := router.Group("/dishes")
	dishes.GET("", dishHandler.List)
	dishes.POST("", dishHandler.Create)
	dishes.GET("/:id", dishHandler.Get)
	dishes.PUT("/:id", dishHandler.Update)
	dishes.DELETE("/:id", dishHandler.Delete)

	mealTypes := router.Group("/meal-types")
	mealTypes.GET("", mealTypeHandler.List)
	mealTypes.POST("", mealTypeHandler.Save)
	mealTypes.GET("/:id", mealTypeHandler.Get)
	mealTypes.DELETE("/:id", mealTypeHandler.Delete)

	documents := router.Group("/documents")
	documents.GET("", documentHandler.List)
	documents.POST("", documentHandler.Create)
	documents.GET("/:id", documentHandler.Get)
	documents.DELETE("/:id", documentHandler.Delete)

	f.router = router
	return f
}

// request performs a JSON request as the given requester; requesterID 0
// leaves the identity header unset.
func (f *fixture) request(t *testing.T, method, path string, body interface{}, requesterID uint) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requesterID != 0 {
		req.Header.Set(constants.HeaderRequesterIdentity, strconv.FormatUint(uint64(requesterID), 10))
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *fixture) raw(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *fixture) seedPerson(t *testing.T, email string, group models.Group) *models.PersonModel {
	person := &models.PersonModel{
		Email:        email,
		PasswordHash: auth.Sha2HexText("changeit"),
		Gender:       models.GenderDiverse,
		Group:        group,
		Name:         models.Name{Family: "Doe", Given: "Jo"},
		Address:      models.Address{Postcode: "12345", Street: "Main St 1", City: "Springfield", Country: "US"},
	}
	require.NoError(t, f.people.Create(context.Background(), person))
	return person
}

func (f *fixture) seedRecipe(t *testing.T, title string, authorID uint) *models.RecipeModel {
	recipe := &models.RecipeModel{
		Category: models.CategoryMainCourse,
		Title:    title,
		AuthorID: &authorID,
	}
	require.NoError(t, f.recipes.Create(context.Background(), recipe))
	return recipe
}

func (f *fixture) seedVictual(t *testing.T, alias string, diet models.Diet, authorID uint) *models.VictualModel {
	victual := &models.VictualModel{
		Diet:     diet,
		Alias:    alias,
		AuthorID: &authorID,
	}
	require.NoError(t, f.victuals.Create(context.Background(), victual))
	return victual
}

func (f *fixture) seedDocument(t *testing.T, contentType string, content []byte) *models.DocumentModel {
	document := &models.DocumentModel{
		Type:    contentType,
		Content: content,
	}
	require.NoError(t, f.documents.Create(context.Background(), document))
	return document
}

// decodeData unmarshals the data field of the response envelope into out.
func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
