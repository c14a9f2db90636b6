package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerd/internal/infrastructure/persistence/models"
)

func TestRecipeResource(t *testing.T) {
	f := setupFixture(t)
	author := f.seedPerson(t, "cook@example.org", models.GroupUser)

	t.Run("creates a recipe owned by the requester", func(t *testing.T) {
		description := "A *classic* stew."
		recorder := f.request(t, http.MethodPost, "/recipes", map[string]interface{}{
			"category":    "MAIN_COURSE",
			"title":       "Irish Stew",
			"description": description,
		}, author.ID)
		require.Equal(t, http.StatusCreated, recorder.Code)

		recipe, err := f.recipes.GetByID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, recipe)
		require.NotNil(t, recipe.AuthorID)
		assert.Equal(t, author.ID, *recipe.AuthorID)
		assert.Equal(t, description, *recipe.Description)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, "/recipes", map[string]interface{}{
			"category": "MIDNIGHT_SNACK",
			"title":    "Odd",
		}, author.ID)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("duplicate title conflicts", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, "/recipes", map[string]interface{}{
			"category": "MAIN_COURSE",
			"title":    "Irish Stew",
		}, author.ID)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("html format renders the markdown", func(t *testing.T) {
		recorder := f.request(t, http.MethodGet, "/recipes/1?format=html", nil, author.ID)
		require.Equal(t, http.StatusOK, recorder.Code)

		var view struct {
			DescriptionHTML string `json:"description-html"`
		}
		decodeData(t, recorder, &view)
		assert.Contains(t, view.DescriptionHTML, "<em>classic</em>")
	})

	t.Run("author endpoint returns the owner", func(t *testing.T) {
		recorder := f.request(t, http.MethodGet, "/recipes/1/author", nil, author.ID)
		require.Equal(t, http.StatusOK, recorder.Code)

		var view struct {
			Email string `json:"email"`
		}
		decodeData(t, recorder, &view)
		assert.Equal(t, "cook@example.org", view.Email)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		stranger := f.seedPerson(t, "stranger@example.org", models.GroupUser)
		recorder := f.request(t, http.MethodDelete, "/recipes/1", nil, stranger.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("admin deletes any recipe", func(t *testing.T) {
		admin := f.seedPerson(t, "admin@example.org", models.GroupAdmin)
		recorder := f.request(t, http.MethodDelete, "/recipes/1", nil, admin.ID)
		assert.Equal(t, http.StatusNoContent, recorder.Code)

		gone, err := f.recipes.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestIngredientSubresource(t *testing.T) {
	f := setupFixture(t)
	author := f.seedPerson(t, "cook@example.org", models.GroupUser)
	recipe := f.seedRecipe(t, "Chili", author.ID)
	beans := f.seedVictual(t, "beans", models.DietVegan, author.ID)

	basePath := fmt.Sprintf("/recipes/%d/ingredients", recipe.ID)

	t.Run("adds an ingredient", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, basePath, map[string]interface{}{
			"amount":            250.0,
			"unit":              "GRAM",
			"victual-reference": beans.ID,
		}, author.ID)
		require.Equal(t, http.StatusCreated, recorder.Code)

		ingredients, err := f.recipes.ListIngredients(context.Background(), recipe.ID)
		require.NoError(t, err)
		require.Len(t, ingredients, 1)
		assert.Equal(t, models.UnitGram, ingredients[0].Unit)
	})

	t.Run("rejects an unknown victual", func(t *testing.T) {
		recorder := f.request(t, http.MethodPost, basePath, map[string]interface{}{
			"amount":            1.0,
			"unit":              "PIECE",
			"victual-reference": 999,
		}, author.ID)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("referenced victual cannot be deleted", func(t *testing.T) {
		recorder := f.request(t, http.MethodDelete, fmt.Sprintf("/victuals/%d", beans.ID), nil, author.ID)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("removes an ingredient", func(t *testing.T) {
		recorder := f.request(t, http.MethodDelete, basePath+"/1", nil, author.ID)
		require.Equal(t, http.StatusNoContent, recorder.Code)

		ingredients, err := f.recipes.ListIngredients(context.Background(), recipe.ID)
		require.NoError(t, err)
		assert.Empty(t, ingredients)
	})

	t.Run("unreferenced victual deletes cleanly", func(t *testing.T) {
		recorder := f.request(t, http.MethodDelete, fmt.Sprintf("/victuals/%d", beans.ID), nil, author.ID)
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

func TestIllustrationSubresource(t *testing.T) {
	f := setupFixture(t)
	author := f.seedPerson(t, "cook@example.org", models.GroupUser)
	recipe := f.seedRecipe(t, "Tiramisu", author.ID)
	photo := f.seedDocument(t, "image/jpeg", []byte("jpeg-bytes"))

	link := fmt.Sprintf("/recipes/%d/illustrations/%d", recipe.ID, photo.ID)

	t.Run("links a document", func(t *testing.T) {
		recorder := f.request(t, http.MethodPut, link, nil, author.ID)
		require.Equal(t, http.StatusNoContent, recorder.Code)

		documents, err := f.recipes.ListIllustrations(context.Background(), recipe.ID)
		require.NoError(t, err)
		require.Len(t, documents, 1)
		assert.Equal(t, "image/jpeg", documents[0].Type)
	})

	t.Run("linking twice is idempotent", func(t *testing.T) {
		recorder := f.request(t, http.MethodPut, link, nil, author.ID)
		require.Equal(t, http.StatusNoContent, recorder.Code)

		documents, err := f.recipes.ListIllustrations(context.Background(), recipe.ID)
		require.NoError(t, err)
		assert.Len(t, documents, 1)
	})

	t.Run("listing does not load the content", func(t *testing.T) {
		recorder := f.request(t, http.MethodGet, fmt.Sprintf("/recipes/%d/illustrations", recipe.ID), nil, author.ID)
		require.Equal(t, http.StatusOK, recorder.Code)

		var views []struct {
			Hash string `json:"hash"`
			Size int64  `json:"size"`
		}
		decodeData(t, recorder, &views)
		require.Len(t, views, 1)
		assert.Equal(t, photo.Hash, views[0].Hash)
		assert.Equal(t, int64(len("jpeg-bytes")), views[0].Size)
	})

	t.Run("unlinks the document", func(t *testing.T) {
		recorder := f.request(t, http.MethodDelete, link, nil, author.ID)
		require.Equal(t, http.StatusNoContent, recorder.Code)

		documents, err := f.recipes.ListIllustrations(context.Background(), recipe.ID)
		require.NoError(t, err)
		assert.Empty(t, documents)
	})

	t.Run("unlinking again reports not found", func(t *testing.T) {
		recorder := f.request(t, http.MethodDelete, link, nil, author.ID)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestRecipeDietProjection(t *testing.T) {
	f := setupFixture(t)
	author := f.seedPerson(t, "cook@example.org", models.GroupUser)
	recipe := f.seedRecipe(t, "Carbonara", author.ID)
	bacon := f.seedVictual(t, "bacon", models.DietCarnivorian, author.ID)
	noodles := f.seedVictual(t, "noodles", models.DietVegan, author.ID)

	for _, victual := range []*models.VictualModel{bacon, noodles} {
		recorder := f.request(t, http.MethodPost, fmt.Sprintf("/recipes/%d/ingredients", recipe.ID),
			map[string]interface{}{"amount": 100.0, "unit": "GRAM", "victual-reference": victual.ID}, author.ID)
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	recorder := f.request(t, http.MethodGet, fmt.Sprintf("/recipes/%d", recipe.ID), nil, author.ID)
	require.Equal(t, http.StatusOK, recorder.Code)

	var view struct {
		Diet            string `json:"diet"`
		IngredientCount int    `json:"ingredient-count"`
	}
	decodeData(t, recorder, &view)
	assert.Equal(t, "CARNIVORIAN", view.Diet)
	assert.Equal(t, 2, view.IngredientCount)
}
