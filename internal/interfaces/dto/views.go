// Package dto holds typed read-only projections returned by the REST
// surface. Derived fields are computed on demand from the loaded models.
package dto

import "dinnerd/internal/infrastructure/persistence/models"

// RecipeView is a recipe row enriched with its reference identities and the
// aggregate properties of its ingredient list.
type RecipeView struct {
	models.RecipeModel

	AvatarRef         *uint       `json:"avatar-reference,omitempty"`
	AuthorRef         *uint       `json:"author-reference,omitempty"`
	IngredientCount   int         `json:"ingredient-count"`
	IllustrationCount int         `json:"illustration-count"`
	Diet              models.Diet `json:"diet"`
}

// NewRecipeView projects a recipe with its preloaded ingredients and
// illustrations. The effective diet is the least restrictive diet over the
// ingredients' victuals, or VEGAN for an empty ingredient list. Victuals
// must be preloaded on the ingredients for the diet to be exact.
func NewRecipeView(recipe *models.RecipeModel) RecipeView {
	diet := models.DietVegan
	for _, ingredient := range recipe.Ingredients {
		if ingredient.Victual != nil && ingredient.Victual.Diet.Rank() < diet.Rank() {
			diet = ingredient.Victual.Diet
		}
	}

	return RecipeView{
		RecipeModel:       *recipe,
		AvatarRef:         recipe.AvatarID,
		AuthorRef:         recipe.AuthorID,
		IngredientCount:   len(recipe.Ingredients),
		IllustrationCount: len(recipe.Illustrations),
		Diet:              diet,
	}
}

// DocumentView is document metadata with the content size, never the
// content itself.
type DocumentView struct {
	models.DocumentModel

	Size int64 `json:"size"`
}

func NewDocumentView(document *models.DocumentModel) DocumentView {
	size := int64(document.Size())
	if size == 0 {
		size = document.ContentLength
	}
	return DocumentView{
		DocumentModel: *document,
		Size:          size,
	}
}

// PersonView is a person row with the avatar reference surfaced.
type PersonView struct {
	models.PersonModel

	AvatarRef *uint `json:"avatar-reference,omitempty"`
}

func NewPersonView(person *models.PersonModel) PersonView {
	return PersonView{
		PersonModel: *person,
		AvatarRef:   person.AvatarID,
	}
}

// VictualView is a victual row with its reference identities surfaced.
type VictualView struct {
	models.VictualModel

	AvatarRef *uint `json:"avatar-reference,omitempty"`
	AuthorRef *uint `json:"author-reference,omitempty"`
}

func NewVictualView(victual *models.VictualModel) VictualView {
	return VictualView{
		VictualModel: *victual,
		AvatarRef:    victual.AvatarID,
		AuthorRef:    victual.AuthorID,
	}
}
