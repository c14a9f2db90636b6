package models

import "dinnerd/internal/shared/constants"

type RecipeCategory string

const (
	CategoryMainCourse RecipeCategory = "MAIN_COURSE"
	CategoryAppetizer  RecipeCategory = "APPETIZER"
	CategorySnack      RecipeCategory = "SNACK"
	CategoryDessert    RecipeCategory = "DESSERT"
	CategoryBreakfast  RecipeCategory = "BREAKFAST"
	CategoryBuffet     RecipeCategory = "BUFFET"
	CategoryBarbeque   RecipeCategory = "BARBEQUE"
	CategoryAdolescent RecipeCategory = "ADOLESCENT"
	CategoryInfant     RecipeCategory = "INFANT"
)

func (c RecipeCategory) IsValid() bool {
	switch c {
	case CategoryMainCourse, CategoryAppetizer, CategorySnack, CategoryDessert,
		CategoryBreakfast, CategoryBuffet, CategoryBarbeque, CategoryAdolescent, CategoryInfant:
		return true
	}
	return false
}

// RecipeModel represents a recipe with its ingredient list and illustration
// documents. Description and instruction hold markdown source.
type RecipeModel struct {
	Record

	Category    RecipeCategory `gorm:"not null;size:32" json:"category"`
	Title       string         `gorm:"not null;size:128;uniqueIndex" json:"title"`
	Description *string        `gorm:"size:4094" json:"description,omitempty"`
	Instruction *string        `gorm:"size:4094" json:"instruction,omitempty"`
	AvatarID    *uint          `gorm:"column:avatar_reference" json:"-"`
	AuthorID    *uint          `gorm:"column:author_reference" json:"-"`

	Ingredients   []IngredientModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Illustrations []DocumentModel   `gorm:"many2many:recipe_illustrations" json:"-"`
}

// TableName specifies the table name for GORM
func (RecipeModel) TableName() string {
	return constants.TableRecipes
}
