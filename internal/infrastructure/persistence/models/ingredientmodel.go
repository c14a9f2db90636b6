package models

import "dinnerd/internal/shared/constants"

type Unit string

const (
	UnitLitre      Unit = "LITRE"
	UnitGram       Unit = "GRAM"
	UnitTeaspoon   Unit = "TEASPOON"
	UnitTablespoon Unit = "TABLESPOON"
	UnitPinch      Unit = "PINCH"
	UnitCup        Unit = "CUP"
	UnitCan        Unit = "CAN"
	UnitTube       Unit = "TUBE"
	UnitBushel     Unit = "BUSHEL"
	UnitPiece      Unit = "PIECE"
)

func (u Unit) IsValid() bool {
	switch u {
	case UnitLitre, UnitGram, UnitTeaspoon, UnitTablespoon, UnitPinch,
		UnitCup, UnitCan, UnitTube, UnitBushel, UnitPiece:
		return true
	}
	return false
}

// IngredientModel links a recipe to a victual with an amount and unit.
type IngredientModel struct {
	Record

	Amount    float32 `gorm:"not null" json:"amount"`
	Unit      Unit    `gorm:"not null;size:16" json:"unit"`
	VictualID uint    `gorm:"column:victual_reference;not null" json:"victual-reference"`
	RecipeID  uint    `gorm:"column:recipe_reference;not null;index" json:"recipe-reference"`

	Victual *VictualModel `gorm:"foreignKey:VictualID" json:"-"`
}

// TableName specifies the table name for GORM
func (IngredientModel) TableName() string {
	return constants.TableIngredients
}
