package models

import "dinnerd/internal/shared/constants"

// DishModel represents a named dish that meal-type course slots reference.
type DishModel struct {
	Record

	DishType string `gorm:"not null;size:128" json:"dishType"`
	AuthorID *uint  `gorm:"column:author_reference" json:"-"`
}

// TableName specifies the table name for GORM
func (DishModel) TableName() string {
	return constants.TableDishes
}
