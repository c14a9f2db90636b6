package models

import "dinnerd/internal/shared/constants"

type CourseType string

const (
	CourseAppetizer  CourseType = "APPETIZER"
	CourseMainCourse CourseType = "MAIN_COURSE"
	CourseDessert    CourseType = "DESSERT"
)

func (c CourseType) IsValid() bool {
	switch c {
	case CourseAppetizer, CourseMainCourse, CourseDessert:
		return true
	}
	return false
}

// MealTypeModel represents one course slot of a meal. Course numbers form a
// dense 1..N sequence across all rows; the sequencer's bulk shifts keep the
// sequence gap-free, so the index is deliberately non-unique (shifts pass
// through transient duplicates within a transaction).
type MealTypeModel struct {
	Record

	CourseNumber int        `gorm:"not null;index" json:"course-number"`
	CourseType   CourseType `gorm:"not null;size:32" json:"course-type"`
	DishID       *uint      `gorm:"column:dish_reference" json:"dish-reference,omitempty"`
	AuthorID     *uint      `gorm:"column:author_reference" json:"-"`
}

// TableName specifies the table name for GORM
func (MealTypeModel) TableName() string {
	return constants.TableMealTypes
}
