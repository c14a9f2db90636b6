package models

import "dinnerd/internal/shared/constants"

// Diet classifies a victual by dietary restriction, ordered from least to
// most restrictive. A recipe's effective diet is the minimum rank over its
// ingredients' victuals.
type Diet string

const (
	DietCarnivorian        Diet = "CARNIVORIAN"
	DietPescatarian        Diet = "PESCATARIAN"
	DietLactoOvoVegetarian Diet = "LACTO_OVO_VEGETARIAN"
	DietLactoVegetarian    Diet = "LACTO_VEGETARIAN"
	DietVegan              Diet = "VEGAN"
)

var dietRanks = map[Diet]int{
	DietCarnivorian:        0,
	DietPescatarian:        1,
	DietLactoOvoVegetarian: 2,
	DietLactoVegetarian:    3,
	DietVegan:              4,
}

// Rank returns the ordinal position of the diet, -1 for unknown values.
func (d Diet) Rank() int {
	if rank, ok := dietRanks[d]; ok {
		return rank
	}
	return -1
}

func (d Diet) IsValid() bool {
	_, ok := dietRanks[d]
	return ok
}

// VictualModel represents a foodstuff that recipes reference as ingredients.
type VictualModel struct {
	Record

	Diet        Diet    `gorm:"not null;size:32" json:"diet"`
	Alias       string  `gorm:"not null;size:128;uniqueIndex" json:"alias"`
	Description *string `gorm:"size:4094" json:"description,omitempty"`
	AvatarID    *uint   `gorm:"column:avatar_reference" json:"-"`
	AuthorID    *uint   `gorm:"column:author_reference" json:"-"`
}

// TableName specifies the table name for GORM
func (VictualModel) TableName() string {
	return constants.TableVictuals
}
