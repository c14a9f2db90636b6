package models

import (
	"time"

	"gorm.io/gorm"

	"dinnerd/internal/shared/constants"
)

type Gender string

const (
	GenderDiverse Gender = "DIVERSE"
	GenderFemale  Gender = "FEMALE"
	GenderMale    Gender = "MALE"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderDiverse, GenderFemale, GenderMale:
		return true
	}
	return false
}

type Group string

const (
	GroupAdmin Group = "ADMIN"
	GroupUser  Group = "USER"
)

func (g Group) IsValid() bool {
	return g == GroupAdmin || g == GroupUser
}

// Rank orders groups by privilege, higher meaning more privileged. Used for
// the escalation rule: only admins may raise another person's group.
func (g Group) Rank() int {
	if g == GroupAdmin {
		return 1
	}
	return 0
}

// Name is the embedded personal name of a principal.
type Name struct {
	Title  *string `gorm:"size:16" json:"title,omitempty"`
	Family string  `gorm:"column:surname;not null;size:32" json:"family"`
	Given  string  `gorm:"column:forename;not null;size:32" json:"given"`
}

// Address is the embedded postal address of a principal.
type Address struct {
	Postcode string `gorm:"not null;size:16" json:"postcode"`
	Street   string `gorm:"not null;size:64" json:"street"`
	City     string `gorm:"not null;size:64" json:"city"`
	Country  string `gorm:"not null;size:64" json:"country"`
}

// PersonPhone is one phone number of a principal, unique per person.
type PersonPhone struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	PersonID  uint      `gorm:"not null;uniqueIndex:idx_person_number" json:"-"`
	Number    string    `gorm:"not null;size:32;uniqueIndex:idx_person_number" json:"number"`
	Label     string    `gorm:"size:32" json:"label"`
	CreatedAt time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (PersonPhone) TableName() string {
	return constants.TablePersonPhones
}

// PersonModel represents an authenticated principal. The password digest is
// the 64-char hex SHA2-256 of the secret and never serializes.
type PersonModel struct {
	Record

	Email        string  `gorm:"not null;size:128;uniqueIndex" json:"email"`
	PasswordHash string  `gorm:"not null;size:64" json:"-"`
	Gender       Gender  `gorm:"not null;size:16" json:"gender"`
	Group        Group   `gorm:"column:group_alias;not null;size:16" json:"group"`
	Name         Name    `gorm:"embedded" json:"name"`
	Address      Address `gorm:"embedded" json:"address"`
	AvatarID     *uint   `gorm:"column:avatar_reference" json:"-"`

	Phones      []PersonPhone     `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"phones"`
	AccessPlans []AccessPlanModel `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (PersonModel) TableName() string {
	return constants.TablePeople
}

// BeforeCreate hook for GORM
func (p *PersonModel) BeforeCreate(tx *gorm.DB) error {
	if p.Group == "" {
		p.Group = GroupUser
	}
	if p.Gender == "" {
		p.Gender = GenderDiverse
	}
	return nil
}
