package models

import (
	"time"

	"dinnerd/internal/shared/constants"
)

// AccessCounterModel is the usage tally of one access plan for one
// (year, month) period. Rows are created lazily on first gated request of a
// new month and their amount only grows within the period; a month rollover
// implicitly starts a fresh row instead of resetting an old one.
type AccessCounterModel struct {
	ID           uint      `gorm:"primarykey" json:"-"`
	AccessPlanID uint      `gorm:"not null;uniqueIndex:idx_plan_period" json:"-"`
	Year         int16     `gorm:"not null;uniqueIndex:idx_plan_period" json:"year"`
	Month        int8      `gorm:"not null;uniqueIndex:idx_plan_period" json:"month"`
	Amount       uint64    `gorm:"not null;default:0" json:"amount"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (AccessCounterModel) TableName() string {
	return constants.TableAccessCounter
}
