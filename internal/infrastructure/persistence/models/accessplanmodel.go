package models

import (
	"gorm.io/gorm"

	"dinnerd/internal/shared/constants"
)

// PlanVariant is the ordered quota tier of an access plan. Each tier bounds
// the total request amount per calendar month, except OMEGA which is
// unlimited.
type PlanVariant string

const (
	VariantAlpha PlanVariant = "ALPHA"
	VariantBeta  PlanVariant = "BETA"
	VariantGamma PlanVariant = "GAMMA"
	VariantDelta PlanVariant = "DELTA"
	VariantOmega PlanVariant = "OMEGA"
)

var variantLimits = map[PlanVariant]uint64{
	VariantAlpha: 100,
	VariantBeta:  10_000,
	VariantGamma: 1_000_000,
	VariantDelta: 100_000_000,
}

// Limit returns the monthly cap of the variant, or nil for uncapped tiers.
func (v PlanVariant) Limit() *uint64 {
	if limit, ok := variantLimits[v]; ok {
		return &limit
	}
	return nil
}

// IsValid reports whether the variant is a known tier.
func (v PlanVariant) IsValid() bool {
	switch v {
	case VariantAlpha, VariantBeta, VariantGamma, VariantDelta, VariantOmega:
		return true
	}
	return false
}

// AccessPlanModel represents a tenant's metered contract for one named
// application. The lookup key is derived from (tenant, application) once at
// creation and never changes.
type AccessPlanModel struct {
	Record

	TenantID    uint        `gorm:"not null;uniqueIndex:idx_tenant_application" json:"tenant-reference"`
	Application string      `gorm:"not null;size:128;uniqueIndex:idx_tenant_application" json:"application"`
	Variant     PlanVariant `gorm:"not null;size:16" json:"variant"`
	Key         string      `gorm:"column:alias;not null;size:64;uniqueIndex" json:"key"`

	Counters []AccessCounterModel `gorm:"foreignKey:AccessPlanID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (AccessPlanModel) TableName() string {
	return constants.TableAccessPlans
}

// BeforeCreate hook for GORM
func (p *AccessPlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.Variant == "" {
		p.Variant = VariantAlpha
	}
	return nil
}
