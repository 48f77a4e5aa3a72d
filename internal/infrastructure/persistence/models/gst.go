package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/shopspring/decimal"
)

// TaxCodeModel is the persistence model for TaxCode versions. One row
// per version; a rate change inserts a new row and closes the prior
// one, it never updates a rate in place.
type TaxCodeModel struct {
	TenantAggregateModel
	Code             string          `gorm:"type:varchar(20);not null;index:idx_taxcode_tenant_code"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Class            gst.TaxClass    `gorm:"type:varchar(20);not null"`
	Rate             decimal.Decimal `gorm:"type:decimal(8,6);not null"`
	ExcludedFromBase bool            `gorm:"not null;default:false"`
	BoxMapping       string          `gorm:"type:varchar(30)"`
	EffectiveFrom    time.Time       `gorm:"not null;index"`
	EffectiveTo      *time.Time      `gorm:"index"`
	IsActive         bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (TaxCodeModel) TableName() string {
	return "tax_codes"
}

// ToDomain converts the persistence model to a domain TaxCode entity.
func (m *TaxCodeModel) ToDomain() *gst.TaxCode {
	return &gst.TaxCode{
		TenantAggregateRoot: m.tenantRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Class:               m.Class,
		Rate:                m.Rate,
		ExcludedFromBase:    m.ExcludedFromBase,
		BoxMapping:          m.BoxMapping,
		EffectiveFrom:       m.EffectiveFrom,
		EffectiveTo:         m.EffectiveTo,
		IsActive:            m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain TaxCode entity.
func (m *TaxCodeModel) FromDomain(t *gst.TaxCode) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Class = t.Class
	m.Rate = t.Rate
	m.ExcludedFromBase = t.ExcludedFromBase
	m.BoxMapping = t.BoxMapping
	m.EffectiveFrom = t.EffectiveFrom
	m.EffectiveTo = t.EffectiveTo
	m.IsActive = t.IsActive
}

// TaxCodeModelFromDomain creates a new persistence model from a domain TaxCode.
func TaxCodeModelFromDomain(t *gst.TaxCode) *TaxCodeModel {
	m := &TaxCodeModel{}
	m.FromDomain(t)
	return m
}

// ReturnPeriodModel is the persistence model for the ReturnPeriod
// aggregate root.
type ReturnPeriodModel struct {
	TenantAggregateModel
	PeriodStart      time.Time        `gorm:"not null;index"`
	PeriodEnd        time.Time        `gorm:"not null;index"`
	Status           gst.ReturnStatus `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	Boxes            gst.BoxSet       `gorm:"type:jsonb;not null;default:'{}'"`
	FiledAt          *time.Time
	FiledBy          string     `gorm:"type:varchar(200)"`
	FilingReference  string     `gorm:"type:varchar(100)"`
	StaleSinceFiling bool       `gorm:"not null;default:false"`
	AmendsPeriodID   *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ReturnPeriodModel) TableName() string {
	return "return_periods"
}

// ToDomain converts the persistence model to a domain ReturnPeriod entity.
func (m *ReturnPeriodModel) ToDomain() *gst.ReturnPeriod {
	return &gst.ReturnPeriod{
		TenantAggregateRoot: m.tenantRoot(),
		PeriodStart:         m.PeriodStart,
		PeriodEnd:           m.PeriodEnd,
		Status:              m.Status,
		Boxes:               m.Boxes,
		FiledAt:             m.FiledAt,
		FiledBy:             m.FiledBy,
		FilingReference:     m.FilingReference,
		StaleSinceFiling:    m.StaleSinceFiling,
		AmendsPeriodID:      m.AmendsPeriodID,
	}
}

// FromDomain populates the persistence model from a domain ReturnPeriod entity.
func (m *ReturnPeriodModel) FromDomain(r *gst.ReturnPeriod) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.PeriodStart = r.PeriodStart
	m.PeriodEnd = r.PeriodEnd
	m.Status = r.Status
	m.Boxes = r.Boxes
	m.FiledAt = r.FiledAt
	m.FiledBy = r.FiledBy
	m.FilingReference = r.FilingReference
	m.StaleSinceFiling = r.StaleSinceFiling
	m.AmendsPeriodID = r.AmendsPeriodID
}

// ReturnPeriodModelFromDomain creates a new persistence model from a domain ReturnPeriod.
func ReturnPeriodModelFromDomain(r *gst.ReturnPeriod) *ReturnPeriodModel {
	m := &ReturnPeriodModel{}
	m.FromDomain(r)
	return m
}
