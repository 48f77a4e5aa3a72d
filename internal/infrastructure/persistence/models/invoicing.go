package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/invoicing"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
)

// DocumentModel is the persistence model for the Document aggregate root.
type DocumentModel struct {
	TenantAggregateModel
	Kind            invoicing.DocumentKind    `gorm:"type:varchar(20);not null;index"`
	Number          string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_document_tenant_number,priority:2"`
	Status          invoicing.DocumentStatus  `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ContactID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Contact         invoicing.ContactSnapshot `gorm:"type:jsonb;default:'{}'"`
	Currency        string                    `gorm:"type:varchar(3);not null"`
	IssueDate       time.Time                 `gorm:"not null;index"`
	DueDate         time.Time                 `gorm:"not null"`
	TaxPoint        time.Time                 `gorm:"not null;index"`
	Reference       string                    `gorm:"type:varchar(100)"`
	Lines           invoicing.DocumentLines   `gorm:"type:jsonb;not null;default:'[]'"`
	NetTotal        valueobject.Money         `gorm:"type:decimal(18,4);not null"`
	TaxTotal        valueobject.Money         `gorm:"type:decimal(18,4);not null"`
	ExcludedTotal   valueobject.Money         `gorm:"type:decimal(18,4);not null"`
	GrossTotal      valueobject.Money         `gorm:"type:decimal(18,4);not null"`
	SettledAmount   valueobject.Money         `gorm:"type:decimal(18,4);not null"`
	JournalEntryID  *uuid.UUID                `gorm:"type:uuid;index"`
	VoidReason      string                    `gorm:"type:varchar(500)"`
	ApprovedAt      *time.Time
	SentAt          *time.Time
	ConvertedFromID *uuid.UUID `gorm:"type:uuid"`
	ConvertedToID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document entity.
func (m *DocumentModel) ToDomain() *invoicing.Document {
	return &invoicing.Document{
		TenantAggregateRoot: m.tenantRoot(),
		Kind:                m.Kind,
		Number:              m.Number,
		Status:              m.Status,
		ContactID:           m.ContactID,
		Contact:             m.Contact,
		Currency:            valueobject.Currency(m.Currency),
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		TaxPoint:            m.TaxPoint,
		Reference:           m.Reference,
		Lines:               m.Lines,
		NetTotal:            m.NetTotal,
		TaxTotal:            m.TaxTotal,
		ExcludedTotal:       m.ExcludedTotal,
		GrossTotal:          m.GrossTotal,
		SettledAmount:       m.SettledAmount,
		JournalEntryID:      m.JournalEntryID,
		VoidReason:          m.VoidReason,
		ApprovedAt:          m.ApprovedAt,
		SentAt:              m.SentAt,
		ConvertedFromID:     m.ConvertedFromID,
		ConvertedToID:       m.ConvertedToID,
	}
}

// FromDomain populates the persistence model from a domain Document entity.
func (m *DocumentModel) FromDomain(d *invoicing.Document) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.Kind = d.Kind
	m.Number = d.Number
	m.Status = d.Status
	m.ContactID = d.ContactID
	m.Contact = d.Contact
	m.Currency = string(d.Currency)
	m.IssueDate = d.IssueDate
	m.DueDate = d.DueDate
	m.TaxPoint = d.TaxPoint
	m.Reference = d.Reference
	m.Lines = d.Lines
	m.NetTotal = d.NetTotal
	m.TaxTotal = d.TaxTotal
	m.ExcludedTotal = d.ExcludedTotal
	m.GrossTotal = d.GrossTotal
	m.SettledAmount = d.SettledAmount
	m.JournalEntryID = d.JournalEntryID
	m.VoidReason = d.VoidReason
	m.ApprovedAt = d.ApprovedAt
	m.SentAt = d.SentAt
	m.ConvertedFromID = d.ConvertedFromID
	m.ConvertedToID = d.ConvertedToID
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(d *invoicing.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}
