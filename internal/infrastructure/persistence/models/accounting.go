package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	TenantAggregateModel
	Code     string                 `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name     string                 `gorm:"type:varchar(200);not null"`
	Type     accounting.AccountType `gorm:"type:varchar(20);not null;index"`
	IsActive bool                   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *accounting.Account {
	return &accounting.Account{
		TenantAggregateRoot: m.tenantRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                m.Type,
		IsActive:            m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *accounting.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type
	m.IsActive = a.IsActive
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *accounting.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// JournalEntryModel is the persistence model for the JournalEntry
// aggregate root. Entries are append-only: the repository never
// updates a stored row.
type JournalEntryModel struct {
	TenantAggregateModel
	EntryNumber     string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_entry_tenant_number,priority:2"`
	EntryType       accounting.EntryType    `gorm:"type:varchar(20);not null;default:'STANDARD'"`
	EntryDate       time.Time               `gorm:"not null;index"`
	Currency        string                  `gorm:"type:varchar(3);not null"`
	Narration       string                  `gorm:"type:text"`
	SourceType      string                  `gorm:"type:varchar(30);index:idx_entry_source"`
	SourceID        *uuid.UUID              `gorm:"type:uuid;index:idx_entry_source"`
	ReversesEntryID *uuid.UUID              `gorm:"type:uuid;index"`
	Lines           accounting.JournalLines `gorm:"type:jsonb;not null;default:'[]'"`
	TotalDebit      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TotalCredit     decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry entity.
func (m *JournalEntryModel) ToDomain() *accounting.JournalEntry {
	return &accounting.JournalEntry{
		TenantAggregateRoot: m.tenantRoot(),
		EntryNumber:         m.EntryNumber,
		EntryType:           m.EntryType,
		EntryDate:           m.EntryDate,
		Currency:            valueobject.Currency(m.Currency),
		Narration:           m.Narration,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		ReversesEntryID:     m.ReversesEntryID,
		Lines:               m.Lines,
		TotalDebit:          m.TotalDebit,
		TotalCredit:         m.TotalCredit,
	}
}

// FromDomain populates the persistence model from a domain JournalEntry entity.
func (m *JournalEntryModel) FromDomain(e *accounting.JournalEntry) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.EntryNumber = e.EntryNumber
	m.EntryType = e.EntryType
	m.EntryDate = e.EntryDate
	m.Currency = string(e.Currency)
	m.Narration = e.Narration
	m.SourceType = e.SourceType
	m.SourceID = e.SourceID
	m.ReversesEntryID = e.ReversesEntryID
	m.Lines = e.Lines
	m.TotalDebit = e.TotalDebit
	m.TotalCredit = e.TotalCredit
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(e *accounting.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{}
	m.FromDomain(e)
	return m
}

// AuditRecordModel is the persistence model for AuditRecord. Records
// are strictly append-only and carry no version column.
type AuditRecordModel struct {
	BaseModel
	TenantID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	Actor      string                 `gorm:"type:varchar(200);not null;index"`
	Action     accounting.AuditAction `gorm:"type:varchar(20);not null"`
	EntityType string                 `gorm:"type:varchar(50);not null;index:idx_audit_entity"`
	EntityID   uuid.UUID              `gorm:"type:uuid;not null;index:idx_audit_entity"`
	Before     json.RawMessage        `gorm:"type:jsonb"`
	After      json.RawMessage        `gorm:"type:jsonb"`
	Reason     string                 `gorm:"type:varchar(500)"`
	RecordedAt time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditRecordModel) TableName() string {
	return "audit_records"
}

// ToDomain converts the persistence model to a domain AuditRecord entity.
func (m *AuditRecordModel) ToDomain() *accounting.AuditRecord {
	return &accounting.AuditRecord{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Actor:      m.Actor,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Before:     m.Before,
		After:      m.After,
		Reason:     m.Reason,
		RecordedAt: m.RecordedAt,
	}
}

// FromDomain populates the persistence model from a domain AuditRecord entity.
func (m *AuditRecordModel) FromDomain(r *accounting.AuditRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.Actor = r.Actor
	m.Action = r.Action
	m.EntityType = r.EntityType
	m.EntityID = r.EntityID
	m.Before = r.Before
	m.After = r.After
	m.Reason = r.Reason
	m.RecordedAt = r.RecordedAt
}

// AuditRecordModelFromDomain creates a new persistence model from a domain AuditRecord.
func AuditRecordModelFromDomain(r *accounting.AuditRecord) *AuditRecordModel {
	m := &AuditRecordModel{}
	m.FromDomain(r)
	return m
}
