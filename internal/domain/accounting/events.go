package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// JournalEntryPostedEvent is raised when a balanced entry is created
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryID         uuid.UUID       `json:"entry_id"`
	EntryNumber     string          `json:"entry_number"`
	EntryType       EntryType       `json:"entry_type"`
	EntryDate       time.Time       `json:"entry_date"`
	SourceType      string          `json:"source_type,omitempty"`
	SourceID        *uuid.UUID      `json:"source_id,omitempty"`
	ReversesEntryID *uuid.UUID      `json:"reverses_entry_id,omitempty"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
}

// EventType returns the event type name
func (e *JournalEntryPostedEvent) EventType() string {
	return "JournalEntryPosted"
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(entry *JournalEntry) *JournalEntryPostedEvent {
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalEntryPosted", "JournalEntry", entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		EntryNumber:     entry.EntryNumber,
		EntryType:       entry.EntryType,
		EntryDate:       entry.EntryDate,
		SourceType:      entry.SourceType,
		SourceID:        entry.SourceID,
		ReversesEntryID: entry.ReversesEntryID,
		TotalDebit:      entry.TotalDebit,
		TotalCredit:     entry.TotalCredit,
	}
}
