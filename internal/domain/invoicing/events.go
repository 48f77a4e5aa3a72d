package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
)

// DocumentCreatedEvent is raised when a new draft document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID    `json:"document_id"`
	Kind       DocumentKind `json:"kind"`
	Number     string       `json:"number"`
}

// EventType returns the event type name
func (e *DocumentCreatedEvent) EventType() string {
	return "DocumentCreated"
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentCreated", "Document", d.ID, d.TenantID),
		DocumentID:      d.ID,
		Kind:            d.Kind,
		Number:          d.Number,
	}
}

// DocumentApprovedEvent is raised when a document is approved and its
// totals frozen
type DocumentApprovedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID         `json:"document_id"`
	Kind           DocumentKind      `json:"kind"`
	Number         string            `json:"number"`
	TaxPoint       time.Time         `json:"tax_point"`
	NetTotal       valueobject.Money `json:"net_total"`
	TaxTotal       valueobject.Money `json:"tax_total"`
	GrossTotal     valueobject.Money `json:"gross_total"`
	JournalEntryID *uuid.UUID        `json:"journal_entry_id,omitempty"`
}

// EventType returns the event type name
func (e *DocumentApprovedEvent) EventType() string {
	return "DocumentApproved"
}

// NewDocumentApprovedEvent creates a new DocumentApprovedEvent
func NewDocumentApprovedEvent(d *Document) *DocumentApprovedEvent {
	return &DocumentApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentApproved", "Document", d.ID, d.TenantID),
		DocumentID:      d.ID,
		Kind:            d.Kind,
		Number:          d.Number,
		TaxPoint:        d.TaxPoint,
		NetTotal:        d.NetTotal,
		TaxTotal:        d.TaxTotal,
		GrossTotal:      d.GrossTotal,
		JournalEntryID:  d.JournalEntryID,
	}
}

// DocumentSettledEvent is raised on every settlement, partial or full
type DocumentSettledEvent struct {
	shared.BaseDomainEvent
	DocumentID    uuid.UUID         `json:"document_id"`
	Number        string            `json:"number"`
	Amount        valueobject.Money `json:"amount"`
	SettledAmount valueobject.Money `json:"settled_amount"`
	Status        DocumentStatus    `json:"status"`
}

// EventType returns the event type name
func (e *DocumentSettledEvent) EventType() string {
	return "DocumentSettled"
}

// NewDocumentSettledEvent creates a new DocumentSettledEvent
func NewDocumentSettledEvent(d *Document, amount valueobject.Money) *DocumentSettledEvent {
	return &DocumentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentSettled", "Document", d.ID, d.TenantID),
		DocumentID:      d.ID,
		Number:          d.Number,
		Amount:          amount,
		SettledAmount:   d.SettledAmount,
		Status:          d.Status,
	}
}

// DocumentVoidedEvent is raised when an approved document is voided
type DocumentVoidedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID    `json:"document_id"`
	Kind       DocumentKind `json:"kind"`
	Number     string       `json:"number"`
	Reason     string       `json:"reason"`
}

// EventType returns the event type name
func (e *DocumentVoidedEvent) EventType() string {
	return "DocumentVoided"
}

// NewDocumentVoidedEvent creates a new DocumentVoidedEvent
func NewDocumentVoidedEvent(d *Document, reason string) *DocumentVoidedEvent {
	return &DocumentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DocumentVoided", "Document", d.ID, d.TenantID),
		DocumentID:      d.ID,
		Kind:            d.Kind,
		Number:          d.Number,
		Reason:          reason,
	}
}

// QuoteConvertedEvent is raised when a quote becomes an invoice
type QuoteConvertedEvent struct {
	shared.BaseDomainEvent
	QuoteID   uuid.UUID `json:"quote_id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	Number    string    `json:"number"`
}

// EventType returns the event type name
func (e *QuoteConvertedEvent) EventType() string {
	return "QuoteConverted"
}

// NewQuoteConvertedEvent creates a new QuoteConvertedEvent
func NewQuoteConvertedEvent(d *Document, invoiceID uuid.UUID) *QuoteConvertedEvent {
	return &QuoteConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("QuoteConverted", "Document", d.ID, d.TenantID),
		QuoteID:         d.ID,
		InvoiceID:       invoiceID,
		Number:          d.Number,
	}
}
