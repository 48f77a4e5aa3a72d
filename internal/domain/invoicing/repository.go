package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared"
)

// DocumentRepository defines persistence for documents. Transitions
// that imply ledger writes go through the atomic Save* methods so
// document state, journal entry and audit record land in one
// transaction or not at all.
type DocumentRepository interface {
	// FindByIDForTenant finds a document by ID for a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindByNumber finds a document by its number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Document, error)

	// FindApprovedInRange returns posted documents whose tax point
	// falls inside [start, end], for period aggregation
	FindApprovedInRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*Document, error)

	// List returns documents for a tenant, paginated, optionally
	// filtered by kind and status (empty means any)
	List(ctx context.Context, tenantID uuid.UUID, kind DocumentKind, status DocumentStatus, filter shared.Filter) (*shared.Paginated[*Document], error)

	// Save creates or updates a draft document
	Save(ctx context.Context, doc *Document) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, doc *Document) error

	// SaveTransition persists a document transition together with its
	// journal entry (nil for non-posting transitions) and audit record
	// in a single transaction, with the document version check. A
	// version mismatch fails the whole transaction with
	// shared.ErrConcurrencyConflict.
	SaveTransition(ctx context.Context, doc *Document, entry *accounting.JournalEntry, audit *accounting.AuditRecord) error

	// SaveConversion persists a converted quote and its new draft
	// invoice atomically, with the quote version check
	SaveConversion(ctx context.Context, quote *Document, invoice *Document, audit *accounting.AuditRecord) error

	// NextDocumentNumber atomically reserves the next number for a
	// kind, e.g. "INV-2026-00042"
	NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, kind DocumentKind, year int) (string, error)
}
