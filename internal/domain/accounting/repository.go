package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
)

// AccountRepository defines persistence for the chart of accounts
type AccountRepository interface {
	// FindByIDForTenant finds an account by ID for a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)

	// SnapshotForTenant loads the full chart of accounts for a tenant,
	// for building a ChartSnapshot
	SnapshotForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *Account) error
}

// JournalEntryRepository defines persistence for journal entries. The
// store is append-only: there is no update or delete, and
// implementations must reject any attempt to save an entry whose ID
// already exists.
type JournalEntryRepository interface {
	// FindByIDForTenant finds a journal entry by ID for a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)

	// FindBySource returns the entries produced by a source document,
	// ordered by creation time
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]*JournalEntry, error)

	// FindByDateRange returns entries with an entry date inside
	// [start, end], paginated
	FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) (*shared.Paginated[*JournalEntry], error)

	// Append persists a new entry together with its audit record in
	// one transaction. Returns ErrAlreadyExists if an entry with the
	// same ID or entry number was already appended.
	Append(ctx context.Context, entry *JournalEntry, audit *AuditRecord) error

	// NextEntryNumber atomically reserves the next entry number for a
	// tenant, e.g. "JE-2026-000042"
	NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error)
}

// AuditRecordRepository defines persistence for the audit trail. Like
// the journal it is append-only; nothing updates or deletes a record.
type AuditRecordRepository interface {
	// Append persists a new audit record
	Append(ctx context.Context, record *AuditRecord) error

	// FindByEntity returns the trail for one entity, oldest first
	FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*AuditRecord, error)

	// FindByTimeRange returns records recorded inside [start, end],
	// paginated, oldest first
	FindByTimeRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) (*shared.Paginated[*AuditRecord], error)

	// FindByActor returns records for one actor inside [start, end]
	FindByActor(ctx context.Context, tenantID uuid.UUID, actor string, start, end time.Time) ([]*AuditRecord, error)
}
