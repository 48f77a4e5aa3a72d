package gst

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
)

// TaxCodeRepository defines persistence for tax code versions
type TaxCodeRepository interface {
	// FindByIDForTenant finds a tax code version by ID for a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TaxCode, error)

	// FindVersions returns all versions of a code for a tenant,
	// ordered by effective-from
	FindVersions(ctx context.Context, tenantID uuid.UUID, code string) ([]*TaxCode, error)

	// SnapshotForTenant loads every active tax code version for a
	// tenant, for building a RateTable
	SnapshotForTenant(ctx context.Context, tenantID uuid.UUID) ([]*TaxCode, error)

	// Save creates or updates a tax code version
	Save(ctx context.Context, code *TaxCode) error
}

// ReturnPeriodRepository defines persistence for return periods
type ReturnPeriodRepository interface {
	// FindByIDForTenant finds a return period by ID for a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ReturnPeriod, error)

	// FindOverlapping returns periods whose range overlaps [start, end]
	FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*ReturnPeriod, error)

	// FindFiledCovering returns filed periods whose range contains the
	// given tax point, used to flag stale filings after late postings
	FindFiledCovering(ctx context.Context, tenantID uuid.UUID, taxPoint time.Time) ([]*ReturnPeriod, error)

	// Save creates or updates a return period
	Save(ctx context.Context, period *ReturnPeriod) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, period *ReturnPeriod) error

	// SaveFiling saves a freshly filed period together with its audit
	// record in one transaction, with the same version check as
	// SaveWithLock
	SaveFiling(ctx context.Context, period *ReturnPeriod, audit *accounting.AuditRecord) error
}

// SupplyLineReader reads posted, approved document tax lines for
// period aggregation. Implementations must serve a consistent
// snapshot: a single aggregation call never mixes data from a
// mid-transaction approval.
type SupplyLineReader interface {
	// SupplyLinesInRange returns the authoritative line-level tax data
	// for documents whose tax point falls inside [start, end]
	SupplyLinesInRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]SupplyLine, error)
}
