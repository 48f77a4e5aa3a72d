package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using
// GORM. The journal is append-only: Append is the only write, and it
// refuses to touch an existing row.
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// FindByIDForTenant finds a journal entry by ID within a tenant
func (r *GormJournalEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource returns the entries produced by a source document,
// ordered by creation time
func (r *GormJournalEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]*accounting.JournalEntry, error) {
	var entryModels []models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*accounting.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// FindByDateRange returns entries with an entry date inside [start, end], paginated
func (r *GormJournalEntryRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) (*shared.Paginated[*accounting.JournalEntry], error) {
	query := r.db.WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("tenant_id = ? AND entry_date >= ? AND entry_date <= ?", tenantID, start, end)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	filter = normalizeFilter(filter)
	orderBy := ValidateSortField(filter.OrderBy, JournalEntrySortFields, "entry_date")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var entryModels []models.JournalEntryModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*accounting.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}

	result := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Append persists a new entry and its audit record in one transaction.
// Returns ErrAlreadyExists if an entry with the same ID or entry
// number was already appended.
func (r *GormJournalEntryRepository) Append(ctx context.Context, entry *accounting.JournalEntry, audit *accounting.AuditRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.JournalEntryModel{}).
			Where("id = ? OR (tenant_id = ? AND entry_number = ?)", entry.ID, entry.TenantID, entry.EntryNumber).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrAlreadyExists
		}

		if err := tx.Create(models.JournalEntryModelFromDomain(entry)).Error; err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(models.AuditRecordModelFromDomain(audit)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// NextEntryNumber atomically reserves the next entry number for a
// tenant, e.g. "JE-2026-000042"
func (r *GormJournalEntryRepository) NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error) {
	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := fmt.Sprintf("JE-%d", year)
		value, err := nextSequenceValue(tx, tenantID, scope)
		if err != nil {
			return err
		}
		number = fmt.Sprintf("JE-%d-%06d", year, value)
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

var _ accounting.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
