package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/invoicing"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// postedStatuses are the document statuses whose journal posting
// stands. Draft documents have not posted yet; void documents carry a
// reversal; converted quotes never post.
var postedStatuses = []invoicing.DocumentStatus{
	invoicing.StatusApproved,
	invoicing.StatusSent,
	invoicing.StatusPartiallySettled,
	invoicing.StatusSettled,
}

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByIDForTenant finds a document by ID within a tenant
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Document, error) {
	var model models.DocumentModel
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

// FindByNumber finds a document by its number for a tenant
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*invoicing.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND number = ?", tenantID, number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindApprovedInRange returns posted documents whose tax point falls
// inside [start, end]
func (r *GormDocumentRepository) FindApprovedInRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*invoicing.Document, error) {
	var docModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind <> ? AND status IN ? AND tax_point >= ? AND tax_point <= ?",
			tenantID, invoicing.KindQuote, postedStatuses, start, end).
		Order("tax_point ASC, number ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	return documentsToDomain(docModels), nil
}

// List returns documents for a tenant, paginated, optionally filtered
// by kind and status (empty means any)
func (r *GormDocumentRepository) List(ctx context.Context, tenantID uuid.UUID, kind invoicing.DocumentKind, status invoicing.DocumentStatus, filter shared.Filter) (*shared.Paginated[*invoicing.Document], error) {
	query := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("tenant_id = ?", tenantID)

	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		query = query.Where("number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	filter = normalizeFilter(filter)
	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var docModels []models.DocumentModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&docModels).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(documentsToDomain(docModels), total, filter.Page, filter.PageSize)
	return &result, nil
}

// Save creates or updates a draft document
func (r *GormDocumentRepository) Save(ctx context.Context, doc *invoicing.Document) error {
	model := models.DocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *invoicing.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveDocumentWithLock(tx, doc)
	})
}

// SaveTransition persists a document transition together with its
// journal entry and audit record in a single transaction
func (r *GormDocumentRepository) SaveTransition(ctx context.Context, doc *invoicing.Document, entry *accounting.JournalEntry, audit *accounting.AuditRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveDocumentWithLock(tx, doc); err != nil {
			return err
		}
		if entry != nil {
			if err := tx.Create(models.JournalEntryModelFromDomain(entry)).Error; err != nil {
				return err
			}
		}
		if audit != nil {
			if err := tx.Create(models.AuditRecordModelFromDomain(audit)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveConversion persists a converted quote and its new draft invoice
// atomically, with the quote version check
func (r *GormDocumentRepository) SaveConversion(ctx context.Context, quote *invoicing.Document, invoice *invoicing.Document, audit *accounting.AuditRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveDocumentWithLock(tx, quote); err != nil {
			return err
		}
		if err := tx.Create(models.DocumentModelFromDomain(invoice)).Error; err != nil {
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

// NextDocumentNumber atomically reserves the next number for a kind,
// e.g. "INV-2026-00042"
func (r *GormDocumentRepository) NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, kind invoicing.DocumentKind, year int) (string, error) {
	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prefix := kind.SequencePrefix()
		scope := fmt.Sprintf("%s-%d", prefix, year)
		value, err := nextSequenceValue(tx, tenantID, scope)
		if err != nil {
			return err
		}
		number = fmt.Sprintf("%s-%d-%05d", prefix, year, value)
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// saveDocumentWithLock updates the mutable document columns with the
// version check. RowsAffected zero means the row moved on under us.
func saveDocumentWithLock(tx *gorm.DB, doc *invoicing.Document) error {
	model := models.DocumentModelFromDomain(doc)
	model.UpdatedAt = time.Now()

	result := tx.Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", model.ID, doc.LoadedVersion()).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"contact_id":        model.ContactID,
			"contact":           model.Contact,
			"issue_date":        model.IssueDate,
			"due_date":          model.DueDate,
			"tax_point":         model.TaxPoint,
			"reference":         model.Reference,
			"lines":             model.Lines,
			"net_total":         model.NetTotal,
			"tax_total":         model.TaxTotal,
			"excluded_total":    model.ExcludedTotal,
			"gross_total":       model.GrossTotal,
			"settled_amount":    model.SettledAmount,
			"journal_entry_id":  model.JournalEntryID,
			"void_reason":       model.VoidReason,
			"approved_at":       model.ApprovedAt,
			"sent_at":           model.SentAt,
			"converted_to_id":   model.ConvertedToID,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func documentsToDomain(docModels []models.DocumentModel) []*invoicing.Document {
	docs := make([]*invoicing.Document, len(docModels))
	for i := range docModels {
		docs[i] = docModels[i].ToDomain()
	}
	return docs
}

var _ invoicing.DocumentRepository = (*GormDocumentRepository)(nil)
