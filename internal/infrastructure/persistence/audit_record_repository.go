package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRecordRepository implements AuditRecordRepository using
// GORM. Append-only, same as the journal.
type GormAuditRecordRepository struct {
	db *gorm.DB
}

// NewGormAuditRecordRepository creates a new GormAuditRecordRepository
func NewGormAuditRecordRepository(db *gorm.DB) *GormAuditRecordRepository {
	return &GormAuditRecordRepository{db: db}
}

// Append persists a new audit record
func (r *GormAuditRecordRepository) Append(ctx context.Context, record *accounting.AuditRecord) error {
	model := models.AuditRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByEntity returns the trail for one entity, oldest first
func (r *GormAuditRecordRepository) FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*accounting.AuditRecord, error) {
	var recordModels []models.AuditRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("recorded_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return auditRecordsToDomain(recordModels), nil
}

// FindByTimeRange returns records recorded inside [start, end], paginated, oldest first
func (r *GormAuditRecordRepository) FindByTimeRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) (*shared.Paginated[*accounting.AuditRecord], error) {
	query := r.db.WithContext(ctx).
		Model(&models.AuditRecordModel{}).
		Where("tenant_id = ? AND recorded_at >= ? AND recorded_at <= ?", tenantID, start, end)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	filter = normalizeFilter(filter)

	var recordModels []models.AuditRecordModel
	if err := query.
		Order("recorded_at ASC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(auditRecordsToDomain(recordModels), total, filter.Page, filter.PageSize)
	return &result, nil
}

// FindByActor returns records for one actor inside [start, end]
func (r *GormAuditRecordRepository) FindByActor(ctx context.Context, tenantID uuid.UUID, actor string, start, end time.Time) ([]*accounting.AuditRecord, error) {
	var recordModels []models.AuditRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND actor = ? AND recorded_at >= ? AND recorded_at <= ?", tenantID, actor, start, end).
		Order("recorded_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return auditRecordsToDomain(recordModels), nil
}

func auditRecordsToDomain(recordModels []models.AuditRecordModel) []*accounting.AuditRecord {
	records := make([]*accounting.AuditRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records
}

var _ accounting.AuditRecordRepository = (*GormAuditRecordRepository)(nil)
