package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReturnPeriodRepository implements ReturnPeriodRepository using GORM
type GormReturnPeriodRepository struct {
	db *gorm.DB
}

// NewGormReturnPeriodRepository creates a new GormReturnPeriodRepository
func NewGormReturnPeriodRepository(db *gorm.DB) *GormReturnPeriodRepository {
	return &GormReturnPeriodRepository{db: db}
}

// FindByIDForTenant finds a return period by ID within a tenant
func (r *GormReturnPeriodRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*gst.ReturnPeriod, error) {
	var model models.ReturnPeriodModel
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

// FindOverlapping returns periods whose range overlaps [start, end]
func (r *GormReturnPeriodRepository) FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*gst.ReturnPeriod, error) {
	var periodModels []models.ReturnPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_start <= ? AND period_end >= ?", tenantID, end, start).
		Order("period_start ASC").
		Find(&periodModels).Error; err != nil {
		return nil, err
	}
	return returnPeriodsToDomain(periodModels), nil
}

// FindFiledCovering returns filed periods whose range contains the
// given tax point
func (r *GormReturnPeriodRepository) FindFiledCovering(ctx context.Context, tenantID uuid.UUID, taxPoint time.Time) ([]*gst.ReturnPeriod, error) {
	var periodModels []models.ReturnPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND period_start <= ? AND period_end >= ?",
			tenantID, gst.ReturnStatusFiled, taxPoint, taxPoint).
		Order("period_start ASC").
		Find(&periodModels).Error; err != nil {
		return nil, err
	}
	return returnPeriodsToDomain(periodModels), nil
}

// Save creates or updates a return period
func (r *GormReturnPeriodRepository) Save(ctx context.Context, period *gst.ReturnPeriod) error {
	model := models.ReturnPeriodModelFromDomain(period)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormReturnPeriodRepository) SaveWithLock(ctx context.Context, period *gst.ReturnPeriod) error {
	return r.lockedUpdate(r.db.WithContext(ctx), period)
}

// SaveFiling saves a filed period and its audit record in one
// transaction, with the same version check as SaveWithLock
func (r *GormReturnPeriodRepository) SaveFiling(ctx context.Context, period *gst.ReturnPeriod, audit *accounting.AuditRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockedUpdate(tx, period); err != nil {
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

func (r *GormReturnPeriodRepository) lockedUpdate(db *gorm.DB, period *gst.ReturnPeriod) error {
	model := models.ReturnPeriodModelFromDomain(period)
	model.UpdatedAt = time.Now()

	result := db.
		Model(&models.ReturnPeriodModel{}).
		Where("id = ? AND version = ?", model.ID, period.LoadedVersion()).
		Updates(map[string]interface{}{
			"status":             model.Status,
			"boxes":              model.Boxes,
			"filed_at":           model.FiledAt,
			"filed_by":           model.FiledBy,
			"filing_reference":   model.FilingReference,
			"stale_since_filing": model.StaleSinceFiling,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func returnPeriodsToDomain(periodModels []models.ReturnPeriodModel) []*gst.ReturnPeriod {
	periods := make([]*gst.ReturnPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = periodModels[i].ToDomain()
	}
	return periods
}

var _ gst.ReturnPeriodRepository = (*GormReturnPeriodRepository)(nil)
