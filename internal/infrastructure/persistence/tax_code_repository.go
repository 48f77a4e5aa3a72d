package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTaxCodeRepository implements TaxCodeRepository using GORM
type GormTaxCodeRepository struct {
	db *gorm.DB
}

// NewGormTaxCodeRepository creates a new GormTaxCodeRepository
func NewGormTaxCodeRepository(db *gorm.DB) *GormTaxCodeRepository {
	return &GormTaxCodeRepository{db: db}
}

// FindByIDForTenant finds a tax code version by ID within a tenant
func (r *GormTaxCodeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*gst.TaxCode, error) {
	var model models.TaxCodeModel
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

// FindVersions returns all versions of a code for a tenant, ordered by effective-from
func (r *GormTaxCodeRepository) FindVersions(ctx context.Context, tenantID uuid.UUID, code string) ([]*gst.TaxCode, error) {
	var codeModels []models.TaxCodeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Order("effective_from ASC").
		Find(&codeModels).Error; err != nil {
		return nil, err
	}
	return taxCodesToDomain(codeModels), nil
}

// SnapshotForTenant loads every active tax code version for a tenant
func (r *GormTaxCodeRepository) SnapshotForTenant(ctx context.Context, tenantID uuid.UUID) ([]*gst.TaxCode, error) {
	var codeModels []models.TaxCodeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("code ASC, effective_from ASC").
		Find(&codeModels).Error; err != nil {
		return nil, err
	}
	return taxCodesToDomain(codeModels), nil
}

// Save creates or updates a tax code version
func (r *GormTaxCodeRepository) Save(ctx context.Context, code *gst.TaxCode) error {
	model := models.TaxCodeModelFromDomain(code)
	return r.db.WithContext(ctx).Save(model).Error
}

func taxCodesToDomain(codeModels []models.TaxCodeModel) []*gst.TaxCode {
	codes := make([]*gst.TaxCode, len(codeModels))
	for i := range codeModels {
		codes[i] = codeModels[i].ToDomain()
	}
	return codes
}

var _ gst.TaxCodeRepository = (*GormTaxCodeRepository)(nil)
