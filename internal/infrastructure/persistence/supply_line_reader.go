package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/invoicing"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSupplyLineReader reads posted document lines for period
// aggregation. A single SELECT serves each call, so the result is one
// consistent snapshot of the posted documents.
type GormSupplyLineReader struct {
	db *gorm.DB
}

// NewGormSupplyLineReader creates a new GormSupplyLineReader
func NewGormSupplyLineReader(db *gorm.DB) *GormSupplyLineReader {
	return &GormSupplyLineReader{db: db}
}

// SupplyLinesInRange returns the authoritative line-level tax data for
// documents whose tax point falls inside [start, end]
func (r *GormSupplyLineReader) SupplyLinesInRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]gst.SupplyLine, error) {
	var docModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind <> ? AND status IN ? AND tax_point >= ? AND tax_point <= ?",
			tenantID, invoicing.KindQuote, postedStatuses, start, end).
		Order("tax_point ASC, number ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}

	var lines []gst.SupplyLine
	for i := range docModels {
		doc := docModels[i].ToDomain()
		lines = append(lines, doc.SupplyLines()...)
	}
	return lines, nil
}

var _ gst.SupplyLineReader = (*GormSupplyLineReader)(nil)
