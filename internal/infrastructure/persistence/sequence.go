package persistence

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextSequenceValue reserves the next value of a tenant-scoped sequence.
// The sequence row is locked for the duration of tx, so concurrent
// reservations serialize on the row and never hand out the same value.
// Must be called inside a transaction.
func nextSequenceValue(tx *gorm.DB, tenantID uuid.UUID, scope string) (int64, error) {
	var seq models.NumberSequenceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND scope = ?", tenantID, scope).
		First(&seq).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.NumberSequenceModel{
			TenantID:  tenantID,
			Scope:     scope,
			NextValue: 1,
		}
		seq.ID = uuid.New()
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to create sequence %s: %w", scope, err)
		}
	} else if err != nil {
		return 0, err
	}

	value := seq.NextValue
	if err := tx.Model(&models.NumberSequenceModel{}).
		Where("id = ?", seq.ID).
		Update("next_value", value+1).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", scope, err)
	}
	return value, nil
}
