package models

import (
	"github.com/google/uuid"
)

// NumberSequenceModel backs per-tenant document and journal entry
// numbering. Each row holds the next value for one scope, e.g.
// "JE-2026" or "INV-2026". Rows are claimed with a row lock inside the
// transaction that consumes the number, so two writers never receive
// the same value.
type NumberSequenceModel struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_tenant_scope,priority:1"`
	Scope     string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_sequence_tenant_scope,priority:2"`
	NextValue int64     `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (NumberSequenceModel) TableName() string {
	return "number_sequences"
}
