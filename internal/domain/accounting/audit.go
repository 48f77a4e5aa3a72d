package accounting

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
)

// AuditAction represents the kind of change an audit record captures
type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionTransition AuditAction = "TRANSITION"
	AuditActionPost       AuditAction = "POST"
	AuditActionFile       AuditAction = "FILE"
)

// IsValid checks if the action is a valid AuditAction
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionTransition, AuditActionPost, AuditActionFile:
		return true
	}
	return false
}

// String returns the string representation of AuditAction
func (a AuditAction) String() string {
	return string(a)
}

// AuditRecord captures one state-changing action as an append-only
// fact: who, what, when, and the before/after snapshots. Records carry
// no version field because they are never updated; absence of a record
// for a change is a defect in the writer, not in the trail.
type AuditRecord struct {
	shared.BaseEntity
	TenantID   uuid.UUID       `json:"tenant_id"`
	Actor      string          `json:"actor"`
	Action     AuditAction     `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewAuditRecord creates an append-only audit record. Before may be
// nil for creation actions; after may be nil when the action left no
// new state to snapshot.
func NewAuditRecord(
	tenantID uuid.UUID,
	actor string,
	action AuditAction,
	entityType string,
	entityID uuid.UUID,
	before, after json.RawMessage,
) (*AuditRecord, error) {
	if actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Audit actor cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTION", "Audit action is not valid")
	}
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Audit entity type cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY_ID", "Audit entity ID cannot be empty")
	}
	return &AuditRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		RecordedAt: time.Now(),
	}, nil
}

// WithReason attaches a human-supplied reason, e.g. for voids
func (r *AuditRecord) WithReason(reason string) *AuditRecord {
	r.Reason = reason
	return r
}

// SnapshotOf marshals an entity state for use as a Before/After image.
// Marshal failures surface as errors; the trail never stores a silently
// truncated snapshot.
func SnapshotOf(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, shared.NewDomainError("SNAPSHOT_FAILED", "Could not snapshot entity state: "+err.Error())
	}
	return data, nil
}
