package accounting

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditRecord(t *testing.T) {
	tenantID := uuid.New()
	entityID := uuid.New()

	t.Run("captures actor, action and snapshots", func(t *testing.T) {
		before, err := SnapshotOf(map[string]string{"status": "DRAFT"})
		require.NoError(t, err)
		after, err := SnapshotOf(map[string]string{"status": "APPROVED"})
		require.NoError(t, err)

		record, err := NewAuditRecord(tenantID, "alice@example.com", AuditActionTransition, "Document", entityID, before, after)
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", record.Actor)
		assert.Equal(t, AuditActionTransition, record.Action)
		assert.Equal(t, "Document", record.EntityType)
		assert.Equal(t, entityID, record.EntityID)
		assert.False(t, record.RecordedAt.IsZero())
		assert.JSONEq(t, `{"status":"DRAFT"}`, string(record.Before))
		assert.JSONEq(t, `{"status":"APPROVED"}`, string(record.After))
	})

	t.Run("creation actions need no before image", func(t *testing.T) {
		after, err := SnapshotOf(map[string]string{"status": "DRAFT"})
		require.NoError(t, err)

		record, err := NewAuditRecord(tenantID, "alice@example.com", AuditActionCreate, "Document", entityID, nil, after)
		require.NoError(t, err)
		assert.Nil(t, record.Before)
	})

	t.Run("void records carry a reason", func(t *testing.T) {
		record, err := NewAuditRecord(tenantID, "alice@example.com", AuditActionTransition, "Document", entityID, nil, nil)
		require.NoError(t, err)
		record.WithReason("Customer cancelled order")
		assert.Equal(t, "Customer cancelled order", record.Reason)
	})

	t.Run("rejects missing identity fields", func(t *testing.T) {
		_, err := NewAuditRecord(tenantID, "", AuditActionCreate, "Document", entityID, nil, nil)
		assert.Error(t, err)
		_, err = NewAuditRecord(tenantID, "alice@example.com", AuditAction("BOGUS"), "Document", entityID, nil, nil)
		assert.Error(t, err)
		_, err = NewAuditRecord(tenantID, "alice@example.com", AuditActionCreate, "", entityID, nil, nil)
		assert.Error(t, err)
		_, err = NewAuditRecord(tenantID, "alice@example.com", AuditActionCreate, "Document", uuid.Nil, nil, nil)
		assert.Error(t, err)
	})
}

func TestSnapshotOf(t *testing.T) {
	t.Run("nil state yields no snapshot", func(t *testing.T) {
		snap, err := SnapshotOf(nil)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("unmarshalable state errors", func(t *testing.T) {
		_, err := SnapshotOf(make(chan int))
		assert.Error(t, err)
	})

	t.Run("snapshot is valid raw JSON", func(t *testing.T) {
		snap, err := SnapshotOf(struct {
			Code string `json:"code"`
		}{Code: "SR"})
		require.NoError(t, err)
		assert.True(t, json.Valid(snap))
	})
}
