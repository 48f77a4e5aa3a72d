package gst

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
)

// ReturnPeriodFiledEvent is raised when a return period is filed and
// its box values are frozen
type ReturnPeriodFiledEvent struct {
	shared.BaseDomainEvent
	PeriodID        uuid.UUID `json:"period_id"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	FiledBy         string    `json:"filed_by"`
	FilingReference string    `json:"filing_reference,omitempty"`
	Boxes           BoxSet    `json:"boxes"`
}

// EventType returns the event type name
func (e *ReturnPeriodFiledEvent) EventType() string {
	return "ReturnPeriodFiled"
}

// NewReturnPeriodFiledEvent creates a new ReturnPeriodFiledEvent
func NewReturnPeriodFiledEvent(r *ReturnPeriod) *ReturnPeriodFiledEvent {
	return &ReturnPeriodFiledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReturnPeriodFiled", "ReturnPeriod", r.ID, r.TenantID),
		PeriodID:        r.ID,
		PeriodStart:     r.PeriodStart,
		PeriodEnd:       r.PeriodEnd,
		FiledBy:         r.FiledBy,
		FilingReference: r.FilingReference,
		Boxes:           r.Boxes,
	}
}
