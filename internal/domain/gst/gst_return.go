package gst

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReturnStatus represents the filing status of a return period
type ReturnStatus string

const (
	ReturnStatusDraft ReturnStatus = "DRAFT"
	ReturnStatusFiled ReturnStatus = "FILED"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	return s == ReturnStatusDraft || s == ReturnStatusFiled
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// BoxSet is the named box structure of a periodic tax return. Derived
// boxes (total supplies, net tax) are computed, never set directly.
type BoxSet struct {
	StandardRatedSupplies decimal.Decimal `json:"standard_rated_supplies"`
	ZeroRatedSupplies     decimal.Decimal `json:"zero_rated_supplies"`
	ExemptSupplies        decimal.Decimal `json:"exempt_supplies"`
	TotalSupplies         decimal.Decimal `json:"total_supplies"`
	TaxablePurchases      decimal.Decimal `json:"taxable_purchases"`
	OutputTax             decimal.Decimal `json:"output_tax"`
	InputTaxClaimable     decimal.Decimal `json:"input_tax_claimable"`
	NetTax                decimal.Decimal `json:"net_tax"` // output - input; negative means refundable
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (b BoxSet) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (b *BoxSet) Scan(value interface{}) error {
	if value == nil {
		*b = ZeroBoxSet()
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into BoxSet", value)
	}
	return json.Unmarshal(bytes, b)
}

// ZeroBoxSet returns a box set with every box at zero
func ZeroBoxSet() BoxSet {
	z := decimal.Zero
	return BoxSet{
		StandardRatedSupplies: z,
		ZeroRatedSupplies:     z,
		ExemptSupplies:        z,
		TotalSupplies:         z,
		TaxablePurchases:      z,
		OutputTax:             z,
		InputTaxClaimable:     z,
		NetTax:                z,
	}
}

// Equal reports whether two box sets hold identical values
func (b BoxSet) Equal(other BoxSet) bool {
	return b.StandardRatedSupplies.Equal(other.StandardRatedSupplies) &&
		b.ZeroRatedSupplies.Equal(other.ZeroRatedSupplies) &&
		b.ExemptSupplies.Equal(other.ExemptSupplies) &&
		b.TotalSupplies.Equal(other.TotalSupplies) &&
		b.TaxablePurchases.Equal(other.TaxablePurchases) &&
		b.OutputTax.Equal(other.OutputTax) &&
		b.InputTaxClaimable.Equal(other.InputTaxClaimable) &&
		b.NetTax.Equal(other.NetTax)
}

// SupplyLine is one posted, approved document line as seen by the
// aggregation: its tax classification and the authoritative line-level
// net and tax amounts. Sign is already folded in (credit notes carry
// negative amounts).
type SupplyLine struct {
	TaxClass         TaxClass
	ExcludedFromBase bool
	Net              decimal.Decimal
	Tax              decimal.Decimal
}

// AggregateBoxes sorts supply lines into the return box structure.
// Excluded-from-base amounts are not part of any supplies box; they
// are outside the taxable base entirely rather than taxed at 0%.
func AggregateBoxes(lines []SupplyLine) BoxSet {
	boxes := ZeroBoxSet()
	for _, l := range lines {
		if l.ExcludedFromBase {
			continue
		}
		switch l.TaxClass {
		case ClassStandardRated:
			boxes.StandardRatedSupplies = boxes.StandardRatedSupplies.Add(l.Net)
			boxes.OutputTax = boxes.OutputTax.Add(l.Tax)
		case ClassZeroRated:
			boxes.ZeroRatedSupplies = boxes.ZeroRatedSupplies.Add(l.Net)
		case ClassExempt:
			boxes.ExemptSupplies = boxes.ExemptSupplies.Add(l.Net)
		case ClassPurchase:
			boxes.TaxablePurchases = boxes.TaxablePurchases.Add(l.Net)
			boxes.InputTaxClaimable = boxes.InputTaxClaimable.Add(l.Tax)
		case ClassOutOfScope:
			// outside the return entirely
		}
	}
	boxes.TotalSupplies = boxes.StandardRatedSupplies.
		Add(boxes.ZeroRatedSupplies).
		Add(boxes.ExemptSupplies)
	boxes.NetTax = boxes.OutputTax.Sub(boxes.InputTaxClaimable)
	return boxes
}

// ReturnPeriod is a filing period aggregate. While DRAFT its boxes may
// be regenerated from posted data at will; once FILED the stored box
// values are the ones reported and are never mutated again. Later
// postings into a filed range flag the period stale instead.
type ReturnPeriod struct {
	shared.TenantAggregateRoot
	PeriodStart      time.Time    `json:"period_start"`
	PeriodEnd        time.Time    `json:"period_end"`
	Status           ReturnStatus `json:"status"`
	Boxes            BoxSet       `json:"boxes"`
	FiledAt          *time.Time   `json:"filed_at,omitempty"`
	FiledBy          string       `json:"filed_by,omitempty"`
	FilingReference  string       `json:"filing_reference,omitempty"`
	StaleSinceFiling bool         `json:"stale_since_filing"`
	AmendsPeriodID   *uuid.UUID   `json:"amends_period_id,omitempty"`
}

// NewReturnPeriod creates a new DRAFT return period
func NewReturnPeriod(tenantID uuid.UUID, start, end time.Time) (*ReturnPeriod, error) {
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot precede period start")
	}
	return &ReturnPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PeriodStart:         start,
		PeriodEnd:           end,
		Status:              ReturnStatusDraft,
		Boxes:               ZeroBoxSet(),
	}, nil
}

// Contains reports whether the given tax point falls inside the period
func (r *ReturnPeriod) Contains(taxPoint time.Time) bool {
	return !taxPoint.Before(r.PeriodStart) && !taxPoint.After(r.PeriodEnd)
}

// SetBoxes stores regenerated box values. Only permitted while DRAFT.
func (r *ReturnPeriod) SetBoxes(boxes BoxSet) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewInvariantError("PERIOD_FILED", fmt.Sprintf("Cannot regenerate boxes for period in %s status", r.Status))
	}
	r.Boxes = boxes
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// File freezes the period's box values and marks it filed
func (r *ReturnPeriod) File(actor, filingReference string) error {
	if r.Status != ReturnStatusDraft {
		return shared.NewInvariantError("PERIOD_FILED", "Period has already been filed")
	}
	if actor == "" {
		return shared.NewDomainError("INVALID_ACTOR", "Filing actor is required")
	}
	now := time.Now()
	r.Status = ReturnStatusFiled
	r.FiledAt = &now
	r.FiledBy = actor
	r.FilingReference = filingReference
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewReturnPeriodFiledEvent(r))
	return nil
}

// MarkStale flags a filed period whose underlying range has since
// received new postings. The stored boxes stay untouched; the flag
// surfaces the divergence instead of silently absorbing it.
func (r *ReturnPeriod) MarkStale() error {
	if r.Status != ReturnStatusFiled {
		return shared.NewInvariantError("PERIOD_NOT_FILED", "Only a filed period can become stale")
	}
	if r.StaleSinceFiling {
		return nil
	}
	r.StaleSinceFiling = true
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// Amend creates a new DRAFT period over the same range, linked back to
// this filed period. Amendments never mutate the filed values.
func (r *ReturnPeriod) Amend() (*ReturnPeriod, error) {
	if r.Status != ReturnStatusFiled {
		return nil, shared.NewInvariantError("PERIOD_NOT_FILED", "Only a filed period can be amended")
	}
	amendment, err := NewReturnPeriod(r.TenantID, r.PeriodStart, r.PeriodEnd)
	if err != nil {
		return nil, err
	}
	id := r.ID
	amendment.AmendsPeriodID = &id
	return amendment, nil
}
