package gst

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxClass classifies a tax code for return aggregation. The set is
// closed: every code is exactly one of these, and the period
// aggregation sorts supplies into boxes by class, not by inspecting
// the rate.
type TaxClass string

const (
	ClassStandardRated TaxClass = "STANDARD_RATED"
	ClassZeroRated     TaxClass = "ZERO_RATED"
	ClassExempt        TaxClass = "EXEMPT"
	ClassOutOfScope    TaxClass = "OUT_OF_SCOPE"
	ClassPurchase      TaxClass = "PURCHASE" // input-tax bearing purchase code
)

// IsValid checks if the class is a valid TaxClass
func (c TaxClass) IsValid() bool {
	switch c {
	case ClassStandardRated, ClassZeroRated, ClassExempt, ClassOutOfScope, ClassPurchase:
		return true
	}
	return false
}

// String returns the string representation of TaxClass
func (c TaxClass) String() string {
	return string(c)
}

// TaxCode is an effective-dated tax code. Codes are versioned by
// effective date so historical documents keep the rate in force at
// their tax point; a rate change is a new row, never an update.
type TaxCode struct {
	shared.TenantAggregateRoot
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Class            TaxClass        `json:"class"`
	Rate             decimal.Decimal `json:"rate"` // e.g. 0.09 for 9%
	ExcludedFromBase bool            `json:"excluded_from_base"`
	BoxMapping       string          `json:"box_mapping,omitempty"`
	EffectiveFrom    time.Time       `json:"effective_from"`
	EffectiveTo      *time.Time      `json:"effective_to,omitempty"`
	IsActive         bool            `json:"is_active"`
}

// NewTaxCode creates a new tax code version
func NewTaxCode(
	tenantID uuid.UUID,
	code string,
	name string,
	class TaxClass,
	rate decimal.Decimal,
	excludedFromBase bool,
	effectiveFrom time.Time,
) (*TaxCode, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_TAX_CODE", "Tax code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TAX_CODE_NAME", "Tax code name cannot be empty")
	}
	if !class.IsValid() {
		return nil, shared.NewDomainError("INVALID_TAX_CLASS", "Tax class is not valid")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	if class != ClassStandardRated && class != ClassPurchase && !rate.IsZero() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Only standard-rated and purchase codes may carry a non-zero rate")
	}
	return &TaxCode{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Class:               class,
		Rate:                rate,
		ExcludedFromBase:    excludedFromBase,
		EffectiveFrom:       effectiveFrom,
		IsActive:            true,
	}, nil
}

// WithBoxMapping overrides the return box this code reports into.
// Most codes report by class; an override covers codes that belong to
// a different box than their class implies.
func (t *TaxCode) WithBoxMapping(box string) *TaxCode {
	t.BoxMapping = box
	return t
}

// InForceAt reports whether this version applies at the given tax point
func (t *TaxCode) InForceAt(taxPoint time.Time) bool {
	if !t.IsActive {
		return false
	}
	if taxPoint.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && taxPoint.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// Supersede closes this version at the given date. Used when a new
// version of the same code takes effect.
func (t *TaxCode) Supersede(effectiveTo time.Time) error {
	if effectiveTo.Before(t.EffectiveFrom) {
		return shared.NewDomainError("INVALID_EFFECTIVE_RANGE", "Effective-to date cannot precede effective-from")
	}
	t.EffectiveTo = &effectiveTo
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// ResolvedRate is a tax code resolved to the rate in force at a
// specific tax point. It is what the calculator consumes.
type ResolvedRate struct {
	Code             string
	Class            TaxClass
	Rate             decimal.Decimal
	ExcludedFromBase bool
}

// RateTable is an explicit, effective-dated rate lookup. It is built
// from a snapshot of tax code versions and passed into the calculator
// per call, so historical recomputation is deterministic and no
// ambient "current rate" state exists.
type RateTable struct {
	versions map[string][]*TaxCode
}

// NewRateTable builds a rate table from tax code versions
func NewRateTable(codes []*TaxCode) *RateTable {
	t := &RateTable{versions: make(map[string][]*TaxCode)}
	for _, c := range codes {
		t.versions[c.Code] = append(t.versions[c.Code], c)
	}
	for _, vs := range t.versions {
		sort.Slice(vs, func(i, j int) bool {
			return vs[i].EffectiveFrom.Before(vs[j].EffectiveFrom)
		})
	}
	return t
}

// Resolve returns the rate in force for a code at the given tax point.
// When multiple versions are in force the latest effective-from wins.
func (t *RateTable) Resolve(code string, taxPoint time.Time) (ResolvedRate, error) {
	vs, ok := t.versions[code]
	if !ok {
		return ResolvedRate{}, shared.NewDomainError("UNKNOWN_TAX_CODE", "Tax code "+code+" does not exist")
	}
	var match *TaxCode
	for _, v := range vs {
		if v.InForceAt(taxPoint) {
			match = v
		}
	}
	if match == nil {
		return ResolvedRate{}, shared.NewDomainError("NO_RATE_IN_FORCE", "No version of tax code "+code+" is in force at the tax point")
	}
	return ResolvedRate{
		Code:             match.Code,
		Class:            match.Class,
		Rate:             match.Rate,
		ExcludedFromBase: match.ExcludedFromBase,
	}, nil
}

// Codes returns the distinct codes known to the table
func (t *RateTable) Codes() []string {
	out := make([]string, 0, len(t.versions))
	for code := range t.versions {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
