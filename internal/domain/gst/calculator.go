package gst

import (
	"time"

	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// minorUnit is the tolerance for preview verification: one minor
// currency unit. A larger difference between a client-side preview and
// the engine's result is a reportable discrepancy, never silently
// overridden.
var minorUnit = decimal.RequireFromString("0.01")

// LineInput is the raw input for computing one document line
type LineInput struct {
	Quantity         decimal.Decimal
	UnitPrice        valueobject.Money
	DiscountPct      decimal.Decimal
	TaxCode          string
	ExcludedFromBase bool
}

// LineTotals is the computed result for one line. All three values are
// at the internal storage scale; net + tax == gross exactly.
type LineTotals struct {
	Net   valueobject.Money `json:"net"`
	Tax   valueobject.Money `json:"tax"`
	Gross valueobject.Money `json:"gross"`
}

// DocumentTotals aggregates line totals. They are arithmetic sums of
// the authoritative line-level results; tax is never recomputed from a
// pre-summed net, so no rounding drift can accumulate across lines.
type DocumentTotals struct {
	Net          valueobject.Money `json:"net"`
	Tax          valueobject.Money `json:"tax"`
	ExcludedBase valueobject.Money `json:"excluded_base"`
	Gross        valueobject.Money `json:"gross"`
}

// Calculator computes per-line and per-document tax under the
// fixed-point policy. It is a pure function of its inputs: the rate
// table is passed in explicitly and re-running a computation on
// unchanged inputs produces bit-identical output.
type Calculator struct{}

// NewCalculator creates a Calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// ComputeLine computes net, tax and gross for one line against a
// resolved rate. net = round4(quantity * unitPrice * (1 - discount/100))
// in a single rounding step; tax = round4(net * rate), zero when the
// code or line is excluded from the taxable base or the rate is zero;
// gross = net + tax exactly.
func (c *Calculator) ComputeLine(in LineInput, rate ResolvedRate) (LineTotals, error) {
	if err := validateLineInput(in); err != nil {
		return LineTotals{}, err
	}

	currency := in.UnitPrice.Currency()
	hundred := decimal.NewFromInt(100)

	raw := in.UnitPrice.Amount().
		Mul(in.Quantity).
		Mul(hundred.Sub(in.DiscountPct)).
		DivRound(hundred, valueobject.StorageScale)
	net, err := valueobject.NewMoney(raw, currency)
	if err != nil {
		return LineTotals{}, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	tax := valueobject.Zero(currency)
	if !in.ExcludedFromBase && !rate.ExcludedFromBase && rate.Rate.IsPositive() {
		tax = net.Multiply(rate.Rate)
	}

	gross := net.MustAdd(tax)
	return LineTotals{Net: net, Tax: tax, Gross: gross}, nil
}

// ComputeDocument resolves each line's tax code at the document's tax
// point and sums the line-level results. Line ordering is preserved in
// the returned slice; the sums are exact additions of already-rounded
// line values.
func (c *Calculator) ComputeDocument(lines []LineInput, table *RateTable, taxPoint time.Time) (DocumentTotals, []LineTotals, error) {
	if len(lines) == 0 {
		return DocumentTotals{}, nil, shared.NewDomainError("NO_LINES", "Document has no lines to compute")
	}

	currency := lines[0].UnitPrice.Currency()
	totals := DocumentTotals{
		Net:          valueobject.Zero(currency),
		Tax:          valueobject.Zero(currency),
		ExcludedBase: valueobject.Zero(currency),
		Gross:        valueobject.Zero(currency),
	}
	perLine := make([]LineTotals, 0, len(lines))

	for _, in := range lines {
		rate, err := table.Resolve(in.TaxCode, taxPoint)
		if err != nil {
			return DocumentTotals{}, nil, err
		}
		lt, err := c.ComputeLine(in, rate)
		if err != nil {
			return DocumentTotals{}, nil, err
		}
		perLine = append(perLine, lt)

		totals.Net = totals.Net.MustAdd(lt.Net)
		totals.Tax = totals.Tax.MustAdd(lt.Tax)
		totals.Gross = totals.Gross.MustAdd(lt.Gross)
		if in.ExcludedFromBase || rate.ExcludedFromBase {
			totals.ExcludedBase = totals.ExcludedBase.MustAdd(lt.Net)
		}
	}

	return totals, perLine, nil
}

// ExtractFromInclusive back-calculates net and tax from a
// tax-inclusive amount: net = round4(gross / (1 + rate)),
// tax = gross - net.
func (c *Calculator) ExtractFromInclusive(gross valueobject.Money, rate decimal.Decimal) (LineTotals, error) {
	if rate.IsNegative() {
		return LineTotals{}, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	if rate.IsZero() {
		return LineTotals{Net: gross, Tax: valueobject.Zero(gross.Currency()), Gross: gross}, nil
	}
	net, err := gross.Divide(decimal.NewFromInt(1).Add(rate))
	if err != nil {
		return LineTotals{}, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}
	tax := gross.MustSubtract(net)
	return LineTotals{Net: net, Tax: tax, Gross: gross}, nil
}

// PreviewDiscrepancy describes a mismatch between a client-side
// preview and the engine's computed totals beyond the allowed
// tolerance.
type PreviewDiscrepancy struct {
	Field    string            `json:"field"`
	Computed valueobject.Money `json:"computed"`
	Preview  valueobject.Money `json:"preview"`
}

// VerifyPreview compares computed totals against a caller-supplied
// preview. Differences within one minor currency unit are accepted;
// anything larger is returned as a discrepancy for the caller to
// report.
func (c *Calculator) VerifyPreview(computed, preview LineTotals) []PreviewDiscrepancy {
	var out []PreviewDiscrepancy
	check := func(field string, a, b valueobject.Money) {
		if a.Currency() != b.Currency() {
			out = append(out, PreviewDiscrepancy{Field: field, Computed: a, Preview: b})
			return
		}
		diff := a.Amount().Sub(b.Amount()).Abs()
		if diff.GreaterThan(minorUnit) {
			out = append(out, PreviewDiscrepancy{Field: field, Computed: a, Preview: b})
		}
	}
	check("net", computed.Net, preview.Net)
	check("tax", computed.Tax, preview.Tax)
	check("gross", computed.Gross, preview.Gross)
	return out
}

func validateLineInput(in LineInput) error {
	if !in.Quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	hundred := decimal.NewFromInt(100)
	if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount percentage must be between 0 and 100")
	}
	if in.TaxCode == "" {
		return shared.NewDomainError("INVALID_TAX_CODE", "Tax code cannot be empty")
	}
	return nil
}
