package gst

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregateBoxes(t *testing.T) {
	t.Run("sorts lines into boxes by class", func(t *testing.T) {
		lines := []SupplyLine{
			{TaxClass: ClassStandardRated, Net: d("1000.0000"), Tax: d("90.0000")},
			{TaxClass: ClassStandardRated, Net: d("500.0000"), Tax: d("45.0000")},
			{TaxClass: ClassZeroRated, Net: d("200.0000"), Tax: decimal.Zero},
			{TaxClass: ClassExempt, Net: d("300.0000"), Tax: decimal.Zero},
			{TaxClass: ClassPurchase, Net: d("400.0000"), Tax: d("36.0000")},
		}
		boxes := AggregateBoxes(lines)

		assert.Equal(t, "1500", boxes.StandardRatedSupplies.String())
		assert.Equal(t, "200", boxes.ZeroRatedSupplies.String())
		assert.Equal(t, "300", boxes.ExemptSupplies.String())
		assert.Equal(t, "2000", boxes.TotalSupplies.String())
		assert.Equal(t, "400", boxes.TaxablePurchases.String())
		assert.Equal(t, "135", boxes.OutputTax.String())
		assert.Equal(t, "36", boxes.InputTaxClaimable.String())
		assert.Equal(t, "99", boxes.NetTax.String())
	})

	t.Run("excluded-from-base lines appear in no box", func(t *testing.T) {
		lines := []SupplyLine{
			{TaxClass: ClassStandardRated, Net: d("100.0000"), Tax: d("9.0000")},
			{TaxClass: ClassStandardRated, ExcludedFromBase: true, Net: d("50.0000"), Tax: decimal.Zero},
		}
		boxes := AggregateBoxes(lines)
		assert.Equal(t, "100", boxes.StandardRatedSupplies.String())
		assert.Equal(t, "100", boxes.TotalSupplies.String())
	})

	t.Run("out-of-scope lines appear in no box", func(t *testing.T) {
		lines := []SupplyLine{
			{TaxClass: ClassOutOfScope, Net: d("999.0000"), Tax: decimal.Zero},
		}
		boxes := AggregateBoxes(lines)
		assert.True(t, boxes.Equal(ZeroBoxSet()))
	})

	t.Run("credit-note amounts net off as negatives", func(t *testing.T) {
		lines := []SupplyLine{
			{TaxClass: ClassStandardRated, Net: d("1000.0000"), Tax: d("90.0000")},
			{TaxClass: ClassStandardRated, Net: d("-100.0000"), Tax: d("-9.0000")},
		}
		boxes := AggregateBoxes(lines)
		assert.Equal(t, "900", boxes.StandardRatedSupplies.String())
		assert.Equal(t, "81", boxes.OutputTax.String())
	})

	t.Run("negative net tax marks a refundable position", func(t *testing.T) {
		lines := []SupplyLine{
			{TaxClass: ClassStandardRated, Net: d("100.0000"), Tax: d("9.0000")},
			{TaxClass: ClassPurchase, Net: d("500.0000"), Tax: d("45.0000")},
		}
		boxes := AggregateBoxes(lines)
		assert.Equal(t, "-36", boxes.NetTax.String())
		assert.True(t, boxes.NetTax.IsNegative())
	})

	t.Run("no lines yields all-zero boxes", func(t *testing.T) {
		assert.True(t, AggregateBoxes(nil).Equal(ZeroBoxSet()))
	})
}

func TestReturnPeriod(t *testing.T) {
	tenantID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	newDraft := func(t *testing.T) *ReturnPeriod {
		t.Helper()
		r, err := NewReturnPeriod(tenantID, start, end)
		require.NoError(t, err)
		return r
	}

	t.Run("creates a draft period", func(t *testing.T) {
		r := newDraft(t)
		assert.Equal(t, ReturnStatusDraft, r.Status)
		assert.True(t, r.Boxes.Equal(ZeroBoxSet()))
		assert.False(t, r.StaleSinceFiling)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := NewReturnPeriod(tenantID, end, start)
		assert.Error(t, err)
	})

	t.Run("contains is inclusive of both bounds", func(t *testing.T) {
		r := newDraft(t)
		assert.True(t, r.Contains(start))
		assert.True(t, r.Contains(end))
		assert.False(t, r.Contains(start.Add(-time.Second)))
		assert.False(t, r.Contains(end.Add(time.Second)))
	})

	t.Run("draft boxes can be regenerated repeatedly", func(t *testing.T) {
		r := newDraft(t)
		boxes := ZeroBoxSet()
		boxes.StandardRatedSupplies = d("1000")
		require.NoError(t, r.SetBoxes(boxes))
		boxes.StandardRatedSupplies = d("1200")
		require.NoError(t, r.SetBoxes(boxes))
		assert.Equal(t, "1200", r.Boxes.StandardRatedSupplies.String())
	})

	t.Run("filing freezes the boxes", func(t *testing.T) {
		r := newDraft(t)
		boxes := ZeroBoxSet()
		boxes.StandardRatedSupplies = d("1000")
		boxes.OutputTax = d("90")
		require.NoError(t, r.SetBoxes(boxes))

		require.NoError(t, r.File("alice@example.com", "F5-2026-Q1"))
		assert.Equal(t, ReturnStatusFiled, r.Status)
		assert.NotNil(t, r.FiledAt)
		assert.Equal(t, "alice@example.com", r.FiledBy)
		assert.Equal(t, "F5-2026-Q1", r.FilingReference)

		err := r.SetBoxes(ZeroBoxSet())
		assert.Error(t, err)
		assert.Equal(t, "1000", r.Boxes.StandardRatedSupplies.String())
	})

	t.Run("filing emits an event", func(t *testing.T) {
		r := newDraft(t)
		require.NoError(t, r.File("alice@example.com", ""))
		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		filed, ok := events[0].(*ReturnPeriodFiledEvent)
		require.True(t, ok)
		assert.Equal(t, r.ID, filed.PeriodID)
		assert.Equal(t, "alice@example.com", filed.FiledBy)
	})

	t.Run("filing twice is rejected", func(t *testing.T) {
		r := newDraft(t)
		require.NoError(t, r.File("alice@example.com", ""))
		assert.Error(t, r.File("bob@example.com", ""))
	})

	t.Run("filing requires an actor", func(t *testing.T) {
		r := newDraft(t)
		assert.Error(t, r.File("", ""))
	})

	t.Run("late postings mark a filed period stale", func(t *testing.T) {
		r := newDraft(t)
		require.NoError(t, r.File("alice@example.com", ""))

		require.NoError(t, r.MarkStale())
		assert.True(t, r.StaleSinceFiling)

		version := r.GetVersion()
		require.NoError(t, r.MarkStale())
		assert.Equal(t, version, r.GetVersion())
	})

	t.Run("a draft period cannot be stale", func(t *testing.T) {
		r := newDraft(t)
		assert.Error(t, r.MarkStale())
	})

	t.Run("amending a filed period opens a linked draft", func(t *testing.T) {
		r := newDraft(t)
		boxes := ZeroBoxSet()
		boxes.StandardRatedSupplies = d("1000")
		require.NoError(t, r.SetBoxes(boxes))
		require.NoError(t, r.File("alice@example.com", "F5-2026-Q1"))

		amendment, err := r.Amend()
		require.NoError(t, err)
		assert.Equal(t, ReturnStatusDraft, amendment.Status)
		assert.Equal(t, r.PeriodStart, amendment.PeriodStart)
		assert.Equal(t, r.PeriodEnd, amendment.PeriodEnd)
		require.NotNil(t, amendment.AmendsPeriodID)
		assert.Equal(t, r.ID, *amendment.AmendsPeriodID)

		assert.Equal(t, "1000", r.Boxes.StandardRatedSupplies.String())
	})

	t.Run("a draft period cannot be amended", func(t *testing.T) {
		r := newDraft(t)
		_, err := r.Amend()
		assert.Error(t, err)
	})
}
