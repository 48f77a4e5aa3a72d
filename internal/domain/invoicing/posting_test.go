package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = PostingPolicy{
	Receivable:       "1200",
	Payable:          "2100",
	OutputTax:        "2201",
	InputTax:         "1310",
	ExcludedDeposits: "2300",
	DefaultRevenue:   "4000",
	DefaultExpense:   "5000",
}

// sumProposed checks that debits equal credits across a proposal
func sumProposed(t *testing.T, lines []accounting.ProposedLine) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount.Amount())
	}
	return total
}

func byAccount(lines []accounting.ProposedLine) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, l := range lines {
		prev, ok := out[l.AccountCode]
		if !ok {
			prev = decimal.Zero
		}
		out[l.AccountCode] = prev.Add(l.Amount.Amount())
	}
	return out
}

func TestBuildPostingLinesInvoice(t *testing.T) {
	t.Run("debits receivable for gross, credits revenue and output tax", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.AddLine("Consulting", decimal.NewFromInt(2), sgd(t, "100.0000"), decimal.Zero, "SR", false, "")
		require.NoError(t, err)
		applyLineComputations(t, doc)

		lines, err := doc.BuildPostingLines(testPolicy)
		require.NoError(t, err)

		assert.True(t, sumProposed(t, lines).IsZero(), "proposal must balance")
		amounts := byAccount(lines)
		assert.Equal(t, "218", amounts["1200"].String())
		assert.Equal(t, "-200", amounts["4000"].String())
		assert.Equal(t, "-18", amounts["2201"].String())
	})

	t.Run("line account overrides the default revenue account", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.AddLine("Consulting", decimal.NewFromInt(1), sgd(t, "100.0000"), decimal.Zero, "SR", false, "4100")
		require.NoError(t, err)
		applyLineComputations(t, doc)

		lines, err := doc.BuildPostingLines(testPolicy)
		require.NoError(t, err)
		amounts := byAccount(lines)
		assert.Equal(t, "-100", amounts["4100"].String())
		_, hasDefault := amounts["4000"]
		assert.False(t, hasDefault)
	})

	t.Run("excluded-from-base amounts credit the deposits account", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.AddLine("Beverages", decimal.NewFromInt(1), sgd(t, "100.0000"), decimal.Zero, "SR", false, "")
		require.NoError(t, err)
		_, err = doc.AddLine("Container deposit", decimal.NewFromInt(10), sgd(t, "0.1000"), decimal.Zero, "DEP", true, "")
		require.NoError(t, err)
		applyLineComputations(t, doc)

		lines, err := doc.BuildPostingLines(testPolicy)
		require.NoError(t, err)

		assert.True(t, sumProposed(t, lines).IsZero())
		amounts := byAccount(lines)
		assert.Equal(t, "110", amounts["1200"].String()) // 100 + 9 tax + 1 deposit
		assert.Equal(t, "-1", amounts["2300"].String())
		assert.Equal(t, "-9", amounts["2201"].String())
	})

	t.Run("zero tax omits the tax line", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.AddLine("Export", decimal.NewFromInt(1), sgd(t, "100.0000"), decimal.Zero, "ZR", true, "")
		require.NoError(t, err)
		applyLineComputations(t, doc)

		lines, err := doc.BuildPostingLines(testPolicy)
		require.NoError(t, err)
		amounts := byAccount(lines)
		_, hasTax := amounts["2201"]
		assert.False(t, hasTax)
	})
}

func TestBuildPostingLinesCreditNote(t *testing.T) {
	t.Run("flips every side of the invoice posting", func(t *testing.T) {
		cn, err := NewDocument(uuid.New(), KindCreditNote, "CN-2026-00001", uuid.New(), valueobject.SGD, issueDate, time.Time{}, taxPoint)
		require.NoError(t, err)
		_, err = cn.AddLine("Returned goods", decimal.NewFromInt(2), sgd(t, "100.0000"), decimal.Zero, "SR", false, "")
		require.NoError(t, err)
		applyLineComputations(t, cn)

		lines, err := cn.BuildPostingLines(testPolicy)
		require.NoError(t, err)

		assert.True(t, sumProposed(t, lines).IsZero())
		amounts := byAccount(lines)
		assert.Equal(t, "-218", amounts["1200"].String())
		assert.Equal(t, "200", amounts["4000"].String())
		assert.Equal(t, "18", amounts["2201"].String())
	})
}

func TestBuildPostingLinesPurchaseInvoice(t *testing.T) {
	t.Run("debits expense and input tax, credits payable", func(t *testing.T) {
		pi, err := NewDocument(uuid.New(), KindPurchaseInvoice, "PI-2026-00001", uuid.New(), valueobject.SGD, issueDate, time.Time{}, taxPoint)
		require.NoError(t, err)
		_, err = pi.AddLine("Office supplies", decimal.NewFromInt(1), sgd(t, "500.0000"), decimal.Zero, "TX", false, "")
		require.NoError(t, err)
		applyLineComputations(t, pi)

		lines, err := pi.BuildPostingLines(testPolicy)
		require.NoError(t, err)

		assert.True(t, sumProposed(t, lines).IsZero())
		amounts := byAccount(lines)
		assert.Equal(t, "500", amounts["5000"].String())
		assert.Equal(t, "45", amounts["1310"].String())
		assert.Equal(t, "-545", amounts["2100"].String())
	})

	t.Run("expense account override per line", func(t *testing.T) {
		pi, err := NewDocument(uuid.New(), KindPurchaseInvoice, "PI-2026-00002", uuid.New(), valueobject.SGD, issueDate, time.Time{}, taxPoint)
		require.NoError(t, err)
		_, err = pi.AddLine("Rent", decimal.NewFromInt(1), sgd(t, "300.0000"), decimal.Zero, "TX", false, "5100")
		require.NoError(t, err)
		applyLineComputations(t, pi)

		lines, err := pi.BuildPostingLines(testPolicy)
		require.NoError(t, err)
		amounts := byAccount(lines)
		assert.Equal(t, "300", amounts["5100"].String())
	})
}

func TestBuildPostingLinesErrors(t *testing.T) {
	t.Run("quotes have no posting", func(t *testing.T) {
		quote, err := NewDocument(uuid.New(), KindQuote, "QUO-2026-00001", uuid.New(), valueobject.SGD, issueDate, time.Time{}, taxPoint)
		require.NoError(t, err)
		_, err = quote.BuildPostingLines(testPolicy)
		require.Error(t, err)
		assert.True(t, shared.IsInvariant(err))
	})

	t.Run("incomplete policy is rejected", func(t *testing.T) {
		doc := newDraftInvoice(t)
		addComputedLine(t, doc, "100.0000")
		incomplete := testPolicy
		incomplete.OutputTax = ""
		_, err := doc.BuildPostingLines(incomplete)
		assert.Error(t, err)
	})

	t.Run("uncomputed totals are an invariant violation", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.AddLine("Services", decimal.NewFromInt(1), sgd(t, "100.0000"), decimal.Zero, "SR", false, "")
		require.NoError(t, err)
		_, err = doc.BuildPostingLines(testPolicy)
		require.Error(t, err)
		assert.True(t, shared.IsInvariant(err))
	})

	t.Run("posting a documentless proposal is rejected", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.BuildPostingLines(testPolicy)
		assert.Error(t, err)
	})

	t.Run("the proposal feeds a balanced journal entry", func(t *testing.T) {
		doc := newDraftInvoice(t)
		_, err := doc.AddLine("Consulting", decimal.NewFromInt(2), sgd(t, "100.0000"), decimal.Zero, "SR", false, "")
		require.NoError(t, err)
		applyLineComputations(t, doc)

		proposal, err := doc.BuildPostingLines(testPolicy)
		require.NoError(t, err)

		accounts := []*accounting.Account{}
		for code, typ := range map[string]accounting.AccountType{
			"1200": accounting.AccountTypeAsset,
			"4000": accounting.AccountTypeRevenue,
			"2201": accounting.AccountTypeLiability,
		} {
			a, err := accounting.NewAccount(doc.TenantID, code, code, typ)
			require.NoError(t, err)
			accounts = append(accounts, a)
		}
		entry, err := accounting.NewJournalEntry(doc.TenantID, "JE-2026-000001", doc.IssueDate, doc.Number, proposal, accounting.NewChartSnapshot(accounts))
		require.NoError(t, err)
		assert.True(t, entry.IsBalanced())
		assert.Equal(t, "218", entry.TotalDebit.String())
	})
}
