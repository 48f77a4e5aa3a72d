package accounting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryDate = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func testChart(t *testing.T) *ChartSnapshot {
	t.Helper()
	tenantID := uuid.New()

	specs := []struct {
		code string
		name string
		typ  AccountType
	}{
		{"1200", "Accounts Receivable", AccountTypeAsset},
		{"2100", "Accounts Payable", AccountTypeLiability},
		{"2201", "Output Tax Payable", AccountTypeLiability},
		{"1310", "Input Tax Claimable", AccountTypeAsset},
		{"2300", "Deposits Held", AccountTypeLiability},
		{"4000", "Sales Revenue", AccountTypeRevenue},
		{"5000", "General Expenses", AccountTypeExpense},
	}
	accounts := make([]*Account, 0, len(specs))
	for _, s := range specs {
		a, err := NewAccount(tenantID, s.code, s.name, s.typ)
		require.NoError(t, err)
		accounts = append(accounts, a)
	}
	return NewChartSnapshot(accounts)
}

func amt(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneySGDFromString(s)
	require.NoError(t, err)
	return m
}

func TestNewJournalEntry(t *testing.T) {
	tenantID := uuid.New()
	chart := testChart(t)

	t.Run("posts a balanced sale entry", func(t *testing.T) {
		entry, err := NewJournalEntry(tenantID, "JE-2026-000001", entryDate, "Invoice INV-2026-00001", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "218.0000")},
			{AccountCode: "4000", Amount: amt(t, "-200.0000")},
			{AccountCode: "2201", Amount: amt(t, "-18.0000")},
		}, chart)
		require.NoError(t, err)

		assert.Equal(t, EntryTypeStandard, entry.EntryType)
		assert.Equal(t, "218", entry.TotalDebit.String())
		assert.Equal(t, "218", entry.TotalCredit.String())
		assert.True(t, entry.IsBalanced())
		require.Len(t, entry.Lines, 3)

		ar := entry.Lines[0]
		assert.Equal(t, "1200", ar.AccountCode)
		assert.Equal(t, AccountTypeAsset, ar.AccountType)
		assert.Equal(t, SideDebit, ar.Side())
		assert.Equal(t, "218", ar.Amount().String())
		assert.True(t, ar.Credit.IsZero())

		rev := entry.Lines[1]
		assert.Equal(t, SideCredit, rev.Side())
		assert.Equal(t, "200", rev.Amount().String())
		assert.True(t, rev.Debit.IsZero())
	})

	t.Run("posting emits an event", func(t *testing.T) {
		entry, err := NewJournalEntry(tenantID, "JE-2026-000002", entryDate, "", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "100.0000")},
			{AccountCode: "4000", Amount: amt(t, "-100.0000")},
		}, chart)
		require.NoError(t, err)

		events := entry.GetDomainEvents()
		require.Len(t, events, 1)
		posted, ok := events[0].(*JournalEntryPostedEvent)
		require.True(t, ok)
		assert.Equal(t, entry.ID, posted.EntryID)
		assert.Equal(t, "JE-2026-000002", posted.EntryNumber)
	})

	t.Run("rejects an unbalanced entry of any size", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "JE-2026-000003", entryDate, "", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "100.0001")},
			{AccountCode: "4000", Amount: amt(t, "-100.0000")},
		}, chart)
		require.Error(t, err)
		assert.True(t, shared.IsInvariant(err))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNBALANCED_ENTRY", domainErr.Code)
	})

	t.Run("rejects an empty entry", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "JE-2026-000004", entryDate, "", nil, chart)
		require.Error(t, err)
		assert.True(t, shared.IsInvariant(err))
	})

	t.Run("rejects a zero-amount line", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "JE-2026-000005", entryDate, "", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "100.0000")},
			{AccountCode: "4000", Amount: amt(t, "0")},
			{AccountCode: "2201", Amount: amt(t, "-100.0000")},
		}, chart)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ZERO_AMOUNT_LINE", domainErr.Code)
	})

	t.Run("rejects an unknown account", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "JE-2026-000006", entryDate, "", []ProposedLine{
			{AccountCode: "9999", Amount: amt(t, "100.0000")},
			{AccountCode: "4000", Amount: amt(t, "-100.0000")},
		}, chart)
		assert.Error(t, err)
	})

	t.Run("rejects an inactive account", func(t *testing.T) {
		inactiveTenant := uuid.New()
		active, err := NewAccount(inactiveTenant, "1200", "Accounts Receivable", AccountTypeAsset)
		require.NoError(t, err)
		dormant, err := NewAccount(inactiveTenant, "4000", "Sales Revenue", AccountTypeRevenue)
		require.NoError(t, err)
		require.NoError(t, dormant.Deactivate())
		snapshot := NewChartSnapshot([]*Account{active, dormant})

		_, err = NewJournalEntry(inactiveTenant, "JE-2026-000007", entryDate, "", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "100.0000")},
			{AccountCode: "4000", Amount: amt(t, "-100.0000")},
		}, snapshot)
		assert.Error(t, err)
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		usd, err := valueobject.NewMoneyFromString("-100.0000", valueobject.USD)
		require.NoError(t, err)
		_, err = NewJournalEntry(tenantID, "JE-2026-000008", entryDate, "", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "100.0000")},
			{AccountCode: "4000", Amount: usd},
		}, chart)
		assert.Error(t, err)
	})

	t.Run("rejects an empty entry number", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "", entryDate, "", []ProposedLine{
			{AccountCode: "1200", Amount: amt(t, "100.0000")},
			{AccountCode: "4000", Amount: amt(t, "-100.0000")},
		}, chart)
		assert.Error(t, err)
	})
}

func TestJournalEntryReversal(t *testing.T) {
	tenantID := uuid.New()
	chart := testChart(t)

	original, err := NewJournalEntry(tenantID, "JE-2026-000010", entryDate, "Invoice INV-2026-00003", []ProposedLine{
		{AccountCode: "1200", Amount: amt(t, "218.0000")},
		{AccountCode: "4000", Amount: amt(t, "-200.0000"), Memo: "Consulting"},
		{AccountCode: "2201", Amount: amt(t, "-18.0000")},
	}, chart)
	require.NoError(t, err)
	original.WithSource("Document", uuid.New())

	t.Run("swaps every line's side and references the original", func(t *testing.T) {
		reversal, err := original.Reversal("JE-2026-000011", entryDate.AddDate(0, 0, 3), "Void of INV-2026-00003")
		require.NoError(t, err)

		assert.Equal(t, EntryTypeReversal, reversal.EntryType)
		require.NotNil(t, reversal.ReversesEntryID)
		assert.Equal(t, original.ID, *reversal.ReversesEntryID)
		assert.Equal(t, original.SourceID, reversal.SourceID)
		assert.True(t, reversal.IsBalanced())

		require.Len(t, reversal.Lines, 3)
		for i, l := range reversal.Lines {
			assert.Equal(t, original.Lines[i].AccountCode, l.AccountCode)
			assert.True(t, l.Debit.Equal(original.Lines[i].Credit))
			assert.True(t, l.Credit.Equal(original.Lines[i].Debit))
		}
		assert.Equal(t, "Consulting", reversal.Lines[1].Memo)
	})

	t.Run("leaves the original untouched", func(t *testing.T) {
		_, err := original.Reversal("JE-2026-000012", entryDate, "")
		require.NoError(t, err)
		assert.Equal(t, "218", original.TotalDebit.String())
		assert.Equal(t, SideDebit, original.Lines[0].Side())
	})

	t.Run("requires an entry number", func(t *testing.T) {
		_, err := original.Reversal("", entryDate, "")
		assert.Error(t, err)
	})
}

func TestAccount(t *testing.T) {
	tenantID := uuid.New()

	t.Run("normal side follows account type", func(t *testing.T) {
		assert.Equal(t, SideDebit, AccountTypeAsset.NormalSide())
		assert.Equal(t, SideDebit, AccountTypeExpense.NormalSide())
		assert.Equal(t, SideCredit, AccountTypeLiability.NormalSide())
		assert.Equal(t, SideCredit, AccountTypeEquity.NormalSide())
		assert.Equal(t, SideCredit, AccountTypeRevenue.NormalSide())
	})

	t.Run("creation validates inputs", func(t *testing.T) {
		_, err := NewAccount(tenantID, "", "No code", AccountTypeAsset)
		assert.Error(t, err)
		_, err = NewAccount(tenantID, "1000", "", AccountTypeAsset)
		assert.Error(t, err)
		_, err = NewAccount(tenantID, "1000", "Cash", AccountType("BOGUS"))
		assert.Error(t, err)
	})

	t.Run("deactivate and activate round trip", func(t *testing.T) {
		a, err := NewAccount(tenantID, "1000", "Cash", AccountTypeAsset)
		require.NoError(t, err)
		require.NoError(t, a.Deactivate())
		assert.Error(t, a.Deactivate())
		require.NoError(t, a.Activate())
		assert.Error(t, a.Activate())
		assert.Equal(t, 3, a.GetVersion())
	})
}
