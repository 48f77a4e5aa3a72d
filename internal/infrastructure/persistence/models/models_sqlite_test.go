package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/invoicing"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
)

// newSQLiteDB opens an in-memory database with the full schema so the
// model conversions can be verified against a real driver round trip.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DSN keeps every pooled connection on the
	// same in-memory database.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&AccountModel{},
		&JournalEntryModel{},
		&AuditRecordModel{},
		&DocumentModel{},
		&TaxCodeModel{},
		&ReturnPeriodModel{},
		&NumberSequenceModel{},
	)
	require.NoError(t, err)

	return db
}

func TestJournalEntryModelRoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()

	receivable, err := accounting.NewAccount(tenantID, "1200", "Trade Receivables", accounting.AccountTypeAsset)
	require.NoError(t, err)
	revenue, err := accounting.NewAccount(tenantID, "4000", "Sales Revenue", accounting.AccountTypeRevenue)
	require.NoError(t, err)
	chart := accounting.NewChartSnapshot([]*accounting.Account{receivable, revenue})

	amount, err := valueobject.NewMoneySGDFromString("218.00")
	require.NoError(t, err)

	entry, err := accounting.NewJournalEntry(tenantID, "JE-2026-000001", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "Invoice INV-2026-00001", []accounting.ProposedLine{
		{AccountCode: "1200", Amount: amount, Memo: "receivable"},
		{AccountCode: "4000", Amount: amount.Negate(), Memo: "revenue"},
	}, chart)
	require.NoError(t, err)
	sourceID := uuid.New()
	entry = entry.WithSource("DOCUMENT", sourceID)

	require.NoError(t, db.Create(JournalEntryModelFromDomain(entry)).Error)

	var loaded JournalEntryModel
	require.NoError(t, db.Where("tenant_id = ? AND entry_number = ?", tenantID, "JE-2026-000001").First(&loaded).Error)

	got := loaded.ToDomain()
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.EntryNumber, got.EntryNumber)
	assert.Equal(t, accounting.EntryTypeStandard, got.EntryType)
	assert.Equal(t, "DOCUMENT", got.SourceType)
	require.NotNil(t, got.SourceID)
	assert.Equal(t, sourceID, *got.SourceID)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "1200", got.Lines[0].AccountCode)
	assert.True(t, got.Lines[0].Debit.Equal(decimal.RequireFromString("218")))
	assert.True(t, got.Lines[1].Credit.Equal(decimal.RequireFromString("218")))
	assert.True(t, got.TotalDebit.Equal(got.TotalCredit))
}

func TestJournalEntryModelDuplicateNumberRejected(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()

	account, err := accounting.NewAccount(tenantID, "1000", "Cash at Bank", accounting.AccountTypeAsset)
	require.NoError(t, err)
	equity, err := accounting.NewAccount(tenantID, "3000", "Owner Equity", accounting.AccountTypeEquity)
	require.NoError(t, err)
	chart := accounting.NewChartSnapshot([]*accounting.Account{account, equity})

	amount, err := valueobject.NewMoneySGDFromString("1000.00")
	require.NoError(t, err)
	lines := []accounting.ProposedLine{
		{AccountCode: "1000", Amount: amount},
		{AccountCode: "3000", Amount: amount.Negate()},
	}

	first, err := accounting.NewJournalEntry(tenantID, "JE-2026-000007", time.Now().UTC(), "opening", lines, chart)
	require.NoError(t, err)
	second, err := accounting.NewJournalEntry(tenantID, "JE-2026-000007", time.Now().UTC(), "opening again", lines, chart)
	require.NoError(t, err)

	require.NoError(t, db.Create(JournalEntryModelFromDomain(first)).Error)
	assert.Error(t, db.Create(JournalEntryModelFromDomain(second)).Error)
}

func TestDocumentModelRoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()
	issueDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	doc, err := invoicing.NewDocument(tenantID, invoicing.KindInvoice, "INV-2026-00001", uuid.New(), valueobject.DefaultCurrency, issueDate, issueDate.AddDate(0, 1, 0), issueDate)
	require.NoError(t, err)

	unitPrice, err := valueobject.NewMoneySGDFromString("100.00")
	require.NoError(t, err)
	_, err = doc.AddLine("Consulting services", decimal.NewFromInt(2), unitPrice, decimal.Zero, "SR", false, "4000")
	require.NoError(t, err)

	require.NoError(t, db.Create(DocumentModelFromDomain(doc)).Error)

	var loaded DocumentModel
	require.NoError(t, db.Where("tenant_id = ? AND number = ?", tenantID, "INV-2026-00001").First(&loaded).Error)

	got := loaded.ToDomain()
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, invoicing.KindInvoice, got.Kind)
	assert.Equal(t, invoicing.StatusDraft, got.Status)
	assert.True(t, got.DueDate.Equal(issueDate.AddDate(0, 1, 0)))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Consulting services", got.Lines[0].Description)
	assert.Equal(t, "SR", got.Lines[0].TaxCode)
}

func TestTaxCodeModelRoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()
	effectiveFrom := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	code, err := gst.NewTaxCode(tenantID, "SR", "Standard-Rated Supplies", gst.ClassStandardRated, decimal.RequireFromString("0.08"), false, effectiveFrom)
	require.NoError(t, err)
	require.NoError(t, code.Supersede(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, db.Create(TaxCodeModelFromDomain(code)).Error)

	var loaded TaxCodeModel
	require.NoError(t, db.Where("tenant_id = ? AND code = ?", tenantID, "SR").First(&loaded).Error)

	got := loaded.ToDomain()
	assert.Equal(t, code.ID, got.ID)
	assert.Equal(t, gst.ClassStandardRated, got.Class)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("0.08")))
	require.NotNil(t, got.EffectiveTo)
	assert.True(t, got.EffectiveTo.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, got.InForceAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestReturnPeriodModelRoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	period, err := gst.NewReturnPeriod(tenantID, start, end)
	require.NoError(t, err)

	require.NoError(t, db.Create(ReturnPeriodModelFromDomain(period)).Error)

	var loaded ReturnPeriodModel
	require.NoError(t, db.Where("tenant_id = ?", tenantID).First(&loaded).Error)

	got := loaded.ToDomain()
	assert.Equal(t, period.ID, got.ID)
	assert.Equal(t, gst.ReturnStatusDraft, got.Status)
	assert.True(t, got.PeriodStart.Equal(start))
	assert.True(t, got.PeriodEnd.Equal(end))
	assert.False(t, got.StaleSinceFiling)
}

func TestAuditRecordModelRoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()
	entityID := uuid.New()

	after := json.RawMessage(`{"status":"APPROVED"}`)
	record, err := accounting.NewAuditRecord(tenantID, "jane@acme.example", accounting.AuditActionTransition, "DOCUMENT", entityID, json.RawMessage(`{"status":"DRAFT"}`), after)
	require.NoError(t, err)

	require.NoError(t, db.Create(AuditRecordModelFromDomain(record)).Error)

	var loaded AuditRecordModel
	require.NoError(t, db.Where("entity_type = ? AND entity_id = ?", "DOCUMENT", entityID).First(&loaded).Error)

	got := loaded.ToDomain()
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "jane@acme.example", got.Actor)
	assert.Equal(t, accounting.AuditActionTransition, got.Action)
	assert.JSONEq(t, string(after), string(got.After))
}

func TestNumberSequenceUniquePerTenantScope(t *testing.T) {
	db := newSQLiteDB(t)
	tenantID := uuid.New()

	first := NumberSequenceModel{Scope: "INV-2026", NextValue: 1}
	first.ID = uuid.New()
	first.TenantID = tenantID
	require.NoError(t, db.Create(&first).Error)

	dup := NumberSequenceModel{Scope: "INV-2026", NextValue: 1}
	dup.ID = uuid.New()
	dup.TenantID = tenantID
	assert.Error(t, db.Create(&dup).Error)

	other := NumberSequenceModel{Scope: "CN-2026", NextValue: 1}
	other.ID = uuid.New()
	other.TenantID = tenantID
	assert.NoError(t, db.Create(&other).Error)
}
