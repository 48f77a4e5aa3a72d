package accounting

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntryType represents how a journal entry came to exist
type EntryType string

const (
	EntryTypeStandard EntryType = "STANDARD"
	EntryTypeReversal EntryType = "REVERSAL"
)

// IsValid checks if the type is a valid EntryType
func (t EntryType) IsValid() bool {
	return t == EntryTypeStandard || t == EntryTypeReversal
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// ProposedLine is one line of an entry before validation. The amount
// is signed: positive posts to the debit side, negative to the credit
// side. Zero is rejected.
type ProposedLine struct {
	AccountCode string
	Amount      valueobject.Money
	Memo        string
}

// JournalLine is a validated line within a posted entry. Exactly one
// of debit and credit is non-zero. Stored as JSONB within the entry
// row; lines never exist apart from their entry.
type JournalLine struct {
	ID          uuid.UUID       `json:"id"`
	AccountCode string          `json:"account_code"`
	AccountType AccountType     `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

// Side returns which side the line posts to
func (l JournalLine) Side() Side {
	if l.Debit.IsPositive() {
		return SideDebit
	}
	return SideCredit
}

// Amount returns the line's magnitude regardless of side
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// JournalLines is a slice of JournalLine that implements GORM
// Scanner/Valuer for JSONB storage
type JournalLines []JournalLine

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l JournalLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *JournalLines) Scan(value interface{}) error {
	if value == nil {
		*l = JournalLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for JournalLines")
	}

	return json.Unmarshal(bytes, l)
}

// JournalEntry is an immutable, balanced double-entry posting. Once
// created it is never updated or deleted; corrections happen by
// posting a reversal entry that references the original.
type JournalEntry struct {
	shared.TenantAggregateRoot
	EntryNumber     string               `json:"entry_number"`
	EntryType       EntryType            `json:"entry_type"`
	EntryDate       time.Time            `json:"entry_date"`
	Currency        valueobject.Currency `json:"currency"`
	Narration       string               `json:"narration,omitempty"`
	SourceType      string               `json:"source_type,omitempty"` // e.g. "Document"
	SourceID        *uuid.UUID           `json:"source_id,omitempty"`
	ReversesEntryID *uuid.UUID           `json:"reverses_entry_id,omitempty"`
	Lines           JournalLines         `json:"lines"`
	TotalDebit      decimal.Decimal      `json:"total_debit"`
	TotalCredit     decimal.Decimal      `json:"total_credit"`
}

// NewJournalEntry validates proposed lines against the chart of
// accounts and builds a balanced entry. The entry is rejected, never
// adjusted: an imbalance of any size is an error, not something to
// plug with a rounding line.
func NewJournalEntry(
	tenantID uuid.UUID,
	entryNumber string,
	entryDate time.Time,
	narration string,
	proposed []ProposedLine,
	resolver AccountResolver,
) (*JournalEntry, error) {
	if entryNumber == "" {
		return nil, shared.NewDomainError("INVALID_ENTRY_NUMBER", "Entry number cannot be empty")
	}
	if len(proposed) == 0 {
		return nil, shared.NewInvariantError("EMPTY_ENTRY", "Journal entry must have at least one line")
	}

	currency := proposed[0].Amount.Currency()
	lines := make(JournalLines, 0, len(proposed))
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero

	for i, p := range proposed {
		if p.AccountCode == "" {
			return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", fmt.Sprintf("Line %d has no account code", i+1))
		}
		if p.Amount.IsZero() {
			return nil, shared.NewInvariantError("ZERO_AMOUNT_LINE", fmt.Sprintf("Line %d for account %s has zero amount", i+1, p.AccountCode))
		}
		if p.Amount.Currency() != currency {
			return nil, shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Line %d currency %s does not match entry currency %s", i+1, p.Amount.Currency(), currency))
		}

		account, err := resolver.Resolve(p.AccountCode)
		if err != nil {
			return nil, err
		}

		line := JournalLine{
			ID:          uuid.New(),
			AccountCode: account.Code,
			AccountType: account.Type,
			Memo:        p.Memo,
		}
		amount := p.Amount.Amount()
		if amount.IsPositive() {
			line.Debit = amount
			line.Credit = decimal.Zero
			totalDebit = totalDebit.Add(amount)
		} else {
			line.Debit = decimal.Zero
			line.Credit = amount.Neg()
			totalCredit = totalCredit.Add(amount.Neg())
		}
		lines = append(lines, line)
	}

	if !totalDebit.Equal(totalCredit) {
		return nil, shared.NewInvariantError("UNBALANCED_ENTRY", fmt.Sprintf(
			"Journal entry does not balance: debit %s, credit %s", totalDebit.String(), totalCredit.String()))
	}

	entry := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntryNumber:         entryNumber,
		EntryType:           EntryTypeStandard,
		EntryDate:           entryDate,
		Currency:            currency,
		Narration:           narration,
		Lines:               lines,
		TotalDebit:          totalDebit,
		TotalCredit:         totalCredit,
	}
	entry.AddDomainEvent(NewJournalEntryPostedEvent(entry))
	return entry, nil
}

// WithSource links the entry to the document that produced it
func (e *JournalEntry) WithSource(sourceType string, sourceID uuid.UUID) *JournalEntry {
	e.SourceType = sourceType
	id := sourceID
	e.SourceID = &id
	return e
}

// IsBalanced reports whether total debits equal total credits. Always
// true for an entry built through NewJournalEntry; exposed for
// integrity checks over loaded data.
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebit.Equal(e.TotalCredit)
}

// Reversal builds a new entry with every line's side swapped,
// referencing this entry as its origin. The original is untouched.
func (e *JournalEntry) Reversal(entryNumber string, entryDate time.Time, narration string) (*JournalEntry, error) {
	if entryNumber == "" {
		return nil, shared.NewDomainError("INVALID_ENTRY_NUMBER", "Entry number cannot be empty")
	}

	lines := make(JournalLines, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, JournalLine{
			ID:          uuid.New(),
			AccountCode: l.AccountCode,
			AccountType: l.AccountType,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Memo:        l.Memo,
		})
	}

	originalID := e.ID
	reversal := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.TenantID),
		EntryNumber:         entryNumber,
		EntryType:           EntryTypeReversal,
		EntryDate:           entryDate,
		Currency:            e.Currency,
		Narration:           narration,
		SourceType:          e.SourceType,
		SourceID:            e.SourceID,
		ReversesEntryID:     &originalID,
		Lines:               lines,
		TotalDebit:          e.TotalCredit,
		TotalCredit:         e.TotalDebit,
	}
	reversal.AddDomainEvent(NewJournalEntryPostedEvent(reversal))
	return reversal, nil
}
