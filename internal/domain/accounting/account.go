package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/shared"
)

// AccountType represents the classification of a ledger account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the type is a valid AccountType
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// NormalSide returns the side on which the account type normally carries
// its balance
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Side represents the debit or credit side of a journal line
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// String returns the string representation of Side
func (s Side) String() string {
	return string(s)
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// Account is a chart-of-accounts entry. Postings reference accounts by
// code; deactivating an account stops new postings without touching
// the entries already referencing it.
type Account struct {
	shared.TenantAggregateRoot
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	IsActive bool        `json:"is_active"`
}

// NewAccount creates a new ledger account
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}
	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Type:                accountType,
		IsActive:            true,
	}, nil
}

// Deactivate stops new postings to this account
func (a *Account) Deactivate() error {
	if !a.IsActive {
		return shared.NewDomainError("ACCOUNT_INACTIVE", "Account is already inactive")
	}
	a.IsActive = false
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// Activate re-enables postings to this account
func (a *Account) Activate() error {
	if a.IsActive {
		return shared.NewDomainError("ACCOUNT_ACTIVE", "Account is already active")
	}
	a.IsActive = true
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// Rename updates the display name
func (a *Account) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	a.Name = name
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// AccountResolver resolves account codes to accounts during entry
// validation. A snapshot of the chart of accounts satisfies it.
type AccountResolver interface {
	Resolve(code string) (*Account, error)
}

// ChartSnapshot is an in-memory AccountResolver built from a set of
// accounts, used to validate all lines of an entry against one
// consistent view of the chart.
type ChartSnapshot struct {
	byCode map[string]*Account
}

// NewChartSnapshot builds a snapshot from accounts
func NewChartSnapshot(accounts []*Account) *ChartSnapshot {
	s := &ChartSnapshot{byCode: make(map[string]*Account, len(accounts))}
	for _, a := range accounts {
		s.byCode[a.Code] = a
	}
	return s
}

// Resolve returns the active account with the given code
func (s *ChartSnapshot) Resolve(code string) (*Account, error) {
	a, ok := s.byCode[code]
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_ACCOUNT", "Account "+code+" does not exist")
	}
	if !a.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account "+code+" is inactive")
	}
	return a, nil
}
