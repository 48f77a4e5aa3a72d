package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// Service provides application-level posting and audit operations
type Service struct {
	accountRepo accounting.AccountRepository
	entryRepo   accounting.JournalEntryRepository
	auditRepo   accounting.AuditRecordRepository
	logger      *zap.Logger
}

// NewService creates a new accounting Service
func NewService(
	accountRepo accounting.AccountRepository,
	entryRepo accounting.JournalEntryRepository,
	auditRepo accounting.AuditRecordRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		auditRepo:   auditRepo,
		logger:      logger,
	}
}

// PostLineInput is one line of a manual posting request. The amount is
// a signed decimal string: positive debits, negative credits.
type PostLineInput struct {
	AccountCode string `json:"account_code"`
	Amount      string `json:"amount"`
	Memo        string `json:"memo,omitempty"`
}

// PostEntryInput is the input for posting a manual journal entry
type PostEntryInput struct {
	TenantID  uuid.UUID            `json:"tenant_id"`
	EntryDate time.Time            `json:"entry_date"`
	Currency  valueobject.Currency `json:"currency"`
	Narration string               `json:"narration,omitempty"`
	Lines     []PostLineInput      `json:"lines"`
	Actor     string               `json:"actor"`
}

// PostEntry validates and appends a manual journal entry, with its
// audit record, returning the entry or a typed validation failure
func (s *Service) PostEntry(ctx context.Context, input PostEntryInput) (*accounting.JournalEntry, error) {
	if input.Actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Posting actor is required")
	}
	if input.EntryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENTRY_DATE", "Entry date is required")
	}
	currency := input.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	proposed := make([]accounting.ProposedLine, 0, len(input.Lines))
	for _, l := range input.Lines {
		amount, err := valueobject.NewMoneyFromString(l.Amount, currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Line amount "+l.Amount+" is not a valid decimal")
		}
		proposed = append(proposed, accounting.ProposedLine{
			AccountCode: l.AccountCode,
			Amount:      amount,
			Memo:        l.Memo,
		})
	}

	accounts, err := s.accountRepo.SnapshotForTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	entryNumber, err := s.entryRepo.NextEntryNumber(ctx, input.TenantID, input.EntryDate.Year())
	if err != nil {
		return nil, err
	}
	entry, err := accounting.NewJournalEntry(input.TenantID, entryNumber, input.EntryDate, input.Narration, proposed, accounting.NewChartSnapshot(accounts))
	if err != nil {
		return nil, err
	}

	after, err := accounting.SnapshotOf(entry)
	if err != nil {
		return nil, err
	}
	audit, err := accounting.NewAuditRecord(input.TenantID, input.Actor, accounting.AuditActionPost, "JournalEntry", entry.ID, nil, after)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Append(ctx, entry, audit); err != nil {
		return nil, err
	}
	s.logger.Info("posted journal entry",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("actor", input.Actor))
	return entry, nil
}

// ReverseEntry posts the reversal of an existing entry
func (s *Service) ReverseEntry(ctx context.Context, tenantID, entryID uuid.UUID, actor, narration string) (*accounting.JournalEntry, error) {
	if actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Posting actor is required")
	}
	original, err := s.entryRepo.FindByIDForTenant(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	entryNumber, err := s.entryRepo.NextEntryNumber(ctx, tenantID, time.Now().Year())
	if err != nil {
		return nil, err
	}
	reversal, err := original.Reversal(entryNumber, time.Now(), narration)
	if err != nil {
		return nil, err
	}
	after, err := accounting.SnapshotOf(reversal)
	if err != nil {
		return nil, err
	}
	audit, err := accounting.NewAuditRecord(tenantID, actor, accounting.AuditActionPost, "JournalEntry", reversal.ID, nil, after)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Append(ctx, reversal, audit); err != nil {
		return nil, err
	}
	s.logger.Info("reversed journal entry",
		zap.String("tenant_id", tenantID.String()),
		zap.String("original_entry_number", original.EntryNumber),
		zap.String("reversal_entry_number", reversal.EntryNumber),
		zap.String("actor", actor))
	return reversal, nil
}

// GetEntry loads a journal entry by ID
func (s *Service) GetEntry(ctx context.Context, tenantID, entryID uuid.UUID) (*accounting.JournalEntry, error) {
	return s.entryRepo.FindByIDForTenant(ctx, tenantID, entryID)
}

// EntriesByDateRange lists entries with entry dates inside [start, end]
func (s *Service) EntriesByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) (*shared.Paginated[*accounting.JournalEntry], error) {
	return s.entryRepo.FindByDateRange(ctx, tenantID, start, end, filter)
}

// CreateAccountRequest is the input for creating a ledger account
type CreateAccountRequest struct {
	TenantID uuid.UUID              `json:"tenant_id"`
	Code     string                 `json:"code"`
	Name     string                 `json:"name"`
	Type     accounting.AccountType `json:"type"`
	Actor    string                 `json:"actor"`
}

// CreateAccount adds an account to the chart
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (*accounting.Account, error) {
	if existing, err := s.accountRepo.FindByCode(ctx, req.TenantID, req.Code); err == nil && existing != nil {
		return nil, shared.NewDomainError("ACCOUNT_EXISTS", "Account "+req.Code+" already exists")
	}
	account, err := accounting.NewAccount(req.TenantID, req.Code, req.Name, req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// AuditByEntity returns the audit trail for one entity, oldest first
func (s *Service) AuditByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*accounting.AuditRecord, error) {
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type is required")
	}
	return s.auditRepo.FindByEntity(ctx, tenantID, entityType, entityID)
}

// AuditByTimeRange returns audit records inside [start, end]
func (s *Service) AuditByTimeRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) (*shared.Paginated[*accounting.AuditRecord], error) {
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_RANGE", "Range end cannot precede range start")
	}
	return s.auditRepo.FindByTimeRange(ctx, tenantID, start, end, filter)
}
