package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/invoicing"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DocumentService orchestrates the document lifecycle: creation, line
// editing, computation, and the transitions that bind document state,
// journal entry and audit record into one atomic write.
type DocumentService struct {
	documentRepo invoicing.DocumentRepository
	taxCodeRepo  gst.TaxCodeRepository
	accountRepo  accounting.AccountRepository
	entryRepo    accounting.JournalEntryRepository
	periodRepo   gst.ReturnPeriodRepository
	calculator   *gst.Calculator
	policy       invoicing.PostingPolicy
	events       shared.EventBus
	logger       *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentRepo invoicing.DocumentRepository,
	taxCodeRepo gst.TaxCodeRepository,
	accountRepo accounting.AccountRepository,
	entryRepo accounting.JournalEntryRepository,
	periodRepo gst.ReturnPeriodRepository,
	policy invoicing.PostingPolicy,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documentRepo: documentRepo,
		taxCodeRepo:  taxCodeRepo,
		accountRepo:  accountRepo,
		entryRepo:    entryRepo,
		periodRepo:   periodRepo,
		calculator:   gst.NewCalculator(),
		policy:       policy,
		logger:       logger,
	}
}

// WithEventBus enables domain event publication after successful
// writes. Without a bus, events are simply dropped.
func (s *DocumentService) WithEventBus(bus shared.EventBus) *DocumentService {
	s.events = bus
	return s
}

// publishEvents drains aggregate events after a successful write.
// Delivery problems never fail the business operation.
func (s *DocumentService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish domain events", zap.Error(err))
		}
		agg.ClearDomainEvents()
	}
}

// CreateDocumentRequest is the input for creating a draft document
type CreateDocumentRequest struct {
	TenantID  uuid.UUID              `json:"tenant_id"`
	Kind      invoicing.DocumentKind `json:"kind"`
	ContactID uuid.UUID              `json:"contact_id"`
	Currency  valueobject.Currency   `json:"currency"`
	IssueDate time.Time              `json:"issue_date"`
	DueDate   time.Time              `json:"due_date"`
	TaxPoint  time.Time              `json:"tax_point"`
	Reference string                 `json:"reference,omitempty"`
	Actor     string                 `json:"actor"`
}

// CreateDocument creates a new draft document with a reserved number
func (s *DocumentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*invoicing.Document, error) {
	if req.Currency == "" {
		req.Currency = valueobject.DefaultCurrency
	}
	number, err := s.documentRepo.NextDocumentNumber(ctx, req.TenantID, req.Kind, req.IssueDate.Year())
	if err != nil {
		return nil, err
	}
	doc, err := invoicing.NewDocument(req.TenantID, req.Kind, number, req.ContactID, req.Currency, req.IssueDate, req.DueDate, req.TaxPoint)
	if err != nil {
		return nil, err
	}
	doc.Reference = req.Reference
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return doc, nil
}

// LineRequest is the input for adding or updating a document line
type LineRequest struct {
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        string          `json:"unit_price"`
	DiscountPct      decimal.Decimal `json:"discount_pct"`
	TaxCode          string          `json:"tax_code"`
	ExcludedFromBase bool            `json:"excluded_from_base"`
	AccountCode      string          `json:"account_code,omitempty"`
}

// AddLine adds a line to a draft document and recomputes its totals
func (s *DocumentService) AddLine(ctx context.Context, tenantID, docID uuid.UUID, req LineRequest) (*invoicing.Document, error) {
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	unitPrice, err := valueobject.NewMoneyFromString(req.UnitPrice, doc.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", err.Error())
	}
	if _, err := doc.AddLine(req.Description, req.Quantity, unitPrice, req.DiscountPct, req.TaxCode, req.ExcludedFromBase, req.AccountCode); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.documentRepo.SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateLine updates a line of a draft document and recomputes totals
func (s *DocumentService) UpdateLine(ctx context.Context, tenantID, docID, lineID uuid.UUID, req LineRequest) (*invoicing.Document, error) {
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	unitPrice, err := valueobject.NewMoneyFromString(req.UnitPrice, doc.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", err.Error())
	}
	if err := doc.UpdateLine(lineID, req.Description, req.Quantity, unitPrice, req.DiscountPct, req.TaxCode, req.ExcludedFromBase, req.AccountCode); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.documentRepo.SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RemoveLine removes a line from a draft document and recomputes totals
func (s *DocumentService) RemoveLine(ctx context.Context, tenantID, docID, lineID uuid.UUID) (*invoicing.Document, error) {
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.RemoveLine(lineID); err != nil {
		return nil, err
	}
	if len(doc.Lines) > 0 {
		if err := s.recompute(ctx, doc); err != nil {
			return nil, err
		}
	}
	if err := s.documentRepo.SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ComputeLineTotals is a pure passthrough to the calculator for
// client-side previews; nothing is persisted.
func (s *DocumentService) ComputeLineTotals(ctx context.Context, tenantID uuid.UUID, in gst.LineInput, taxPoint time.Time) (gst.LineTotals, error) {
	table, err := s.rateTable(ctx, tenantID)
	if err != nil {
		return gst.LineTotals{}, err
	}
	rate, err := table.Resolve(in.TaxCode, taxPoint)
	if err != nil {
		return gst.LineTotals{}, err
	}
	return s.calculator.ComputeLine(in, rate)
}

// ComputeDocumentTotals is a pure passthrough to the calculator for a
// whole document preview; nothing is persisted.
func (s *DocumentService) ComputeDocumentTotals(ctx context.Context, tenantID uuid.UUID, lines []gst.LineInput, taxPoint time.Time) (gst.DocumentTotals, []gst.LineTotals, error) {
	table, err := s.rateTable(ctx, tenantID)
	if err != nil {
		return gst.DocumentTotals{}, nil, err
	}
	return s.calculator.ComputeDocument(lines, table, taxPoint)
}

// TransitionRequest is the input for a lifecycle transition
type TransitionRequest struct {
	TenantID   uuid.UUID                  `json:"tenant_id"`
	DocumentID uuid.UUID                  `json:"document_id"`
	Target     invoicing.DocumentStatus   `json:"target"`
	Actor      string                     `json:"actor"`
	Reason     string                     `json:"reason,omitempty"`  // required for VOID
	Contact    *invoicing.ContactSnapshot `json:"contact,omitempty"` // captured at approval
}

// TransitionResult reports the outcome of a transition
type TransitionResult struct {
	Status         invoicing.DocumentStatus `json:"status"`
	NetTotal       valueobject.Money        `json:"net_total"`
	TaxTotal       valueobject.Money        `json:"tax_total"`
	GrossTotal     valueobject.Money        `json:"gross_total"`
	JournalEntryID *uuid.UUID               `json:"journal_entry_id,omitempty"`
}

// Transition moves a document to the target state. The document write,
// any journal entry, and the audit record land in one transaction; the
// caller gets the new state or a typed failure.
func (s *DocumentService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if req.Actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Transition actor is required")
	}
	doc, err := s.documentRepo.FindByIDForTenant(ctx, req.TenantID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	before, err := accounting.SnapshotOf(doc)
	if err != nil {
		return nil, err
	}

	var entry *accounting.JournalEntry
	switch req.Target {
	case invoicing.StatusApproved:
		entry, err = s.approve(ctx, doc, req)
	case invoicing.StatusSent:
		err = doc.MarkSent()
	case invoicing.StatusVoid:
		entry, err = s.void(ctx, doc, req)
	default:
		return nil, shared.NewDomainError("UNSUPPORTED_TRANSITION", "Target state "+req.Target.String()+" is not reachable through Transition")
	}
	if err != nil {
		return nil, err
	}

	after, err := accounting.SnapshotOf(doc)
	if err != nil {
		return nil, err
	}
	audit, err := accounting.NewAuditRecord(req.TenantID, req.Actor, accounting.AuditActionTransition, "Document", doc.ID, before, after)
	if err != nil {
		return nil, err
	}
	if req.Reason != "" {
		audit.WithReason(req.Reason)
	}

	if err := s.documentRepo.SaveTransition(ctx, doc, entry, audit); err != nil {
		return nil, err
	}

	if entry != nil {
		s.publishEvents(ctx, doc, entry)
	} else {
		s.publishEvents(ctx, doc)
	}
	s.flagStaleFilings(ctx, doc)

	return &TransitionResult{
		Status:         doc.Status,
		NetTotal:       doc.NetTotal,
		TaxTotal:       doc.TaxTotal,
		GrossTotal:     doc.GrossTotal,
		JournalEntryID: doc.JournalEntryID,
	}, nil
}

// approve recomputes totals at the document's tax point, posts the
// implied journal entry for posting kinds, and freezes the document
func (s *DocumentService) approve(ctx context.Context, doc *invoicing.Document, req TransitionRequest) (*accounting.JournalEntry, error) {
	if len(doc.Lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "Cannot approve a document without lines")
	}
	if err := s.recompute(ctx, doc); err != nil {
		return nil, err
	}
	if req.Contact != nil {
		doc.SetContactSnapshot(*req.Contact)
	}

	if !doc.Kind.Posts() {
		return nil, doc.Approve(nil)
	}

	proposal, err := doc.BuildPostingLines(s.policy)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.SnapshotForTenant(ctx, doc.TenantID)
	if err != nil {
		return nil, err
	}
	entryNumber, err := s.entryRepo.NextEntryNumber(ctx, doc.TenantID, doc.TaxPoint.Year())
	if err != nil {
		return nil, err
	}
	entry, err := accounting.NewJournalEntry(doc.TenantID, entryNumber, doc.TaxPoint, "Approval of "+doc.Number, proposal, accounting.NewChartSnapshot(accounts))
	if err != nil {
		return nil, err
	}
	entry.WithSource("Document", doc.ID)

	if err := doc.Approve(&entry.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// void terminates an approved document and posts the reversal of its
// original entry
func (s *DocumentService) void(ctx context.Context, doc *invoicing.Document, req TransitionRequest) (*accounting.JournalEntry, error) {
	if err := doc.Void(req.Reason); err != nil {
		return nil, err
	}
	if !doc.Kind.Posts() || doc.JournalEntryID == nil {
		return nil, nil
	}

	original, err := s.entryRepo.FindByIDForTenant(ctx, doc.TenantID, *doc.JournalEntryID)
	if err != nil {
		return nil, err
	}
	entryNumber, err := s.entryRepo.NextEntryNumber(ctx, doc.TenantID, time.Now().Year())
	if err != nil {
		return nil, err
	}
	return original.Reversal(entryNumber, time.Now(), "Void of "+doc.Number+": "+req.Reason)
}

// SettlementRequest is the input for recording a settlement
type SettlementRequest struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Amount     string    `json:"amount"`
	Actor      string    `json:"actor"`
}

// RecordSettlement applies a settlement against a document's balance
func (s *DocumentService) RecordSettlement(ctx context.Context, req SettlementRequest) (*TransitionResult, error) {
	if req.Actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Settlement actor is required")
	}
	doc, err := s.documentRepo.FindByIDForTenant(ctx, req.TenantID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	amount, err := valueobject.NewMoneyFromString(req.Amount, doc.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT", err.Error())
	}

	before, err := accounting.SnapshotOf(doc)
	if err != nil {
		return nil, err
	}
	if err := doc.RecordSettlement(amount); err != nil {
		return nil, err
	}
	after, err := accounting.SnapshotOf(doc)
	if err != nil {
		return nil, err
	}
	audit, err := accounting.NewAuditRecord(req.TenantID, req.Actor, accounting.AuditActionTransition, "Document", doc.ID, before, after)
	if err != nil {
		return nil, err
	}

	if err := s.documentRepo.SaveTransition(ctx, doc, nil, audit); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	return &TransitionResult{
		Status:         doc.Status,
		NetTotal:       doc.NetTotal,
		TaxTotal:       doc.TaxTotal,
		GrossTotal:     doc.GrossTotal,
		JournalEntryID: doc.JournalEntryID,
	}, nil
}

// ConvertQuote turns an approved quote into a fresh draft invoice and
// closes the quote, atomically
func (s *DocumentService) ConvertQuote(ctx context.Context, tenantID, quoteID uuid.UUID, actor string) (*invoicing.Document, error) {
	if actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Conversion actor is required")
	}
	quote, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Kind != invoicing.KindQuote {
		return nil, shared.NewInvariantError("NOT_A_QUOTE", "Only quotes can be converted")
	}

	before, err := accounting.SnapshotOf(quote)
	if err != nil {
		return nil, err
	}

	number, err := s.documentRepo.NextDocumentNumber(ctx, tenantID, invoicing.KindInvoice, time.Now().Year())
	if err != nil {
		return nil, err
	}
	invoice, err := quote.ConvertToInvoice(number, time.Now())
	if err != nil {
		return nil, err
	}
	if err := quote.MarkConverted(invoice.ID); err != nil {
		return nil, err
	}

	after, err := accounting.SnapshotOf(quote)
	if err != nil {
		return nil, err
	}
	audit, err := accounting.NewAuditRecord(tenantID, actor, accounting.AuditActionTransition, "Document", quote.ID, before, after)
	if err != nil {
		return nil, err
	}

	if err := s.documentRepo.SaveConversion(ctx, quote, invoice, audit); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, quote, invoice)
	return invoice, nil
}

// GetDocument loads a document by ID
func (s *DocumentService) GetDocument(ctx context.Context, tenantID, docID uuid.UUID) (*invoicing.Document, error) {
	return s.documentRepo.FindByIDForTenant(ctx, tenantID, docID)
}

// ListDocuments lists documents, paginated
func (s *DocumentService) ListDocuments(ctx context.Context, tenantID uuid.UUID, kind invoicing.DocumentKind, status invoicing.DocumentStatus, filter shared.Filter) (*shared.Paginated[*invoicing.Document], error) {
	return s.documentRepo.List(ctx, tenantID, kind, status, filter)
}

// recompute runs the calculator over the document's lines against the
// rates in force at its tax point and writes the results back
func (s *DocumentService) recompute(ctx context.Context, doc *invoicing.Document) error {
	if len(doc.Lines) == 0 {
		return nil
	}
	table, err := s.rateTable(ctx, doc.TenantID)
	if err != nil {
		return err
	}
	inputs := make([]gst.LineInput, len(doc.Lines))
	for i, l := range doc.Lines {
		inputs[i] = l.Input()
	}
	totals, perLine, err := s.calculator.ComputeDocument(inputs, table, doc.TaxPoint)
	if err != nil {
		return err
	}
	comps := make([]invoicing.LineComputation, len(perLine))
	for i := range perLine {
		rate, err := table.Resolve(doc.Lines[i].TaxCode, doc.TaxPoint)
		if err != nil {
			return err
		}
		comps[i] = invoicing.LineComputation{Totals: perLine[i], Class: rate.Class}
	}
	return doc.ApplyComputation(comps, totals)
}

func (s *DocumentService) rateTable(ctx context.Context, tenantID uuid.UUID) (*gst.RateTable, error) {
	codes, err := s.taxCodeRepo.SnapshotForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return gst.NewRateTable(codes), nil
}

// flagStaleFilings marks filed periods covering the document's tax
// point stale after a posting lands inside them. Best effort outside
// the transition transaction: a failure here never rolls back the
// transition itself.
func (s *DocumentService) flagStaleFilings(ctx context.Context, doc *invoicing.Document) {
	if !doc.Kind.Posts() {
		return
	}
	switch doc.Status {
	case invoicing.StatusApproved, invoicing.StatusVoid:
	default:
		return
	}
	periods, err := s.periodRepo.FindFiledCovering(ctx, doc.TenantID, doc.TaxPoint)
	if err != nil {
		s.logger.Warn("failed to look up filed periods for stale flagging",
			zap.String("tenant_id", doc.TenantID.String()),
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
		return
	}
	for _, p := range periods {
		if p.StaleSinceFiling {
			continue
		}
		if err := p.MarkStale(); err != nil {
			continue
		}
		if err := s.periodRepo.SaveWithLock(ctx, p); err != nil {
			s.logger.Warn("failed to flag filed period stale",
				zap.String("tenant_id", doc.TenantID.String()),
				zap.String("period_id", p.ID.String()),
				zap.String("document_id", doc.ID.String()),
				zap.Error(err))
		}
	}
}
