package invoicing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgersg/backend/internal/domain/gst"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DocumentKind represents the kind of financial document. The set is
// closed: every kind carries its own posting and transition behavior,
// and there is no generic "other" kind.
type DocumentKind string

const (
	KindInvoice         DocumentKind = "INVOICE"
	KindCreditNote      DocumentKind = "CREDIT_NOTE"
	KindQuote           DocumentKind = "QUOTE"
	KindPurchaseInvoice DocumentKind = "PURCHASE_INVOICE"
)

// IsValid checks if the kind is a valid DocumentKind
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindInvoice, KindCreditNote, KindQuote, KindPurchaseInvoice:
		return true
	}
	return false
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// Posts reports whether approving a document of this kind produces a
// journal entry. Quotes never post.
func (k DocumentKind) Posts() bool {
	return k != KindQuote
}

// IsPurchase reports whether the kind sits on the purchase side of the
// ledger
func (k DocumentKind) IsPurchase() bool {
	return k == KindPurchaseInvoice
}

// Sign returns the direction the kind contributes to period
// aggregation: credit notes net off against invoices.
func (k DocumentKind) Sign() decimal.Decimal {
	if k == KindCreditNote {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// SequencePrefix returns the document number prefix for the kind
func (k DocumentKind) SequencePrefix() string {
	switch k {
	case KindInvoice:
		return "INV"
	case KindCreditNote:
		return "CN"
	case KindQuote:
		return "QUO"
	case KindPurchaseInvoice:
		return "PI"
	default:
		return "DOC"
	}
}

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	StatusDraft            DocumentStatus = "DRAFT"
	StatusApproved         DocumentStatus = "APPROVED"
	StatusSent             DocumentStatus = "SENT"
	StatusPartiallySettled DocumentStatus = "PARTIALLY_SETTLED"
	StatusSettled          DocumentStatus = "SETTLED"
	StatusVoid             DocumentStatus = "VOID"
	StatusConverted        DocumentStatus = "CONVERTED" // quotes only
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusSent, StatusPartiallySettled,
		StatusSettled, StatusVoid, StatusConverted:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusSettled || s == StatusVoid || s == StatusConverted
}

// validTransitions is the complete transition map. Anything not listed
// is rejected; there is no state skipping.
var validTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:            {StatusApproved},
	StatusApproved:         {StatusSent, StatusPartiallySettled, StatusSettled, StatusVoid, StatusConverted},
	StatusSent:             {StatusPartiallySettled, StatusSettled, StatusConverted},
	StatusPartiallySettled: {StatusPartiallySettled, StatusSettled},
	StatusSettled:          {},
	StatusVoid:             {},
	StatusConverted:        {},
}

// CanTransitionTo reports whether the status may move to target
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// DocumentLine is one line of a document. Input fields are mutable
// while the document is DRAFT; the computed Net/Tax/Gross amounts are
// the engine's authoritative results, written only through
// ApplyComputation. Stored as JSONB within the document row.
type DocumentLine struct {
	ID               uuid.UUID         `json:"id"`
	Description      string            `json:"description"`
	Quantity         decimal.Decimal   `json:"quantity"`
	UnitPrice        valueobject.Money `json:"unit_price"`
	DiscountPct      decimal.Decimal   `json:"discount_pct"`
	TaxCode          string            `json:"tax_code"`
	ExcludedFromBase bool              `json:"excluded_from_base"`
	AccountCode      string            `json:"account_code,omitempty"` // revenue/expense account override
	TaxClass         gst.TaxClass      `json:"tax_class,omitempty"`    // resolved at computation
	Net              valueobject.Money `json:"net"`
	Tax              valueobject.Money `json:"tax"`
	Gross            valueobject.Money `json:"gross"`
}

// Input returns the line as calculator input
func (l DocumentLine) Input() gst.LineInput {
	return gst.LineInput{
		Quantity:         l.Quantity,
		UnitPrice:        l.UnitPrice,
		DiscountPct:      l.DiscountPct,
		TaxCode:          l.TaxCode,
		ExcludedFromBase: l.ExcludedFromBase,
	}
}

// DocumentLines is a slice of DocumentLine that implements GORM
// Scanner/Valuer for JSONB storage
type DocumentLines []DocumentLine

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l DocumentLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *DocumentLines) Scan(value interface{}) error {
	if value == nil {
		*l = DocumentLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for DocumentLines")
	}

	return json.Unmarshal(bytes, l)
}

// ContactSnapshot is the billing contact as captured at approval.
// The live contact record may change afterwards; the document keeps
// what was true when it was approved.
type ContactSnapshot struct {
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address,omitempty"`
	TaxRegistration string `json:"tax_registration,omitempty"`
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c ContactSnapshot) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *ContactSnapshot) Scan(value interface{}) error {
	if value == nil {
		*c = ContactSnapshot{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for ContactSnapshot")
	}

	return json.Unmarshal(bytes, c)
}

// DefaultPaymentTermDays is the due-date default when none is given
const DefaultPaymentTermDays = 30

// Document is the financial document aggregate: an invoice, credit
// note, quote or purchase invoice moving through the lifecycle state
// machine. Lines and dates are mutable only while DRAFT; approval
// finalizes totals and freezes the document.
type Document struct {
	shared.TenantAggregateRoot
	Kind            DocumentKind         `json:"kind"`
	Number          string               `json:"number"`
	Status          DocumentStatus       `json:"status"`
	ContactID       uuid.UUID            `json:"contact_id"`
	Contact         ContactSnapshot      `json:"contact"`
	Currency        valueobject.Currency `json:"currency"`
	IssueDate       time.Time            `json:"issue_date"`
	DueDate         time.Time            `json:"due_date"`
	TaxPoint        time.Time            `json:"tax_point"`
	Reference       string               `json:"reference,omitempty"`
	Lines           DocumentLines        `json:"lines"`
	NetTotal        valueobject.Money    `json:"net_total"`
	TaxTotal        valueobject.Money    `json:"tax_total"`
	ExcludedTotal   valueobject.Money    `json:"excluded_total"`
	GrossTotal      valueobject.Money    `json:"gross_total"`
	SettledAmount   valueobject.Money    `json:"settled_amount"`
	JournalEntryID  *uuid.UUID           `json:"journal_entry_id,omitempty"`
	VoidReason      string               `json:"void_reason,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	SentAt          *time.Time           `json:"sent_at,omitempty"`
	ConvertedFromID *uuid.UUID           `json:"converted_from_id,omitempty"`
	ConvertedToID   *uuid.UUID           `json:"converted_to_id,omitempty"`
}

// NewDocument creates a new DRAFT document. A zero due date defaults
// to the issue date plus the standard payment term.
func NewDocument(
	tenantID uuid.UUID,
	kind DocumentKind,
	number string,
	contactID uuid.UUID,
	currency valueobject.Currency,
	issueDate time.Time,
	dueDate time.Time,
	taxPoint time.Time,
) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Document kind is not valid")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if contactID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Document contact is required")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if taxPoint.IsZero() {
		taxPoint = issueDate
	}
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, DefaultPaymentTermDays)
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot precede issue date")
	}

	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Number:              number,
		Status:              StatusDraft,
		ContactID:           contactID,
		Currency:            currency,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		TaxPoint:            taxPoint,
		Lines:               make(DocumentLines, 0),
		NetTotal:            valueobject.Zero(currency),
		TaxTotal:            valueobject.Zero(currency),
		ExcludedTotal:       valueobject.Zero(currency),
		GrossTotal:          valueobject.Zero(currency),
		SettledAmount:       valueobject.Zero(currency),
	}
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

// requireDraft guards line and date mutation
func (d *Document) requireDraft() error {
	if d.Status != StatusDraft {
		return shared.NewInvariantError("DOCUMENT_FROZEN", fmt.Sprintf(
			"Document %s is %s; lines are mutable only while DRAFT", d.Number, d.Status))
	}
	return nil
}

// AddLine appends a line while DRAFT. Computed amounts start at zero
// until the next ApplyComputation.
func (d *Document) AddLine(description string, quantity decimal.Decimal, unitPrice valueobject.Money, discountPct decimal.Decimal, taxCode string, excludedFromBase bool, accountCode string) (uuid.UUID, error) {
	if err := d.requireDraft(); err != nil {
		return uuid.Nil, err
	}
	if unitPrice.Currency() != d.Currency {
		return uuid.Nil, shared.NewDomainError("CURRENCY_MISMATCH", "Line currency does not match document currency")
	}
	line := DocumentLine{
		ID:               uuid.New(),
		Description:      description,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		DiscountPct:      discountPct,
		TaxCode:          taxCode,
		ExcludedFromBase: excludedFromBase,
		AccountCode:      accountCode,
		Net:              valueobject.Zero(d.Currency),
		Tax:              valueobject.Zero(d.Currency),
		Gross:            valueobject.Zero(d.Currency),
	}
	d.Lines = append(d.Lines, line)
	d.touch()
	return line.ID, nil
}

// UpdateLine replaces the input fields of a line while DRAFT
func (d *Document) UpdateLine(lineID uuid.UUID, description string, quantity decimal.Decimal, unitPrice valueobject.Money, discountPct decimal.Decimal, taxCode string, excludedFromBase bool, accountCode string) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	for i := range d.Lines {
		if d.Lines[i].ID != lineID {
			continue
		}
		if unitPrice.Currency() != d.Currency {
			return shared.NewDomainError("CURRENCY_MISMATCH", "Line currency does not match document currency")
		}
		d.Lines[i].Description = description
		d.Lines[i].Quantity = quantity
		d.Lines[i].UnitPrice = unitPrice
		d.Lines[i].DiscountPct = discountPct
		d.Lines[i].TaxCode = taxCode
		d.Lines[i].ExcludedFromBase = excludedFromBase
		d.Lines[i].AccountCode = accountCode
		d.touch()
		return nil
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Document line does not exist")
}

// RemoveLine deletes a line while DRAFT
func (d *Document) RemoveLine(lineID uuid.UUID) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			d.touch()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Document line does not exist")
}

// LineComputation pairs a line's computed totals with its resolved
// tax class
type LineComputation struct {
	Totals gst.LineTotals
	Class  gst.TaxClass
}

// ApplyComputation writes the calculator's authoritative per-line and
// document totals onto the aggregate. Only the engine calls this; the
// results must cover every line in order.
func (d *Document) ApplyComputation(perLine []LineComputation, totals gst.DocumentTotals) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	if len(perLine) != len(d.Lines) {
		return shared.NewInvariantError("COMPUTATION_MISMATCH", fmt.Sprintf(
			"Computed %d lines for a document with %d", len(perLine), len(d.Lines)))
	}
	for i := range d.Lines {
		d.Lines[i].Net = perLine[i].Totals.Net
		d.Lines[i].Tax = perLine[i].Totals.Tax
		d.Lines[i].Gross = perLine[i].Totals.Gross
		d.Lines[i].TaxClass = perLine[i].Class
	}
	d.NetTotal = totals.Net
	d.TaxTotal = totals.Tax
	d.ExcludedTotal = totals.ExcludedBase
	d.GrossTotal = totals.Gross
	d.touch()
	return nil
}

// SetContactSnapshot captures the billing contact. Called at approval
// so the document keeps the contact as it was.
func (d *Document) SetContactSnapshot(snapshot ContactSnapshot) {
	d.Contact = snapshot
}

// Approve freezes the document and, for posting kinds, links the
// journal entry produced by the posting engine. Requires at least one
// line and finalized totals.
func (d *Document) Approve(journalEntryID *uuid.UUID) error {
	if !d.Status.CanTransitionTo(StatusApproved) {
		return d.transitionError(StatusApproved)
	}
	if len(d.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot approve a document without lines")
	}
	if err := d.checkTotalsMirrorLines(); err != nil {
		return err
	}
	if d.Kind.Posts() {
		if journalEntryID == nil || *journalEntryID == uuid.Nil {
			return shared.NewInvariantError("MISSING_JOURNAL_ENTRY", "Approval of a posting document requires its journal entry")
		}
		id := *journalEntryID
		d.JournalEntryID = &id
	} else if journalEntryID != nil {
		return shared.NewInvariantError("UNEXPECTED_JOURNAL_ENTRY", "A quote approval must not carry a journal entry")
	}

	now := time.Now()
	d.Status = StatusApproved
	d.ApprovedAt = &now
	d.touch()
	d.AddDomainEvent(NewDocumentApprovedEvent(d))
	return nil
}

// MarkSent records transmission intent. Actual transmission is an
// external collaborator reading the status field.
func (d *Document) MarkSent() error {
	if !d.Status.CanTransitionTo(StatusSent) {
		return d.transitionError(StatusSent)
	}
	now := time.Now()
	d.Status = StatusSent
	d.SentAt = &now
	d.touch()
	return nil
}

// RecordSettlement applies a settlement amount. Cumulative settlements
// may never exceed the gross total; full settlement moves the document
// to SETTLED, anything less to PARTIALLY_SETTLED.
func (d *Document) RecordSettlement(amount valueobject.Money) error {
	if d.Kind == KindQuote {
		return shared.NewInvariantError("QUOTE_SETTLEMENT", "Quotes carry no balance to settle")
	}
	switch d.Status {
	case StatusApproved, StatusSent, StatusPartiallySettled:
	default:
		return shared.NewInvariantError("INVALID_TRANSITION", fmt.Sprintf(
			"Cannot settle a document in %s status", d.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Settlement amount must be positive")
	}
	newSettled, err := d.SettledAmount.Add(amount)
	if err != nil {
		return shared.NewDomainError("CURRENCY_MISMATCH", err.Error())
	}
	over, err := newSettled.GreaterThan(d.GrossTotal)
	if err != nil {
		return shared.NewDomainError("CURRENCY_MISMATCH", err.Error())
	}
	if over {
		return shared.NewDomainError("OVER_SETTLEMENT", fmt.Sprintf(
			"Settlement of %s would exceed the outstanding balance %s",
			amount.String(), d.Outstanding().String()))
	}

	d.SettledAmount = newSettled
	if newSettled.Equals(d.GrossTotal) {
		d.Status = StatusSettled
	} else {
		d.Status = StatusPartiallySettled
	}
	d.touch()
	d.AddDomainEvent(NewDocumentSettledEvent(d, amount))
	return nil
}

// Outstanding returns the unsettled balance
func (d *Document) Outstanding() valueobject.Money {
	return d.GrossTotal.MustSubtract(d.SettledAmount)
}

// Void terminates an approved document. A reason is mandatory; for
// posting kinds the caller must separately post the reversal entry the
// void implies.
func (d *Document) Void(reason string) error {
	if reason == "" {
		return shared.NewDomainError("VOID_REASON_REQUIRED", "Voiding a document requires a reason")
	}
	if !d.Status.CanTransitionTo(StatusVoid) {
		return d.transitionError(StatusVoid)
	}
	d.Status = StatusVoid
	d.VoidReason = reason
	d.touch()
	d.AddDomainEvent(NewDocumentVoidedEvent(d, reason))
	return nil
}

// MarkConverted closes a quote after conversion to an invoice
func (d *Document) MarkConverted(invoiceID uuid.UUID) error {
	if d.Kind != KindQuote {
		return shared.NewInvariantError("NOT_A_QUOTE", "Only quotes can be converted")
	}
	if !d.Status.CanTransitionTo(StatusConverted) {
		return d.transitionError(StatusConverted)
	}
	id := invoiceID
	d.Status = StatusConverted
	d.ConvertedToID = &id
	d.touch()
	d.AddDomainEvent(NewQuoteConvertedEvent(d, invoiceID))
	return nil
}

// ConvertToInvoice builds a fresh DRAFT invoice from a quote's lines.
// Conversion has no financial effect until the invoice is approved in
// its own right; the quote itself is closed via MarkConverted.
func (d *Document) ConvertToInvoice(invoiceNumber string, issueDate time.Time) (*Document, error) {
	if d.Kind != KindQuote {
		return nil, shared.NewInvariantError("NOT_A_QUOTE", "Only quotes can be converted")
	}
	if !d.Status.CanTransitionTo(StatusConverted) {
		return nil, d.transitionError(StatusConverted)
	}

	invoice, err := NewDocument(d.TenantID, KindInvoice, invoiceNumber, d.ContactID, d.Currency, issueDate, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	quoteID := d.ID
	invoice.ConvertedFromID = &quoteID
	invoice.Reference = d.Number
	invoice.Contact = d.Contact
	for _, l := range d.Lines {
		if _, err := invoice.AddLine(l.Description, l.Quantity, l.UnitPrice, l.DiscountPct, l.TaxCode, l.ExcludedFromBase, l.AccountCode); err != nil {
			return nil, err
		}
	}
	return invoice, nil
}

// SupplyLines projects an approved document's lines into period
// aggregation form, with the kind's sign folded in.
func (d *Document) SupplyLines() []gst.SupplyLine {
	if !d.Kind.Posts() {
		return nil
	}
	sign := d.Kind.Sign()
	out := make([]gst.SupplyLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		class := l.TaxClass
		if d.Kind.IsPurchase() {
			class = gst.ClassPurchase
		}
		out = append(out, gst.SupplyLine{
			TaxClass:         class,
			ExcludedFromBase: l.ExcludedFromBase,
			Net:              l.Net.Amount().Mul(sign),
			Tax:              l.Tax.Amount().Mul(sign),
		})
	}
	return out
}

// checkTotalsMirrorLines verifies the aggregate totals are exactly the
// sums of the authoritative line amounts. A mismatch means totals were
// never finalized through ApplyComputation or were tampered with.
func (d *Document) checkTotalsMirrorLines() error {
	net := valueobject.Zero(d.Currency)
	tax := valueobject.Zero(d.Currency)
	gross := valueobject.Zero(d.Currency)
	for _, l := range d.Lines {
		net = net.MustAdd(l.Net)
		tax = tax.MustAdd(l.Tax)
		gross = gross.MustAdd(l.Gross)
	}
	if !net.Equals(d.NetTotal) || !tax.Equals(d.TaxTotal) || !gross.Equals(d.GrossTotal) {
		return shared.NewInvariantError("TOTALS_NOT_FINALIZED", fmt.Sprintf(
			"Document %s totals do not mirror its line sums", d.Number))
	}
	if gross.IsZero() && len(d.Lines) > 0 && d.Lines[0].Net.IsZero() && !d.Lines[0].UnitPrice.IsZero() {
		return shared.NewInvariantError("TOTALS_NOT_FINALIZED", fmt.Sprintf(
			"Document %s lines have never been computed", d.Number))
	}
	return nil
}

func (d *Document) transitionError(target DocumentStatus) error {
	return shared.NewInvariantError("INVALID_TRANSITION", fmt.Sprintf(
		"Document %s cannot move from %s to %s", d.Number, d.Status, target))
}

func (d *Document) touch() {
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}
