package invoicing

import (
	"github.com/ledgersg/backend/internal/domain/accounting"
	"github.com/ledgersg/backend/internal/domain/shared"
	"github.com/ledgersg/backend/internal/domain/shared/valueobject"
)

// PostingPolicy names the control accounts a document posting uses.
// The environment supplies it; the engine never hard-codes account
// codes.
type PostingPolicy struct {
	Receivable       string // asset: amounts owed by customers
	Payable          string // liability: amounts owed to suppliers
	OutputTax        string // liability: tax collected on sales
	InputTax         string // asset: tax claimable on purchases
	ExcludedDeposits string // liability: excluded-from-base amounts held
	DefaultRevenue   string // fallback when a sale line names no account
	DefaultExpense   string // fallback when a purchase line names no account
}

// Validate checks that every control account is named
func (p PostingPolicy) Validate() error {
	for _, code := range []string{p.Receivable, p.Payable, p.OutputTax, p.InputTax, p.ExcludedDeposits, p.DefaultRevenue, p.DefaultExpense} {
		if code == "" {
			return shared.NewDomainError("INCOMPLETE_POSTING_POLICY", "Posting policy must name every control account")
		}
	}
	return nil
}

// BuildPostingLines derives the balanced journal proposal a document's
// approval implies. Positive amounts debit, negative credit; the
// proposal always balances because it is built from gross = net + tax
// identities on already-finalized amounts.
//
//	invoice:          Dr receivable gross / Cr revenue net, output tax, deposits
//	credit note:      the invoice posting with every side flipped
//	purchase invoice: Dr expense net, input tax, deposits / Cr payable gross
//
// Quotes have no posting; asking for one is an invariant violation in
// the caller.
func (d *Document) BuildPostingLines(policy PostingPolicy) ([]accounting.ProposedLine, error) {
	if !d.Kind.Posts() {
		return nil, shared.NewInvariantError("NON_POSTING_KIND", "Quotes do not produce journal entries")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if len(d.Lines) == 0 {
		return nil, shared.NewInvariantError("EMPTY_ENTRY", "Document has no lines to post")
	}
	if err := d.checkTotalsMirrorLines(); err != nil {
		return nil, err
	}

	if d.Kind.IsPurchase() {
		return d.purchasePostingLines(policy)
	}
	return d.salePostingLines(policy)
}

// salePostingLines posts a sale document. A credit note is the same
// shape with the control side and every line flipped.
func (d *Document) salePostingLines(policy PostingPolicy) ([]accounting.ProposedLine, error) {
	flip := d.Kind == KindCreditNote

	lines := make([]accounting.ProposedLine, 0, len(d.Lines)+2)
	lines = append(lines, accounting.ProposedLine{
		AccountCode: policy.Receivable,
		Amount:      signed(d.GrossTotal, !flip),
		Memo:        d.Number,
	})

	for _, l := range d.Lines {
		if l.Net.IsZero() {
			continue
		}
		account := policy.DefaultRevenue
		if l.ExcludedFromBase {
			account = policy.ExcludedDeposits
		} else if l.AccountCode != "" {
			account = l.AccountCode
		}
		lines = append(lines, accounting.ProposedLine{
			AccountCode: account,
			Amount:      signed(l.Net, flip),
			Memo:        l.Description,
		})
	}

	if !d.TaxTotal.IsZero() {
		lines = append(lines, accounting.ProposedLine{
			AccountCode: policy.OutputTax,
			Amount:      signed(d.TaxTotal, flip),
			Memo:        d.Number,
		})
	}
	return lines, nil
}

// purchasePostingLines posts a purchase invoice
func (d *Document) purchasePostingLines(policy PostingPolicy) ([]accounting.ProposedLine, error) {
	lines := make([]accounting.ProposedLine, 0, len(d.Lines)+2)

	for _, l := range d.Lines {
		if l.Net.IsZero() {
			continue
		}
		account := policy.DefaultExpense
		if l.ExcludedFromBase {
			account = policy.ExcludedDeposits
		} else if l.AccountCode != "" {
			account = l.AccountCode
		}
		lines = append(lines, accounting.ProposedLine{
			AccountCode: account,
			Amount:      signed(l.Net, true),
			Memo:        l.Description,
		})
	}

	if !d.TaxTotal.IsZero() {
		lines = append(lines, accounting.ProposedLine{
			AccountCode: policy.InputTax,
			Amount:      signed(d.TaxTotal, true),
			Memo:        d.Number,
		})
	}

	lines = append(lines, accounting.ProposedLine{
		AccountCode: policy.Payable,
		Amount:      signed(d.GrossTotal, false),
		Memo:        d.Number,
	})
	return lines, nil
}

// signed returns the amount on the debit side when debit is true, the
// credit side otherwise
func signed(m valueobject.Money, debit bool) valueobject.Money {
	if debit {
		return m
	}
	return m.Negate()
}
