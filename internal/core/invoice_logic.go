package core

import (
	"github.com/shopspring/decimal"
)

// PaymentTolerance absorbs the ±0.01 penny drift that independent
// per-field rounding can introduce. An invoice is Paid when its balance
// is within this tolerance of zero, and a payment may exceed the balance
// by at most this much.
var PaymentTolerance = decimal.New(5, -3) // 0.005

var oneHundred = decimal.NewFromInt(100)

// VATBase selects which amount VAT is computed on. The stored reports use
// the gross total alone; the legacy on-screen calculator applied VAT to
// gross plus levy. Both are supported so the business can settle the
// question in configuration rather than code.
type VATBase string

const (
	VATBaseGross         VATBase = "gross"
	VATBaseGrossPlusLevy VATBase = "gross_plus_levy"
)

// TotalsConfig carries the levy/tax inputs for one totals computation.
type TotalsConfig struct {
	PPDAEnabled bool
	PPDAPercent decimal.Decimal // fixed at 1.00 in practice
	VATPercent  decimal.Decimal // default 16.5
	VATBase     VATBase
}

// InvoiceTotals is the derived financial breakdown of a document.
// Each field is rounded to 2 decimal places independently, matching how
// the figures are displayed and persisted; Net is the sum of the rounded
// parts, not a rounding of the unrounded sum.
type InvoiceTotals struct {
	Gross     decimal.Decimal
	PPDALevy  decimal.Decimal
	BeforeVAT decimal.Decimal
	VAT       decimal.Decimal
	Net       decimal.Decimal
}

// LineTotal computes quantity × rate rounded half-up to 2 decimal places.
func LineTotal(quantity, ratePerUnit decimal.Decimal) decimal.Decimal {
	return quantity.Mul(ratePerUnit).Round(2)
}

// ComputeLineTotals returns the items with TotalAmount recomputed from
// quantity and rate. The stored total is never trusted as input.
func ComputeLineTotals(items []InvoiceLineItem) []InvoiceLineItem {
	out := make([]InvoiceLineItem, len(items))
	for i, item := range items {
		item.TotalAmount = LineTotal(item.Quantity, item.RatePerUnit)
		out[i] = item
	}
	return out
}

// ComputeTotals derives the full financial breakdown for a set of lines.
// Gross is the sum of rounded line totals; the levy is a percentage of
// gross (zero when disabled); VAT is a percentage of the configured base;
// net = before-VAT base + VAT + levy. Round-as-you-go on every sub-amount.
func ComputeTotals(items []InvoiceLineItem, cfg TotalsConfig) InvoiceTotals {
	gross := decimal.Zero
	for _, item := range items {
		gross = gross.Add(LineTotal(item.Quantity, item.RatePerUnit))
	}
	gross = gross.Round(2)

	levy := decimal.Zero
	if cfg.PPDAEnabled {
		levy = gross.Mul(cfg.PPDAPercent).Div(oneHundred).Round(2)
	}

	beforeVAT := gross
	if cfg.VATBase == VATBaseGrossPlusLevy {
		beforeVAT = gross.Add(levy)
	}
	vat := beforeVAT.Mul(cfg.VATPercent).Div(oneHundred).Round(2)

	return InvoiceTotals{
		Gross:     gross,
		PPDALevy:  levy,
		BeforeVAT: beforeVAT,
		VAT:       vat,
		Net:       gross.Add(vat).Add(levy).Round(2),
	}
}

// invoiceTransitions is the allowed status graph. Overdue is re-entrant to
// the payment states because a late invoice can still be settled.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:         {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:          {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusPartiallyPaid: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue:       {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:          nil,
	InvoiceStatusCancelled:     nil,
}

// CanTransition reports whether moving from one status to another is
// allowed by the document state machine.
func CanTransition(from, to InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusAfterPayment recomputes the document status once total_paid has
// changed: Paid when the balance is within tolerance of zero, Partially
// Paid when something but not everything has been paid, otherwise the
// current status stands. Overdue is never set here; a separate sweep
// compares due dates against the clock.
func StatusAfterPayment(current InvoiceStatus, totalPaid, totalNet decimal.Decimal) InvoiceStatus {
	balance := totalNet.Sub(totalPaid)
	switch {
	case balance.LessThanOrEqual(PaymentTolerance):
		return InvoiceStatusPaid
	case totalPaid.GreaterThan(decimal.Zero) && totalPaid.LessThan(totalNet):
		return InvoiceStatusPartiallyPaid
	default:
		return current
	}
}

// ValidatePayment checks a proposed payment amount against the invoice
// balance. Amounts must be positive and may exceed the balance only
// within the rounding tolerance.
func ValidatePayment(inv Invoice, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return validationErrorf("amount_paid", "payment amount must be positive, got %s", amount)
	}
	balance := inv.BalanceDue()
	if amount.GreaterThan(balance.Add(PaymentTolerance)) {
		return &OverpaymentError{
			InvoiceNumber: inv.InvoiceNumber,
			Balance:       balance,
			Attempted:     amount,
		}
	}
	return nil
}
