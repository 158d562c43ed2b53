package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the document state. Transitions are monotonic except
// for explicit cancellation:
//
//	Draft → {Sent, Cancelled}
//	Sent → {Partially Paid, Paid, Overdue, Cancelled}
//	Partially Paid → {Paid, Overdue, Cancelled}
//	Overdue → {Partially Paid, Paid, Cancelled}
//	Paid and Cancelled are terminal.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "Draft"
	InvoiceStatusSent          InvoiceStatus = "Sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "Partially Paid"
	InvoiceStatusPaid          InvoiceStatus = "Paid"
	InvoiceStatusOverdue       InvoiceStatus = "Overdue"
	InvoiceStatusCancelled     InvoiceStatus = "Cancelled"
)

// InvoiceLineItem is one billed line. TotalAmount is always derived from
// quantity × rate and recomputed whenever either changes — never set
// independently.
type InvoiceLineItem struct {
	ID          int             `json:"id"`
	InvoiceID   int             `json:"invoice_id"`
	LineNumber  int             `json:"line_number"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	RatePerUnit decimal.Decimal `json:"rate_per_unit"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Invoice is a billing document header with derived financial fields.
// Gross, levy, VAT and net are recomputed as a unit whenever line items
// or the levy/VAT inputs change.
type Invoice struct {
	ID              int               `json:"id"`
	InvoiceNumber   string            `json:"invoice_number"`
	CustomerID      int               `json:"customer_id"`
	CustomerCode    string            `json:"customer_code"` // joined from customers
	CustomerName    string            `json:"customer_name"` // joined from customers
	Status          InvoiceStatus     `json:"status"`
	InvoiceDate     string            `json:"invoice_date"` // YYYY-MM-DD
	DueDate         string            `json:"due_date"`     // YYYY-MM-DD, may be empty
	PPDALevyEnabled bool              `json:"ppda_levy_enabled"`
	PPDALevyPercent decimal.Decimal   `json:"ppda_levy_percentage"`
	VATPercent      decimal.Decimal   `json:"vat_percentage"`
	GrossTotal      decimal.Decimal   `json:"gross_total_amount"`
	PPDALevyAmount  decimal.Decimal   `json:"ppda_levy_amount"`
	BeforeVAT       decimal.Decimal   `json:"amount_before_vat"`
	VATAmount       decimal.Decimal   `json:"vat_amount"`
	TotalNet        decimal.Decimal   `json:"total_net_amount"`
	TotalPaid       decimal.Decimal   `json:"total_paid"`
	Notes           string            `json:"notes"`
	Lines           []InvoiceLineItem `json:"lines"`
	CreatedBy       int               `json:"created_by"`
	CreatedAt       time.Time         `json:"created_at"`
}

// BalanceDue is the derived outstanding amount. Never negative in
// well-formed data; callers verify rather than clamp.
func (inv Invoice) BalanceDue() decimal.Decimal {
	return inv.TotalNet.Sub(inv.TotalPaid)
}

// Payment is an immutable ledger entry against one invoice. Summing
// payments with payment_date <= an as-of date yields the point-in-time
// paid amount used by statements and aging.
type Payment struct {
	ID              int             `json:"id"`
	InvoiceID       int             `json:"invoice_id"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	PaymentDate     string          `json:"payment_date"` // YYYY-MM-DD
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number"`
	RecordedBy      int             `json:"recorded_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LineItemInput is the caller-facing shape for creating invoice or
// quotation lines.
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	Unit        string
	RatePerUnit decimal.Decimal
}
