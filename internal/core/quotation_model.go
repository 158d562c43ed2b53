package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus is the quotation lifecycle state:
//
//	Draft → {Sent, Declined}
//	Sent → {Accepted, Declined, Expired}
//	Accepted, Declined and Expired are terminal.
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "Draft"
	QuotationStatusSent     QuotationStatus = "Sent"
	QuotationStatusAccepted QuotationStatus = "Accepted"
	QuotationStatusDeclined QuotationStatus = "Declined"
	QuotationStatusExpired  QuotationStatus = "Expired"
)

// Quotation is a priced offer. It shares the invoice totals engine; the
// levy and VAT percentages are snapshotted at creation so a later rate
// change cannot silently reprice an open quote. InvoiceNumber is set when
// the quotation is accepted and converted.
type Quotation struct {
	ID              int               `json:"id"`
	QuotationNumber string            `json:"quotation_number"`
	CustomerID      int               `json:"customer_id"`
	CustomerCode    string            `json:"customer_code"` // joined from customers
	CustomerName    string            `json:"customer_name"` // joined from customers
	Status          QuotationStatus   `json:"status"`
	QuoteDate       string            `json:"quote_date"`  // YYYY-MM-DD
	ValidUntil      string            `json:"valid_until"` // YYYY-MM-DD, may be empty
	PPDALevyEnabled bool              `json:"ppda_levy_enabled"`
	PPDALevyPercent decimal.Decimal   `json:"ppda_levy_percentage"`
	VATPercent      decimal.Decimal   `json:"vat_percentage"`
	GrossTotal      decimal.Decimal   `json:"gross_total_amount"`
	PPDALevyAmount  decimal.Decimal   `json:"ppda_levy_amount"`
	VATAmount       decimal.Decimal   `json:"vat_amount"`
	TotalNet        decimal.Decimal   `json:"total_net_amount"`
	Notes           string            `json:"notes"`
	InvoiceNumber   string            `json:"invoice_number,omitempty"`
	Lines           []InvoiceLineItem `json:"lines"`
	CreatedBy       int               `json:"created_by"`
	CreatedAt       time.Time         `json:"created_at"`
}

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusDraft: {QuotationStatusSent, QuotationStatusDeclined},
	QuotationStatusSent:  {QuotationStatusAccepted, QuotationStatusDeclined, QuotationStatusExpired},
}

// CanTransitionQuotation reports whether the quotation state machine
// allows the move.
func CanTransitionQuotation(from, to QuotationStatus) bool {
	for _, allowed := range quotationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
