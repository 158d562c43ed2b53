package app

import (
	"backoffice/internal/core"
)

// MovementResult wraps a recorded movement with the level it produced.
type MovementResult struct {
	Movement core.StockMovement `json:"movement"`
	Level    core.StockLevel    `json:"level"`
	Status   core.StockStatus   `json:"status"`
}

// StockLevelsResult is a list of cached levels with their classification.
type StockLevelsResult struct {
	Levels []core.StockReportRow `json:"levels"`
}

// LedgerResult is a product's movement history with running balances.
type LedgerResult struct {
	ProductCode string            `json:"product_code"`
	Lines       []core.LedgerLine `json:"lines"`
}

// InvoiceResult wraps one invoice.
type InvoiceResult struct {
	Invoice core.Invoice `json:"invoice"`
}

// InvoiceListResult wraps a list of invoices.
type InvoiceListResult struct {
	Invoices []core.Invoice `json:"invoices"`
}

// PaymentResult wraps one recorded payment and the invoice it settled
// against, refetched after the update.
type PaymentResult struct {
	Payment core.Payment `json:"payment"`
	Invoice core.Invoice `json:"invoice"`
}

// PaymentBatchResult wraps the payments of a batch or listing.
type PaymentBatchResult struct {
	Payments []core.Payment `json:"payments"`
}

// QuotationResult wraps one quotation.
type QuotationResult struct {
	Quotation core.Quotation `json:"quotation"`
}

// QuotationListResult wraps a list of quotations.
type QuotationListResult struct {
	Quotations []core.Quotation `json:"quotations"`
}
