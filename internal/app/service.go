package app

import (
	"context"

	"backoffice/internal/core"
)

// ApplicationService is the single interface all UI adapters call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ReceiveStock records a goods receipt against a product.
	ReceiveStock(ctx context.Context, req MovementRequest) (*MovementResult, error)

	// RemoveStock records a sale/issue. Fails when the product would go
	// negative and the negative-stock policy is reject.
	RemoveStock(ctx context.Context, req MovementRequest) (*MovementResult, error)

	// AdjustStock records a signed stocktake correction.
	AdjustStock(ctx context.Context, req MovementRequest) (*MovementResult, error)

	// ReturnStock records a customer return back into stock.
	ReturnStock(ctx context.Context, req MovementRequest) (*MovementResult, error)

	// GetStockLevels returns the cached level and status for every product.
	GetStockLevels(ctx context.Context) (*StockLevelsResult, error)

	// GetLowStock returns only LOW_STOCK and OUT_OF_STOCK products.
	GetLowStock(ctx context.Context) (*StockLevelsResult, error)

	// GetTransactionHistory returns a product's movement ledger with a
	// running balance after each entry.
	GetTransactionHistory(ctx context.Context, productCode string) (*LedgerResult, error)

	// CreateInvoice creates a new Draft invoice, deriving all totals.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error)

	// SendInvoice transitions Draft → Sent.
	SendInvoice(ctx context.Context, invoiceNumber string) (*InvoiceResult, error)

	// CancelInvoice moves a non-terminal invoice to Cancelled.
	CancelInvoice(ctx context.Context, invoiceNumber string) (*InvoiceResult, error)

	// GetInvoice returns one invoice with its lines.
	GetInvoice(ctx context.Context, invoiceNumber string) (*InvoiceResult, error)

	// ListInvoices returns invoices, optionally filtered by status.
	ListInvoices(ctx context.Context, status string) (*InvoiceListResult, error)

	// MarkOverdue sweeps open invoices past their due date into Overdue.
	// asOf is YYYY-MM-DD; empty means today. Returns how many changed.
	MarkOverdue(ctx context.Context, asOf string) (int, error)

	// RecordPayment applies one payment to an invoice.
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error)

	// RecordPaymentBatch applies several payments atomically; one failure
	// rolls back the whole batch.
	RecordPaymentBatch(ctx context.Context, reqs []RecordPaymentRequest) (*PaymentBatchResult, error)

	// ListPayments returns the payment ledger for one invoice.
	ListPayments(ctx context.Context, invoiceNumber string) (*PaymentBatchResult, error)

	// CreateQuotation creates a new Draft quotation with snapshotted rates.
	CreateQuotation(ctx context.Context, req CreateQuotationRequest) (*QuotationResult, error)

	// SendQuotation transitions Draft → Sent.
	SendQuotation(ctx context.Context, quotationNumber string) (*QuotationResult, error)

	// DeclineQuotation marks a quotation Declined.
	DeclineQuotation(ctx context.Context, quotationNumber string) (*QuotationResult, error)

	// AcceptQuotation converts a Sent quotation into a Draft invoice
	// priced at the quoted rates, recorded against the accepting user.
	// dueDate may be empty.
	AcceptQuotation(ctx context.Context, actorID int, quotationNumber, dueDate string) (*QuotationResult, error)

	// ExpireQuotations sweeps Sent quotations past valid_until into
	// Expired. Returns how many changed.
	ExpireQuotations(ctx context.Context, asOf string) (int, error)

	// GetQuotation returns one quotation with its lines.
	GetQuotation(ctx context.Context, quotationNumber string) (*QuotationResult, error)

	// ListQuotations returns quotations, optionally filtered by status.
	ListQuotations(ctx context.Context, status string) (*QuotationListResult, error)

	// GetCustomerStatement builds the point-in-time statement for one
	// customer. asOf is YYYY-MM-DD; empty means today.
	GetCustomerStatement(ctx context.Context, customerCode, asOf string) (*core.CustomerStatement, error)

	// GetAgingReport buckets all outstanding balances per customer.
	GetAgingReport(ctx context.Context, asOf string) (*core.AgingReport, error)

	// GetStockReport returns every product's level with its status.
	GetStockReport(ctx context.Context) ([]core.StockReportRow, error)

	// CreateCustomer adds a customer master record.
	CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error)

	// UpdateCustomer updates the named customer's details.
	UpdateCustomer(ctx context.Context, code string, req CustomerRequest) (*core.Customer, error)

	// ListCustomers returns all customers ordered by name.
	ListCustomers(ctx context.Context) ([]core.Customer, error)

	// CreateProduct adds a product master record.
	CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error)

	// UpdateProduct updates the named product's details.
	UpdateProduct(ctx context.Context, code string, req ProductRequest) (*core.Product, error)

	// DeactivateProduct hides a product from new documents and movements.
	DeactivateProduct(ctx context.Context, code string) error

	// ListProducts returns products, optionally active only.
	ListProducts(ctx context.Context, activeOnly bool) ([]core.Product, error)
}
