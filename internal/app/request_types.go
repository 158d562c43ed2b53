package app

import (
	"github.com/shopspring/decimal"
)

// MovementRequest is the input for one stock movement. Quantity is a
// magnitude for receipts, removals and returns, and a signed value for
// adjustments.
type MovementRequest struct {
	ProductCode    string          `validate:"required"`
	Quantity       decimal.Decimal `validate:"required"`
	OccurredAt     string          `validate:"omitempty,datetime=2006-01-02"`
	Reference      string          `validate:"max=200"`
	IdempotencyKey string          `validate:"max=100"`
	ActorID        int             `validate:"required,gt=0"`
}

// InvoiceLineRequest is one line within a create request.
type InvoiceLineRequest struct {
	Description string          `validate:"required,max=500"`
	Quantity    decimal.Decimal `validate:"required"`
	Unit        string          `validate:"max=50"`
	RatePerUnit decimal.Decimal `validate:"required"`
}

// CreateInvoiceRequest is the input for creating a new Draft invoice.
type CreateInvoiceRequest struct {
	CustomerCode string               `validate:"required"`
	InvoiceDate  string               `validate:"omitempty,datetime=2006-01-02"`
	DueDate      string               `validate:"omitempty,datetime=2006-01-02"`
	PPDAEnabled  bool                 `validate:"-"`
	Notes        string               `validate:"max=2000"`
	Lines        []InvoiceLineRequest `validate:"required,min=1,dive"`
	ActorID      int                  `validate:"required,gt=0"`
}

// RecordPaymentRequest is the input for applying one payment.
type RecordPaymentRequest struct {
	InvoiceNumber   string          `validate:"required"`
	Amount          decimal.Decimal `validate:"required"`
	PaymentDate     string          `validate:"omitempty,datetime=2006-01-02"`
	Method          string          `validate:"omitempty,oneof=cash bank_transfer cheque mobile_money"`
	ReferenceNumber string          `validate:"max=100"`
	ActorID         int             `validate:"required,gt=0"`
}

// CreateQuotationRequest is the input for creating a new Draft quotation.
type CreateQuotationRequest struct {
	CustomerCode string               `validate:"required"`
	QuoteDate    string               `validate:"omitempty,datetime=2006-01-02"`
	ValidUntil   string               `validate:"omitempty,datetime=2006-01-02"`
	PPDAEnabled  bool                 `validate:"-"`
	Notes        string               `validate:"max=2000"`
	Lines        []InvoiceLineRequest `validate:"required,min=1,dive"`
	ActorID      int                  `validate:"required,gt=0"`
}

// CustomerRequest is the input for creating or updating a customer.
type CustomerRequest struct {
	Code    string `validate:"required,max=50"`
	Name    string `validate:"required,max=200"`
	Email   string `validate:"omitempty,email"`
	Phone   string `validate:"max=50"`
	Address string `validate:"max=500"`
	TPIN    string `validate:"max=50"`
}

// ProductRequest is the input for creating or updating a product.
type ProductRequest struct {
	Code              string          `validate:"required,max=50"`
	Name              string          `validate:"required,max=200"`
	Description       string          `validate:"max=1000"`
	Unit              string          `validate:"max=50"`
	UnitPrice         decimal.Decimal `validate:"-"`
	MinimumStockLevel decimal.Decimal `validate:"-"`
}
