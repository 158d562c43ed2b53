package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus classifies a cached stock level against its minimum threshold.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "IN_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// MovementType is the kind of a stock ledger entry.
type MovementType string

const (
	MovementReceipt    MovementType = "RECEIPT"
	MovementSale       MovementType = "SALE"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReturn     MovementType = "RETURN"
)

// NegativeStockPolicy decides whether a sale may drive the cached level
// below zero (backorder) or must fail with InsufficientStockError.
type NegativeStockPolicy string

const (
	NegativeStockReject NegativeStockPolicy = "reject"
	NegativeStockAllow  NegativeStockPolicy = "allow"
)

// StockMovement is one append-only ledger entry for a product.
// Quantity carries a magnitude for RECEIPT/SALE/RETURN and a signed value
// for ADJUSTMENT. Immutable once written.
type StockMovement struct {
	ID             int             `json:"id"`
	ProductID      int             `json:"product_id"`
	ProductCode    string          `json:"product_code"` // joined from products
	Type           MovementType    `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	OccurredAt     time.Time       `json:"occurred_at"`
	ActorID        int             `json:"actor_id"`
	Reference      string          `json:"reference"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// SignedQuantity returns the movement's effect on the running balance:
// positive for receipts and returns, negative for sales, as-recorded for
// adjustments.
func (m StockMovement) SignedQuantity() decimal.Decimal {
	switch m.Type {
	case MovementReceipt, MovementReturn:
		return m.Quantity.Abs()
	case MovementSale:
		return m.Quantity.Abs().Neg()
	default:
		return m.Quantity
	}
}

// StockLevel is the cached per-product aggregate. QuantityInStock must equal
// the sum of signed movement quantities since inception; the inventory
// service maintains that under a row lock.
type StockLevel struct {
	ProductID         int             `json:"product_id"`
	ProductCode       string          `json:"product_code"` // joined from products
	ProductName       string          `json:"product_name"` // joined from products
	QuantityInStock   decimal.Decimal `json:"quantity_in_stock"`
	MinimumStockLevel decimal.Decimal `json:"minimum_stock_level"`
	TotalReceived     decimal.Decimal `json:"total_received"`
	TotalSold         decimal.Decimal `json:"total_sold"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// Status classifies this level per the threshold rule. A quantity exactly
// at the minimum is LOW_STOCK.
func (l StockLevel) Status() StockStatus {
	return ClassifyStatus(l.QuantityInStock, l.MinimumStockLevel)
}

// LedgerLine pairs a movement with the running balance after applying it,
// for transaction-history display.
type LedgerLine struct {
	Movement     StockMovement   `json:"movement"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}
