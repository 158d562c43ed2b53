package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActorContext identifies the user performing a mutating operation.
// It is passed explicitly into every write path and persisted on the
// resulting rows; there is no ambient session state.
type ActorContext struct {
	UserID int
}

// Customer is a billing customer master record.
type Customer struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TPIN      string    `json:"tpin"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a stockable item in the catalog. MinimumStockLevel drives the
// low-stock classification on the cached inventory level.
type Product struct {
	ID                int             `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	MinimumStockLevel decimal.Decimal `json:"minimum_stock_level"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
}
