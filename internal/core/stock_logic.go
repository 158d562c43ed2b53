package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ApplyMovement returns the level after applying one movement. Pure: the
// input level is not modified. RECEIPT and RETURN add to on-hand and
// total_received; SALE subtracts and adds to total_sold, failing with
// InsufficientStockError when the result would go negative under the
// reject policy; ADJUSTMENT adds the signed quantity and touches neither
// running total.
func ApplyMovement(level StockLevel, m StockMovement, policy NegativeStockPolicy) (StockLevel, error) {
	if m.Type != MovementAdjustment && m.Quantity.IsZero() {
		return level, validationErrorf("quantity", "movement quantity must be non-zero")
	}

	qty := m.Quantity.Abs()
	switch m.Type {
	case MovementReceipt, MovementReturn:
		level.QuantityInStock = level.QuantityInStock.Add(qty)
		level.TotalReceived = level.TotalReceived.Add(qty)
	case MovementSale:
		remaining := level.QuantityInStock.Sub(qty)
		if remaining.IsNegative() && policy != NegativeStockAllow {
			return level, &InsufficientStockError{
				ProductID: m.ProductID,
				Available: level.QuantityInStock,
				Requested: qty,
			}
		}
		level.QuantityInStock = remaining
		level.TotalSold = level.TotalSold.Add(qty)
	case MovementAdjustment:
		level.QuantityInStock = level.QuantityInStock.Add(m.Quantity)
	default:
		return level, validationErrorf("type", "unknown movement type %q", m.Type)
	}

	if !m.OccurredAt.IsZero() {
		level.LastUpdated = m.OccurredAt
	}
	return level, nil
}

// ClassifyStatus maps (quantity, minimum) to a stock status:
// OUT_OF_STOCK when qty <= 0, LOW_STOCK when 0 < qty <= minimum,
// IN_STOCK otherwise.
func ClassifyStatus(qty, minimum decimal.Decimal) StockStatus {
	switch {
	case qty.LessThanOrEqual(decimal.Zero):
		return StockStatusOutOfStock
	case qty.LessThanOrEqual(minimum):
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// RunningBalance replays movements forward in time and returns each one
// paired with the balance after it. Ordering is chronological with ties
// broken by ascending row id, so a replay of the full history from zero
// reproduces the cached level.
func RunningBalance(movements []StockMovement) []LedgerLine {
	ordered := make([]StockMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	lines := make([]LedgerLine, 0, len(ordered))
	balance := decimal.Zero
	for _, m := range ordered {
		balance = balance.Add(m.SignedQuantity())
		lines = append(lines, LedgerLine{Movement: m, BalanceAfter: balance})
	}
	return lines
}
