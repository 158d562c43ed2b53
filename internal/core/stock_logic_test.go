package core_test

import (
	"errors"
	"testing"
	"time"

	"backoffice/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		qty      string
		minimum  string
		expected core.StockStatus
	}{
		{"zero quantity", "0", "10", core.StockStatusOutOfStock},
		{"negative quantity (backorder)", "-3", "10", core.StockStatusOutOfStock},
		{"below minimum", "5", "10", core.StockStatusLowStock},
		{"exactly at minimum", "10", "10", core.StockStatusLowStock},
		{"just above minimum", "10.01", "10", core.StockStatusInStock},
		{"well stocked", "100", "10", core.StockStatusInStock},
		{"zero minimum, positive stock", "1", "0", core.StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ClassifyStatus(dec(tt.qty), dec(tt.minimum))
			if got != tt.expected {
				t.Errorf("ClassifyStatus(%s, %s) = %s, want %s", tt.qty, tt.minimum, got, tt.expected)
			}
		})
	}
}

func TestApplyMovement(t *testing.T) {
	base := core.StockLevel{
		ProductID:       1,
		QuantityInStock: dec("10"),
		TotalReceived:   dec("10"),
		TotalSold:       dec("0"),
	}

	t.Run("receipt adds quantity and total received", func(t *testing.T) {
		level, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementReceipt, Quantity: dec("5"),
		}, core.NegativeStockReject)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !level.QuantityInStock.Equal(dec("15")) {
			t.Errorf("quantity = %s, want 15", level.QuantityInStock)
		}
		if !level.TotalReceived.Equal(dec("15")) {
			t.Errorf("total received = %s, want 15", level.TotalReceived)
		}
	})

	t.Run("sale subtracts and adds to total sold", func(t *testing.T) {
		level, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementSale, Quantity: dec("4"),
		}, core.NegativeStockReject)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !level.QuantityInStock.Equal(dec("6")) {
			t.Errorf("quantity = %s, want 6", level.QuantityInStock)
		}
		if !level.TotalSold.Equal(dec("4")) {
			t.Errorf("total sold = %s, want 4", level.TotalSold)
		}
	})

	t.Run("sale below zero rejected under reject policy", func(t *testing.T) {
		_, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementSale, Quantity: dec("11"),
		}, core.NegativeStockReject)
		var insufficient *core.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if !insufficient.Available.Equal(dec("10")) || !insufficient.Requested.Equal(dec("11")) {
			t.Errorf("error carries available=%s requested=%s, want 10/11",
				insufficient.Available, insufficient.Requested)
		}
	})

	t.Run("sale exactly to zero is allowed", func(t *testing.T) {
		level, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementSale, Quantity: dec("10"),
		}, core.NegativeStockReject)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !level.QuantityInStock.IsZero() {
			t.Errorf("quantity = %s, want 0", level.QuantityInStock)
		}
	})

	t.Run("sale below zero allowed under allow policy", func(t *testing.T) {
		level, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementSale, Quantity: dec("12"),
		}, core.NegativeStockAllow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !level.QuantityInStock.Equal(dec("-2")) {
			t.Errorf("quantity = %s, want -2", level.QuantityInStock)
		}
	})

	t.Run("return adds like a receipt", func(t *testing.T) {
		level, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementReturn, Quantity: dec("2"),
		}, core.NegativeStockReject)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !level.QuantityInStock.Equal(dec("12")) {
			t.Errorf("quantity = %s, want 12", level.QuantityInStock)
		}
		if !level.TotalReceived.Equal(dec("12")) {
			t.Errorf("total received = %s, want 12", level.TotalReceived)
		}
	})

	t.Run("negative adjustment applies signed quantity", func(t *testing.T) {
		level, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementAdjustment, Quantity: dec("-3"),
		}, core.NegativeStockReject)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !level.QuantityInStock.Equal(dec("7")) {
			t.Errorf("quantity = %s, want 7", level.QuantityInStock)
		}
		if !level.TotalReceived.Equal(dec("10")) || !level.TotalSold.IsZero() {
			t.Error("adjustment must not touch total received or total sold")
		}
	})

	t.Run("zero quantity rejected except for adjustment", func(t *testing.T) {
		_, err := core.ApplyMovement(base, core.StockMovement{
			ProductID: 1, Type: core.MovementReceipt, Quantity: dec("0"),
		}, core.NegativeStockReject)
		if err == nil {
			t.Error("expected error for zero-quantity receipt")
		}
	})
}

func TestSignedQuantity(t *testing.T) {
	tests := []struct {
		name     string
		movement core.StockMovement
		expected string
	}{
		{"receipt is positive", core.StockMovement{Type: core.MovementReceipt, Quantity: dec("5")}, "5"},
		{"receipt stays positive for negative input", core.StockMovement{Type: core.MovementReceipt, Quantity: dec("-5")}, "5"},
		{"sale is negative", core.StockMovement{Type: core.MovementSale, Quantity: dec("5")}, "-5"},
		{"return is positive", core.StockMovement{Type: core.MovementReturn, Quantity: dec("3")}, "3"},
		{"adjustment keeps its sign", core.StockMovement{Type: core.MovementAdjustment, Quantity: dec("-2.5")}, "-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.movement.SignedQuantity()
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("SignedQuantity() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestRunningBalance(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}

	movements := []core.StockMovement{
		{ID: 3, Type: core.MovementSale, Quantity: dec("4"), OccurredAt: day(2)},
		{ID: 1, Type: core.MovementReceipt, Quantity: dec("10"), OccurredAt: day(1)},
		{ID: 4, Type: core.MovementAdjustment, Quantity: dec("-1"), OccurredAt: day(3)},
		{ID: 2, Type: core.MovementReceipt, Quantity: dec("5"), OccurredAt: day(1)},
	}

	lines := core.RunningBalance(movements)
	if len(lines) != 4 {
		t.Fatalf("expected 4 ledger lines, got %d", len(lines))
	}

	// Chronological, same-day ties broken by id: 1, 2, 3, 4.
	expectedOrder := []int{1, 2, 3, 4}
	expectedBalances := []string{"10", "15", "11", "10"}
	for i, line := range lines {
		if line.Movement.ID != expectedOrder[i] {
			t.Errorf("line %d: movement id = %d, want %d", i, line.Movement.ID, expectedOrder[i])
		}
		if !line.BalanceAfter.Equal(dec(expectedBalances[i])) {
			t.Errorf("line %d: balance = %s, want %s", i, line.BalanceAfter, expectedBalances[i])
		}
	}

	// Replaying the full history from zero must land on the cached level.
	final := lines[len(lines)-1].BalanceAfter
	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.SignedQuantity())
	}
	if !final.Equal(sum) {
		t.Errorf("final balance %s != sum of signed quantities %s", final, sum)
	}
}
