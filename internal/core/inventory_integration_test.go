package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"backoffice/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payments, invoice_items, invoices, quotation_items, quotations,
		               stock_transactions, inventory_stock, products, customers,
		               document_sequences, company_settings
		RESTART IDENTITY CASCADE;

		INSERT INTO customers (code, name, email, tpin) VALUES
		('CUST-001', 'Chilimba Traders', 'accounts@chilimba.example', '20334455'),
		('CUST-002', 'Mzuzu Hardware Ltd', 'finance@mzuzuhw.example', '20998877');

		INSERT INTO products (code, name, unit, unit_price, minimum_stock_level) VALUES
		('PRD-001', 'Cement 50kg', 'bag', 12500.00, 10),
		('PRD-002', 'Roofing Sheet', 'sheet', 8900.00, 5);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func TestInventory_MovementFlow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	settings := core.NewSettingsService(pool)
	inventory := core.NewInventoryService(pool, settings)
	actor := core.ActorContext{UserID: 1}

	_, err := inventory.ReceiveStock(ctx, actor, core.MovementInput{
		ProductCode: "PRD-001",
		Quantity:    dec("50"),
		OccurredAt:  "2026-03-01",
		Reference:   "GRN-001",
	})
	if err != nil {
		t.Fatalf("ReceiveStock failed: %v", err)
	}

	_, err = inventory.RemoveStock(ctx, actor, core.MovementInput{
		ProductCode: "PRD-001",
		Quantity:    dec("12"),
		OccurredAt:  "2026-03-02",
		Reference:   "INV-2026-00001",
	})
	if err != nil {
		t.Fatalf("RemoveStock failed: %v", err)
	}

	_, err = inventory.AdjustStock(ctx, actor, core.MovementInput{
		ProductCode: "PRD-001",
		Quantity:    dec("-3"),
		OccurredAt:  "2026-03-03",
		Reference:   "stocktake shrinkage",
	})
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}

	levels, err := inventory.GetStockLevels(ctx)
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	var level *core.StockLevel
	for i := range levels {
		if levels[i].ProductCode == "PRD-001" {
			level = &levels[i]
		}
	}
	if level == nil {
		t.Fatal("PRD-001 missing from stock levels")
	}
	if !level.QuantityInStock.Equal(dec("35")) {
		t.Errorf("quantity = %s, want 35", level.QuantityInStock)
	}
	if !level.TotalReceived.Equal(dec("50")) {
		t.Errorf("total received = %s, want 50", level.TotalReceived)
	}
	if !level.TotalSold.Equal(dec("12")) {
		t.Errorf("total sold = %s, want 12", level.TotalSold)
	}
	if level.Status() != core.StockStatusInStock {
		t.Errorf("status = %s, want IN_STOCK", level.Status())
	}

	history, err := inventory.GetTransactionHistory(ctx, "PRD-001")
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 ledger lines, got %d", len(history))
	}
	final := history[len(history)-1].BalanceAfter
	if !final.Equal(level.QuantityInStock) {
		t.Errorf("replayed balance %s != cached level %s", final, level.QuantityInStock)
	}
}

func TestInventory_Idempotency(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	inventory := core.NewInventoryService(pool, core.NewSettingsService(pool))
	actor := core.ActorContext{UserID: 1}

	key := uuid.NewString()
	input := core.MovementInput{
		ProductCode:    "PRD-001",
		Quantity:       dec("20"),
		OccurredAt:     "2026-03-01",
		Reference:      "GRN-777",
		IdempotencyKey: key,
	}

	if _, err := inventory.ReceiveStock(ctx, actor, input); err != nil {
		t.Fatalf("first receive failed: %v", err)
	}

	_, err := inventory.ReceiveStock(ctx, actor, input)
	if !errors.Is(err, core.ErrDuplicateMovement) {
		t.Fatalf("expected ErrDuplicateMovement on replay, got %v", err)
	}

	// The replay must not have touched the cached level.
	levels, err := inventory.GetStockLevels(ctx)
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	for _, level := range levels {
		if level.ProductCode == "PRD-001" && !level.QuantityInStock.Equal(dec("20")) {
			t.Errorf("quantity after replay = %s, want 20", level.QuantityInStock)
		}
	}
}

func TestInventory_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	settings := core.NewSettingsService(pool)
	inventory := core.NewInventoryService(pool, settings)
	actor := core.ActorContext{UserID: 1}

	if _, err := inventory.ReceiveStock(ctx, actor, core.MovementInput{
		ProductCode: "PRD-002", Quantity: dec("5"),
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	_, err := inventory.RemoveStock(ctx, actor, core.MovementInput{
		ProductCode: "PRD-002", Quantity: dec("6"),
	})
	var insufficient *core.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// No ledger row may survive the rejected sale.
	history, err := inventory.GetTransactionHistory(ctx, "PRD-002")
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 ledger line after rejection, got %d", len(history))
	}

	// Under the allow policy the same sale goes through, below zero.
	if err := settings.Set(ctx, "negative_stock_policy", "allow"); err != nil {
		t.Fatalf("Set policy failed: %v", err)
	}
	if _, err := inventory.RemoveStock(ctx, actor, core.MovementInput{
		ProductCode: "PRD-002", Quantity: dec("6"),
	}); err != nil {
		t.Fatalf("sale under allow policy failed: %v", err)
	}

	low, err := inventory.GetLowStock(ctx)
	if err != nil {
		t.Fatalf("GetLowStock failed: %v", err)
	}
	found := false
	for _, level := range low {
		if level.ProductCode == "PRD-002" {
			found = true
			if level.Status() != core.StockStatusOutOfStock {
				t.Errorf("status = %s, want OUT_OF_STOCK", level.Status())
			}
		}
	}
	if !found {
		t.Error("PRD-002 with negative stock missing from low-stock report")
	}
}

func TestInventory_UnknownProduct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inventory := core.NewInventoryService(pool, core.NewSettingsService(pool))

	_, err := inventory.ReceiveStock(context.Background(), core.ActorContext{UserID: 1}, core.MovementInput{
		ProductCode: "NOPE", Quantity: dec("1"),
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
