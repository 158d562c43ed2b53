package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MovementInput is the caller-facing shape for recording one stock
// movement. Quantity is a magnitude for receipts, sales and returns, and
// a signed value for adjustments. OccurredAt is YYYY-MM-DD; empty means
// today. An empty IdempotencyKey gets a generated one.
type MovementInput struct {
	ProductCode    string
	Type           MovementType
	Quantity       decimal.Decimal
	OccurredAt     string
	Reference      string
	IdempotencyKey string
}

// InventoryService maintains the append-only stock ledger and the cached
// per-product level. Every movement is one transaction: ledger INSERT plus
// a row-locked UPDATE of the cached level, so concurrent scans cannot lose
// updates.
type InventoryService interface {
	ReceiveStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error)
	RemoveStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error)
	AdjustStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error)
	ReturnStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error)

	// GetStockLevels returns the cached level for every product, ordered
	// by product code.
	GetStockLevels(ctx context.Context) ([]StockLevel, error)
	// GetLowStock returns only levels classified LOW_STOCK or
	// OUT_OF_STOCK, for reorder review.
	GetLowStock(ctx context.Context) ([]StockLevel, error)
	// GetTransactionHistory replays a product's movements in chronological
	// order (ties by ascending id) with a running balance after each.
	GetTransactionHistory(ctx context.Context, productCode string) ([]LedgerLine, error)
}

type inventoryService struct {
	pool     *pgxpool.Pool
	settings SettingsService
}

func NewInventoryService(pool *pgxpool.Pool, settings SettingsService) InventoryService {
	return &inventoryService{pool: pool, settings: settings}
}

func (s *inventoryService) ReceiveStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error) {
	input.Type = MovementReceipt
	return s.recordMovement(ctx, actor, input)
}

func (s *inventoryService) RemoveStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error) {
	input.Type = MovementSale
	return s.recordMovement(ctx, actor, input)
}

func (s *inventoryService) AdjustStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error) {
	input.Type = MovementAdjustment
	return s.recordMovement(ctx, actor, input)
}

func (s *inventoryService) ReturnStock(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error) {
	input.Type = MovementReturn
	return s.recordMovement(ctx, actor, input)
}

// recordMovement is the single write path for all movement types.
func (s *inventoryService) recordMovement(ctx context.Context, actor ActorContext, input MovementInput) (*StockMovement, error) {
	if input.ProductCode == "" {
		return nil, validationErrorf("product_code", "product code is required")
	}
	if input.Type != MovementAdjustment && input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, validationErrorf("quantity", "quantity must be positive for %s, got %s", input.Type, input.Quantity)
	}
	if input.Type == MovementAdjustment && input.Quantity.IsZero() {
		return nil, validationErrorf("quantity", "adjustment quantity must be non-zero")
	}

	occurredAt := time.Now()
	if input.OccurredAt != "" {
		parsed, err := time.Parse("2006-01-02", input.OccurredAt)
		if err != nil {
			return nil, validationErrorf("occurred_at", "invalid date %q, want YYYY-MM-DD", input.OccurredAt)
		}
		occurredAt = parsed
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = uuid.NewString()
	}

	policy, err := s.settings.NegativeStockPolicy(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin movement transaction", err)
	}
	defer tx.Rollback(ctx)

	var productID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM products WHERE code = $1 AND is_active = true",
		input.ProductCode,
	).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product", input.ProductCode)
		}
		return nil, persistence("resolve product", err)
	}

	// Make sure the cached level row exists, then lock it.
	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_stock (product_id, quantity_in_stock, total_received, total_sold)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (product_id) DO NOTHING
	`, productID)
	if err != nil {
		return nil, persistence("upsert stock level", err)
	}

	var level StockLevel
	level.ProductID = productID
	err = tx.QueryRow(ctx, `
		SELECT s.quantity_in_stock, p.minimum_stock_level, s.total_received, s.total_sold
		FROM inventory_stock s
		JOIN products p ON p.id = s.product_id
		WHERE s.product_id = $1
		FOR UPDATE OF s
	`, productID).Scan(&level.QuantityInStock, &level.MinimumStockLevel, &level.TotalReceived, &level.TotalSold)
	if err != nil {
		return nil, persistence("lock stock level", err)
	}

	movement := StockMovement{
		ProductID:      productID,
		ProductCode:    input.ProductCode,
		Type:           input.Type,
		Quantity:       input.Quantity,
		OccurredAt:     occurredAt,
		ActorID:        actor.UserID,
		Reference:      input.Reference,
		IdempotencyKey: input.IdempotencyKey,
	}

	newLevel, err := ApplyMovement(level, movement, policy)
	if err != nil {
		return nil, err
	}

	// The ledger row stores the signed quantity so a replay from zero is a
	// plain sum. The unique idempotency key makes replays no-ops.
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_transactions (product_id, movement_type, quantity, occurred_at, actor_id, reference, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`, productID, movement.Type, movement.SignedQuantity(), occurredAt.Format("2006-01-02"),
		actor.UserID, input.Reference, input.IdempotencyKey,
	).Scan(&movement.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicateMovement
		}
		return nil, persistence("insert stock transaction", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE inventory_stock
		SET quantity_in_stock = $1, total_received = $2, total_sold = $3, last_updated = NOW()
		WHERE product_id = $4
	`, newLevel.QuantityInStock, newLevel.TotalReceived, newLevel.TotalSold, productID)
	if err != nil {
		return nil, persistence("update stock level", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit movement", err)
	}
	return &movement, nil
}

func (s *inventoryService) GetStockLevels(ctx context.Context) ([]StockLevel, error) {
	return s.queryLevels(ctx, "")
}

func (s *inventoryService) GetLowStock(ctx context.Context) ([]StockLevel, error) {
	return s.queryLevels(ctx, "AND s.quantity_in_stock <= p.minimum_stock_level")
}

func (s *inventoryService) queryLevels(ctx context.Context, filter string) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.code, p.name,
		       s.quantity_in_stock, p.minimum_stock_level,
		       s.total_received, s.total_sold, s.last_updated
		FROM inventory_stock s
		JOIN products p ON p.id = s.product_id
		WHERE p.is_active = true %s
		ORDER BY p.code
	`, filter))
	if err != nil {
		return nil, persistence("query stock levels", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var l StockLevel
		if err := rows.Scan(
			&l.ProductID, &l.ProductCode, &l.ProductName,
			&l.QuantityInStock, &l.MinimumStockLevel,
			&l.TotalReceived, &l.TotalSold, &l.LastUpdated,
		); err != nil {
			return nil, persistence("scan stock level", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (s *inventoryService) GetTransactionHistory(ctx context.Context, productCode string) ([]LedgerLine, error) {
	var productID int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM products WHERE code = $1", productCode,
	).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product", productCode)
		}
		return nil, persistence("resolve product", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, movement_type, quantity, occurred_at, actor_id, reference
		FROM stock_transactions
		WHERE product_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, productID)
	if err != nil {
		return nil, persistence("query stock transactions", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.OccurredAt, &m.ActorID, &m.Reference); err != nil {
			return nil, persistence("scan stock transaction", err)
		}
		m.ProductCode = productCode
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate stock transactions", err)
	}
	return RunningBalance(movements), nil
}
