package core

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CustomerInput carries the fields for creating or updating a customer.
type CustomerInput struct {
	Code    string
	Name    string
	Email   string
	Phone   string
	Address string
	TPIN    string
}

// ProductInput carries the fields for creating or updating a product.
type ProductInput struct {
	Code              string
	Name              string
	Description       string
	Unit              string
	UnitPrice         decimal.Decimal
	MinimumStockLevel decimal.Decimal
}

// MasterDataService manages the customer and product catalogues.
type MasterDataService interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, code string, input CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, code string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)

	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, code string, input ProductInput) (*Product, error)
	DeactivateProduct(ctx context.Context, code string) error
	GetProduct(ctx context.Context, code string) (*Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
}

type masterDataService struct {
	pool *pgxpool.Pool
}

func NewMasterDataService(pool *pgxpool.Pool) MasterDataService {
	return &masterDataService{pool: pool}
}

func validateCustomerInput(input CustomerInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return validationErrorf("code", "customer code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return validationErrorf("name", "customer name is required")
	}
	return nil
}

func (s *masterDataService) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if err := validateCustomerInput(input); err != nil {
		return nil, err
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (code, name, email, phone, address, tpin)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING
		RETURNING id
	`, input.Code, input.Name, input.Email, input.Phone, input.Address, input.TPIN).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationErrorf("code", "customer %s already exists", input.Code)
		}
		return nil, persistence("insert customer", err)
	}
	return s.GetCustomer(ctx, input.Code)
}

func (s *masterDataService) UpdateCustomer(ctx context.Context, code string, input CustomerInput) (*Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationErrorf("name", "customer name is required")
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, address = $4, tpin = $5, updated_at = NOW()
		WHERE code = $6
	`, input.Name, input.Email, input.Phone, input.Address, input.TPIN, code)
	if err != nil {
		return nil, persistence("update customer", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("customer", code)
	}
	return s.GetCustomer(ctx, code)
}

const customerSelect = `
	SELECT id, code, name, COALESCE(email, ''), COALESCE(phone, ''),
	       COALESCE(address, ''), COALESCE(tpin, ''), created_at
	FROM customers
`

func (s *masterDataService) GetCustomer(ctx context.Context, code string) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, customerSelect+" WHERE code = $1", code).Scan(
		&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.TPIN, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", code)
		}
		return nil, persistence("fetch customer", err)
	}
	return &c, nil
}

func (s *masterDataService) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, customerSelect+" ORDER BY name")
	if err != nil {
		return nil, persistence("query customers", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.TPIN, &c.CreatedAt); err != nil {
			return nil, persistence("scan customer", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return validationErrorf("code", "product code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return validationErrorf("name", "product name is required")
	}
	if input.UnitPrice.IsNegative() {
		return validationErrorf("unit_price", "unit price cannot be negative")
	}
	if input.MinimumStockLevel.IsNegative() {
		return validationErrorf("minimum_stock_level", "minimum stock level cannot be negative")
	}
	return nil
}

func (s *masterDataService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	unit := input.Unit
	if unit == "" {
		unit = "each"
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, description, unit, unit_price, minimum_stock_level, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (code) DO NOTHING
		RETURNING id
	`, input.Code, input.Name, input.Description, unit, input.UnitPrice, input.MinimumStockLevel).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationErrorf("code", "product %s already exists", input.Code)
		}
		return nil, persistence("insert product", err)
	}
	return s.GetProduct(ctx, input.Code)
}

func (s *masterDataService) UpdateProduct(ctx context.Context, code string, input ProductInput) (*Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationErrorf("name", "product name is required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, validationErrorf("unit_price", "unit price cannot be negative")
	}
	if input.MinimumStockLevel.IsNegative() {
		return nil, validationErrorf("minimum_stock_level", "minimum stock level cannot be negative")
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, unit = $3, unit_price = $4,
		    minimum_stock_level = $5, updated_at = NOW()
		WHERE code = $6
	`, input.Name, input.Description, input.Unit, input.UnitPrice, input.MinimumStockLevel, code)
	if err != nil {
		return nil, persistence("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("product", code)
	}
	return s.GetProduct(ctx, code)
}

// DeactivateProduct hides a product from new movements and documents.
// Historical transactions keep referencing it.
func (s *masterDataService) DeactivateProduct(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE code = $1", code)
	if err != nil {
		return persistence("deactivate product", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("product", code)
	}
	return nil
}

const productSelect = `
	SELECT id, code, name, COALESCE(description, ''), unit, unit_price,
	       minimum_stock_level, is_active, created_at
	FROM products
`

func (s *masterDataService) GetProduct(ctx context.Context, code string) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, productSelect+" WHERE code = $1", code).Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Unit, &p.UnitPrice,
		&p.MinimumStockLevel, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product", code)
		}
		return nil, persistence("fetch product", err)
	}
	return &p, nil
}

func (s *masterDataService) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	q := productSelect
	if activeOnly {
		q += " WHERE is_active"
	}
	q += " ORDER BY code"

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, persistence("query products", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Unit, &p.UnitPrice,
			&p.MinimumStockLevel, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, persistence("scan product", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
