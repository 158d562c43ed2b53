package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// StatementLine is one row on a customer statement: an invoice (debit) or
// a payment (credit), with the cumulative balance after it.
type StatementLine struct {
	Date           string          `json:"date"` // YYYY-MM-DD
	Kind           string          `json:"kind"` // "Invoice" or "Payment"
	Reference      string          `json:"reference"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// CustomerStatement is the point-in-time receivables view for one
// customer: chronological activity, totals and the aging schedule.
type CustomerStatement struct {
	CustomerCode     string          `json:"customer_code"`
	CustomerName     string          `json:"customer_name"`
	AsOfDate         string          `json:"as_of_date"`
	Lines            []StatementLine `json:"lines"`
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Aging            AgingSummary    `json:"aging"`
}

// CustomerAging is one customer's row in the company-wide aging report.
type CustomerAging struct {
	CustomerCode string       `json:"customer_code"`
	CustomerName string       `json:"customer_name"`
	Aging        AgingSummary `json:"aging"`
}

// AgingReport is the company-wide collections view as of a date.
type AgingReport struct {
	AsOfDate  string          `json:"as_of_date"`
	Customers []CustomerAging `json:"customers"`
	Total     AgingSummary    `json:"total"`
}

// StockReportRow is one product line on the stock report: the cached level
// plus its status classification.
type StockReportRow struct {
	StockLevel
	Status StockStatus `json:"status"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// StatementService assembles report-ready structures from the two engines.
// Pure transformation and sorting over store records; no writes.
type StatementService interface {
	// GetCustomerStatement builds the statement as of the given date
	// (YYYY-MM-DD, empty = today). Only payments dated on or before the
	// as-of date count toward the point-in-time balances.
	GetCustomerStatement(ctx context.Context, customerCode, asOf string) (*CustomerStatement, error)

	// GetAgingReport buckets every customer's outstanding balances as of
	// the given date. The grand total buckets sum to the company-wide
	// outstanding amount.
	GetAgingReport(ctx context.Context, asOf string) (*AgingReport, error)

	// GetStockReport returns every product's cached level with its status
	// classification, ordered by product code.
	GetStockReport(ctx context.Context) ([]StockReportRow, error)
}

type statementService struct {
	pool      *pgxpool.Pool
	inventory InventoryService
}

func NewStatementService(pool *pgxpool.Pool, inventory InventoryService) StatementService {
	return &statementService{pool: pool, inventory: inventory}
}

func normalizeAsOf(asOf string) (string, time.Time, error) {
	if asOf == "" {
		now := time.Now()
		return now.Format("2006-01-02"), now, nil
	}
	parsed, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return "", time.Time{}, validationErrorf("as_of", "invalid date %q, want YYYY-MM-DD", asOf)
	}
	return asOf, parsed, nil
}

// outstandingAsOf returns every open invoice balance as of the date,
// optionally restricted to one customer (customerID = 0 means all).
// Draft and Cancelled invoices are not receivables and are excluded.
func (s *statementService) outstandingAsOf(ctx context.Context, customerID int, asOf string) ([]OutstandingInvoice, error) {
	q := `
		SELECT i.id, i.invoice_number, i.customer_id,
		       i.invoice_date::text, COALESCE(i.due_date::text, ''),
		       i.total_net - COALESCE(SUM(p.amount_paid) FILTER (WHERE p.payment_date <= $1::date), 0) AS balance
		FROM invoices i
		LEFT JOIN payments p ON p.invoice_id = i.id
		WHERE i.status NOT IN ($2, $3)
		  AND i.invoice_date <= $1::date
	`
	args := []any{asOf, InvoiceStatusDraft, InvoiceStatusCancelled}
	if customerID != 0 {
		args = append(args, customerID)
		q += " AND i.customer_id = $4"
	}
	q += " GROUP BY i.id ORDER BY i.invoice_date, i.id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, persistence("query outstanding invoices", err)
	}
	defer rows.Close()

	var out []OutstandingInvoice
	for rows.Next() {
		var inv OutstandingInvoice
		var invoiceDate, dueDate string
		if err := rows.Scan(&inv.InvoiceID, &inv.InvoiceNumber, &inv.CustomerID, &invoiceDate, &dueDate, &inv.Balance); err != nil {
			return nil, persistence("scan outstanding invoice", err)
		}
		inv.InvoiceDate, _ = time.Parse("2006-01-02", invoiceDate)
		if dueDate != "" {
			inv.DueDate, _ = time.Parse("2006-01-02", dueDate)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *statementService) GetCustomerStatement(ctx context.Context, customerCode, asOf string) (*CustomerStatement, error) {
	asOf, asOfTime, err := normalizeAsOf(asOf)
	if err != nil {
		return nil, err
	}

	var customerID int
	var customerName string
	err = s.pool.QueryRow(ctx,
		"SELECT id, name FROM customers WHERE code = $1", customerCode,
	).Scan(&customerID, &customerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", customerCode)
		}
		return nil, persistence("resolve customer", err)
	}

	stmt := &CustomerStatement{
		CustomerCode: customerCode,
		CustomerName: customerName,
		AsOfDate:     asOf,
	}

	// Issued invoices up to the as-of date become debit lines.
	type activity struct {
		date      string
		kind      string
		reference string
		amount    decimal.Decimal
		rowID     int
	}
	var entries []activity

	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.invoice_number, i.invoice_date::text, i.total_net, i.status, i.total_paid
		FROM invoices i
		WHERE i.customer_id = $1
		  AND i.status NOT IN ($2, $3)
		  AND i.invoice_date <= $4::date
		ORDER BY i.invoice_date, i.id
	`, customerID, InvoiceStatusDraft, InvoiceStatusCancelled, asOf)
	if err != nil {
		return nil, persistence("query statement invoices", err)
	}
	for rows.Next() {
		var a activity
		var inv Invoice
		if err := rows.Scan(&a.rowID, &inv.InvoiceNumber, &a.date, &inv.TotalNet, &inv.Status, &inv.TotalPaid); err != nil {
			rows.Close()
			return nil, persistence("scan statement invoice", err)
		}
		if err := VerifyBalanceInvariant(inv); err != nil {
			rows.Close()
			return nil, err
		}
		a.kind = "Invoice"
		a.reference = inv.InvoiceNumber
		a.amount = inv.TotalNet
		entries = append(entries, a)
		stmt.TotalInvoiced = stmt.TotalInvoiced.Add(inv.TotalNet)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate statement invoices", err)
	}

	// Payments dated on or before the as-of date become credit lines.
	// Same invoice population as the debit query: payments against a
	// since-cancelled invoice stay off the statement too.
	payRows, err := s.pool.Query(ctx, `
		SELECT p.id, p.reference_number, p.payment_date::text, p.amount_paid
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE i.customer_id = $1
		  AND i.status NOT IN ($2, $3)
		  AND p.payment_date <= $4::date
		ORDER BY p.payment_date, p.id
	`, customerID, InvoiceStatusDraft, InvoiceStatusCancelled, asOf)
	if err != nil {
		return nil, persistence("query statement payments", err)
	}
	for payRows.Next() {
		var a activity
		if err := payRows.Scan(&a.rowID, &a.reference, &a.date, &a.amount); err != nil {
			payRows.Close()
			return nil, persistence("scan statement payment", err)
		}
		a.kind = "Payment"
		entries = append(entries, a)
		stmt.TotalPaid = stmt.TotalPaid.Add(a.amount)
	}
	payRows.Close()
	if err := payRows.Err(); err != nil {
		return nil, persistence("iterate statement payments", err)
	}

	// Chronological merge: same-day invoices precede payments so a
	// same-day settlement never shows a transient credit balance.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].date != entries[j].date {
			return entries[i].date < entries[j].date
		}
		if entries[i].kind != entries[j].kind {
			return entries[i].kind == "Invoice"
		}
		return entries[i].rowID < entries[j].rowID
	})

	running := decimal.Zero
	for _, e := range entries {
		line := StatementLine{Date: e.date, Kind: e.kind, Reference: e.reference}
		if e.kind == "Invoice" {
			line.Debit = e.amount
			running = running.Add(e.amount)
		} else {
			line.Credit = e.amount
			running = running.Sub(e.amount)
		}
		line.RunningBalance = running
		stmt.Lines = append(stmt.Lines, line)
	}
	stmt.TotalOutstanding = stmt.TotalInvoiced.Sub(stmt.TotalPaid)

	outstanding, err := s.outstandingAsOf(ctx, customerID, asOf)
	if err != nil {
		return nil, err
	}
	stmt.Aging = ComputeAgingBuckets(outstanding, asOfTime)
	return stmt, nil
}

func (s *statementService) GetAgingReport(ctx context.Context, asOf string) (*AgingReport, error) {
	asOf, asOfTime, err := normalizeAsOf(asOf)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.outstandingAsOf(ctx, 0, asOf)
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[int][]OutstandingInvoice)
	for _, inv := range outstanding {
		byCustomer[inv.CustomerID] = append(byCustomer[inv.CustomerID], inv)
	}

	report := &AgingReport{AsOfDate: asOf}
	custRows, err := s.pool.Query(ctx, "SELECT id, code, name FROM customers ORDER BY code")
	if err != nil {
		return nil, persistence("query customers", err)
	}
	defer custRows.Close()

	for custRows.Next() {
		var id int
		var code, name string
		if err := custRows.Scan(&id, &code, &name); err != nil {
			return nil, persistence("scan customer", err)
		}
		invoices := byCustomer[id]
		if len(invoices) == 0 {
			continue
		}
		summary := ComputeAgingBuckets(invoices, asOfTime)
		if summary.TotalOutstanding.IsZero() {
			continue
		}
		report.Customers = append(report.Customers, CustomerAging{
			CustomerCode: code,
			CustomerName: name,
			Aging:        summary,
		})
	}
	if err := custRows.Err(); err != nil {
		return nil, persistence("iterate customers", err)
	}

	report.Total = ComputeAgingBuckets(outstanding, asOfTime)
	return report, nil
}

func (s *statementService) GetStockReport(ctx context.Context) ([]StockReportRow, error) {
	levels, err := s.inventory.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	report := make([]StockReportRow, len(levels))
	for i, l := range levels {
		report[i] = StockReportRow{StockLevel: l, Status: l.Status()}
	}
	return report, nil
}
