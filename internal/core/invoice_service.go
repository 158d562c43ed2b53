package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InvoiceInput is the caller-facing shape for creating an invoice.
// InvoiceDate and DueDate are YYYY-MM-DD; an empty InvoiceDate means
// today, an empty DueDate means the invoice ages from its invoice date.
type InvoiceInput struct {
	CustomerCode string
	InvoiceDate  string
	DueDate      string
	PPDAEnabled  bool
	Notes        string
	Lines        []LineItemInput
}

// InvoiceService manages the invoice lifecycle. All financial fields are
// derived through the totals engine at write time; stored totals are never
// edited directly.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor ActorContext, input InvoiceInput) (*Invoice, error)
	// SendInvoice transitions Draft → Sent.
	SendInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error)
	// CancelInvoice moves any non-terminal invoice to Cancelled.
	CancelInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error)
	GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error)
	ListInvoices(ctx context.Context, status *InvoiceStatus) ([]Invoice, error)
	// MarkOverdue flags Sent and Partially Paid invoices whose due date
	// has passed as of the given date (YYYY-MM-DD, empty = today) and
	// still carry a balance above the tolerance. Returns how many changed.
	MarkOverdue(ctx context.Context, asOf string) (int, error)
}

type invoiceService struct {
	pool       *pgxpool.Pool
	docService DocumentService
	settings   SettingsService
}

func NewInvoiceService(pool *pgxpool.Pool, docService DocumentService, settings SettingsService) InvoiceService {
	return &invoiceService{pool: pool, docService: docService, settings: settings}
}

func validateLines(lines []LineItemInput) error {
	if len(lines) == 0 {
		return validationErrorf("lines", "invoice must have at least one line item")
	}
	for i, line := range lines {
		if line.Description == "" {
			return validationErrorf("lines", "line %d: description is required", i+1)
		}
		if line.Quantity.IsNegative() {
			return validationErrorf("lines", "line %d: quantity cannot be negative, got %s", i+1, line.Quantity)
		}
		if line.RatePerUnit.IsNegative() {
			return validationErrorf("lines", "line %d: rate cannot be negative, got %s", i+1, line.RatePerUnit)
		}
	}
	return nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, actor ActorContext, input InvoiceInput) (*Invoice, error) {
	if input.CustomerCode == "" {
		return nil, validationErrorf("customer_code", "customer code is required")
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	invoiceDate := time.Now().Format("2006-01-02")
	if input.InvoiceDate != "" {
		if _, err := time.Parse("2006-01-02", input.InvoiceDate); err != nil {
			return nil, validationErrorf("invoice_date", "invalid date %q, want YYYY-MM-DD", input.InvoiceDate)
		}
		invoiceDate = input.InvoiceDate
	}
	if input.DueDate != "" {
		if _, err := time.Parse("2006-01-02", input.DueDate); err != nil {
			return nil, validationErrorf("due_date", "invalid date %q, want YYYY-MM-DD", input.DueDate)
		}
	}

	cfg, err := s.settings.TotalsConfig(ctx)
	if err != nil {
		return nil, err
	}
	cfg.PPDAEnabled = input.PPDAEnabled

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin invoice transaction", err)
	}
	defer tx.Rollback(ctx)

	var customerID int
	err = tx.QueryRow(ctx, "SELECT id FROM customers WHERE code = $1", input.CustomerCode).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", input.CustomerCode)
		}
		return nil, persistence("resolve customer", err)
	}

	number, err := insertInvoiceTx(ctx, tx, s.docService, actor, customerID, invoiceDate, input.DueDate, input.Notes, input.Lines, cfg)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit invoice", err)
	}
	return s.GetInvoice(ctx, number)
}

// insertInvoiceTx writes the invoice header and lines within the caller's
// transaction and returns the assigned invoice number. Shared with the
// quotation service so accepting a quotation creates its invoice
// atomically.
func insertInvoiceTx(ctx context.Context, tx pgx.Tx, docService DocumentService, actor ActorContext,
	customerID int, invoiceDate, dueDate, notes string, lines []LineItemInput, cfg TotalsConfig) (string, error) {

	items := make([]InvoiceLineItem, len(lines))
	for i, line := range lines {
		items[i] = InvoiceLineItem{
			LineNumber:  i + 1,
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			RatePerUnit: line.RatePerUnit,
		}
	}
	items = ComputeLineTotals(items)
	totals := ComputeTotals(items, cfg)

	year, _ := time.Parse("2006-01-02", invoiceDate)
	number, err := docService.NextNumberTx(ctx, tx, DocTypeInvoice, year.Year())
	if err != nil {
		return "", err
	}

	var due *string
	if dueDate != "" {
		due = &dueDate
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, customer_id, status, invoice_date, due_date,
		                      ppda_levy_enabled, ppda_levy_percentage, vat_percentage,
		                      gross_total, ppda_levy_amount, vat_amount, total_net, total_paid,
		                      notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)
		RETURNING id
	`, number, customerID, InvoiceStatusDraft, invoiceDate, due,
		cfg.PPDAEnabled, cfg.PPDAPercent, cfg.VATPercent,
		totals.Gross, totals.PPDALevy, totals.VAT, totals.Net,
		notes, actor.UserID,
	).Scan(&invoiceID)
	if err != nil {
		return "", persistence("insert invoice", err)
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, line_number, description, quantity, unit, rate_per_unit, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, invoiceID, item.LineNumber, item.Description, item.Quantity, item.Unit, item.RatePerUnit, item.TotalAmount)
		if err != nil {
			return "", persistence(fmt.Sprintf("insert invoice line %d", item.LineNumber), err)
		}
	}
	return number, nil
}

func (s *invoiceService) SendInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	return s.transition(ctx, invoiceNumber, InvoiceStatusSent)
}

func (s *invoiceService) CancelInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	return s.transition(ctx, invoiceNumber, InvoiceStatusCancelled)
}

// transition locks the invoice row, checks the state machine and writes
// the new status in one transaction.
func (s *invoiceService) transition(ctx context.Context, invoiceNumber string, to InvoiceStatus) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin transition transaction", err)
	}
	defer tx.Rollback(ctx)

	var current InvoiceStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM invoices WHERE invoice_number = $1 FOR UPDATE",
		invoiceNumber,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", invoiceNumber)
		}
		return nil, persistence("lock invoice", err)
	}

	if !CanTransition(current, to) {
		return nil, validationErrorf("status", "invoice %s cannot move from %s to %s", invoiceNumber, current, to)
	}

	_, err = tx.Exec(ctx,
		"UPDATE invoices SET status = $1, updated_at = NOW() WHERE invoice_number = $2",
		to, invoiceNumber,
	)
	if err != nil {
		return nil, persistence("update invoice status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit status transition", err)
	}
	return s.GetInvoice(ctx, invoiceNumber)
}

func (s *invoiceService) MarkOverdue(ctx context.Context, asOf string) (int, error) {
	if asOf == "" {
		asOf = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", asOf); err != nil {
		return 0, validationErrorf("as_of", "invalid date %q, want YYYY-MM-DD", asOf)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE status IN ($2, $3)
		  AND due_date IS NOT NULL
		  AND due_date < $4::date
		  AND total_net - total_paid > $5
	`, InvoiceStatusOverdue, InvoiceStatusSent, InvoiceStatusPartiallyPaid, asOf, PaymentTolerance)
	if err != nil {
		return 0, persistence("mark overdue invoices", err)
	}
	return int(tag.RowsAffected()), nil
}

const invoiceSelect = `
	SELECT i.id, i.invoice_number, i.customer_id, c.code, c.name,
	       i.status, i.invoice_date::text, COALESCE(i.due_date::text, ''),
	       i.ppda_levy_enabled, i.ppda_levy_percentage, i.vat_percentage,
	       i.gross_total, i.ppda_levy_amount, i.vat_amount, i.total_net, i.total_paid,
	       i.notes, i.created_by, i.created_at
	FROM invoices i
	JOIN customers c ON c.id = i.customer_id
`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerCode, &inv.CustomerName,
		&inv.Status, &inv.InvoiceDate, &inv.DueDate,
		&inv.PPDALevyEnabled, &inv.PPDALevyPercent, &inv.VATPercent,
		&inv.GrossTotal, &inv.PPDALevyAmount, &inv.VATAmount, &inv.TotalNet, &inv.TotalPaid,
		&inv.Notes, &inv.CreatedBy, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	// BeforeVAT is reconstructible from the persisted fields: it is the
	// base VAT was computed on.
	inv.BeforeVAT = inv.GrossTotal
	if !inv.PPDALevyAmount.IsZero() && !inv.GrossTotal.Mul(inv.VATPercent).Div(oneHundred).Round(2).Equal(inv.VATAmount) {
		inv.BeforeVAT = inv.GrossTotal.Add(inv.PPDALevyAmount)
	}
	return &inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, invoiceSelect+" WHERE i.invoice_number = $1", invoiceNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", invoiceNumber)
		}
		return nil, persistence("fetch invoice", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, line_number, description, quantity, unit, rate_per_unit, total_amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY line_number
	`, inv.ID)
	if err != nil {
		return nil, persistence("query invoice lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item InvoiceLineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.LineNumber, &item.Description,
			&item.Quantity, &item.Unit, &item.RatePerUnit, &item.TotalAmount); err != nil {
			return nil, persistence("scan invoice line", err)
		}
		inv.Lines = append(inv.Lines, item)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate invoice lines", err)
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, status *InvoiceStatus) ([]Invoice, error) {
	q := invoiceSelect
	var args []any
	if status != nil {
		q += " WHERE i.status = $1"
		args = append(args, *status)
	}
	q += " ORDER BY i.id DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, persistence("query invoices", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, persistence("scan invoice", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// VerifyBalanceInvariant asserts that total_paid never exceeds total_net
// beyond tolerance and the derived balance is not negative. The statement
// assembler runs it over every invoice it reports on.
func VerifyBalanceInvariant(inv Invoice) error {
	if inv.TotalPaid.GreaterThan(inv.TotalNet.Add(PaymentTolerance)) {
		return fmt.Errorf("invoice %s paid %s exceeds net %s", inv.InvoiceNumber,
			inv.TotalPaid.StringFixed(2), inv.TotalNet.StringFixed(2))
	}
	if inv.BalanceDue().LessThan(PaymentTolerance.Neg()) {
		return fmt.Errorf("invoice %s has negative balance %s", inv.InvoiceNumber, inv.BalanceDue().StringFixed(2))
	}
	return nil
}
