package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuotationInput is the caller-facing shape for creating a quotation.
type QuotationInput struct {
	CustomerCode string
	QuoteDate    string // YYYY-MM-DD, empty = today
	ValidUntil   string // YYYY-MM-DD, optional
	PPDAEnabled  bool
	Notes        string
	Lines        []LineItemInput
}

// QuotationService manages quotations and their conversion to invoices.
type QuotationService interface {
	CreateQuotation(ctx context.Context, actor ActorContext, input QuotationInput) (*Quotation, error)
	SendQuotation(ctx context.Context, quotationNumber string) (*Quotation, error)
	DeclineQuotation(ctx context.Context, quotationNumber string) (*Quotation, error)
	// AcceptQuotation marks a Sent quotation Accepted and creates a Draft
	// invoice from its lines in the same transaction. dueDate (optional)
	// is the due date for the new invoice. The returned quotation carries
	// the new invoice number.
	AcceptQuotation(ctx context.Context, actor ActorContext, quotationNumber, dueDate string) (*Quotation, error)
	// ExpireQuotations flags Sent quotations whose valid_until has passed
	// as of the given date (empty = today). Returns how many changed.
	ExpireQuotations(ctx context.Context, asOf string) (int, error)
	GetQuotation(ctx context.Context, quotationNumber string) (*Quotation, error)
	ListQuotations(ctx context.Context, status *QuotationStatus) ([]Quotation, error)
}

type quotationService struct {
	pool       *pgxpool.Pool
	docService DocumentService
	settings   SettingsService
}

func NewQuotationService(pool *pgxpool.Pool, docService DocumentService, settings SettingsService) QuotationService {
	return &quotationService{pool: pool, docService: docService, settings: settings}
}

func (s *quotationService) CreateQuotation(ctx context.Context, actor ActorContext, input QuotationInput) (*Quotation, error) {
	if input.CustomerCode == "" {
		return nil, validationErrorf("customer_code", "customer code is required")
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	quoteDate := time.Now().Format("2006-01-02")
	if input.QuoteDate != "" {
		if _, err := time.Parse("2006-01-02", input.QuoteDate); err != nil {
			return nil, validationErrorf("quote_date", "invalid date %q, want YYYY-MM-DD", input.QuoteDate)
		}
		quoteDate = input.QuoteDate
	}
	if input.ValidUntil != "" {
		if _, err := time.Parse("2006-01-02", input.ValidUntil); err != nil {
			return nil, validationErrorf("valid_until", "invalid date %q, want YYYY-MM-DD", input.ValidUntil)
		}
	}

	cfg, err := s.settings.TotalsConfig(ctx)
	if err != nil {
		return nil, err
	}
	cfg.PPDAEnabled = input.PPDAEnabled

	items := make([]InvoiceLineItem, len(input.Lines))
	for i, line := range input.Lines {
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin quotation transaction", err)
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

	year, _ := time.Parse("2006-01-02", quoteDate)
	number, err := s.docService.NextNumberTx(ctx, tx, DocTypeQuotation, year.Year())
	if err != nil {
		return nil, err
	}

	var validUntil *string
	if input.ValidUntil != "" {
		validUntil = &input.ValidUntil
	}

	var quotationID int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotations (quotation_number, customer_id, status, quote_date, valid_until,
		                        ppda_levy_enabled, ppda_levy_percentage, vat_percentage,
		                        gross_total, ppda_levy_amount, vat_amount, total_net,
		                        notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, number, customerID, QuotationStatusDraft, quoteDate, validUntil,
		cfg.PPDAEnabled, cfg.PPDAPercent, cfg.VATPercent,
		totals.Gross, totals.PPDALevy, totals.VAT, totals.Net,
		input.Notes, actor.UserID,
	).Scan(&quotationID)
	if err != nil {
		return nil, persistence("insert quotation", err)
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO quotation_items (quotation_id, line_number, description, quantity, unit, rate_per_unit, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, quotationID, item.LineNumber, item.Description, item.Quantity, item.Unit, item.RatePerUnit, item.TotalAmount)
		if err != nil {
			return nil, persistence(fmt.Sprintf("insert quotation line %d", item.LineNumber), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit quotation", err)
	}
	return s.GetQuotation(ctx, number)
}

func (s *quotationService) SendQuotation(ctx context.Context, quotationNumber string) (*Quotation, error) {
	return s.transition(ctx, quotationNumber, QuotationStatusSent)
}

func (s *quotationService) DeclineQuotation(ctx context.Context, quotationNumber string) (*Quotation, error) {
	return s.transition(ctx, quotationNumber, QuotationStatusDeclined)
}

func (s *quotationService) transition(ctx context.Context, quotationNumber string, to QuotationStatus) (*Quotation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin transition transaction", err)
	}
	defer tx.Rollback(ctx)

	var current QuotationStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM quotations WHERE quotation_number = $1 FOR UPDATE",
		quotationNumber,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("quotation", quotationNumber)
		}
		return nil, persistence("lock quotation", err)
	}
	if !CanTransitionQuotation(current, to) {
		return nil, validationErrorf("status", "quotation %s cannot move from %s to %s", quotationNumber, current, to)
	}

	_, err = tx.Exec(ctx,
		"UPDATE quotations SET status = $1, updated_at = NOW() WHERE quotation_number = $2",
		to, quotationNumber,
	)
	if err != nil {
		return nil, persistence("update quotation status", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit quotation transition", err)
	}
	return s.GetQuotation(ctx, quotationNumber)
}

// AcceptQuotation converts a Sent quotation to a Draft invoice atomically:
// the status change, the invoice insert and the back-reference all land in
// one transaction. Percentages snapshotted on the quotation are reused so
// the invoice prices exactly what was quoted.
func (s *quotationService) AcceptQuotation(ctx context.Context, actor ActorContext, quotationNumber, dueDate string) (*Quotation, error) {
	if dueDate != "" {
		if _, err := time.Parse("2006-01-02", dueDate); err != nil {
			return nil, validationErrorf("due_date", "invalid date %q, want YYYY-MM-DD", dueDate)
		}
	}

	quote, err := s.GetQuotation(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}

	baseCfg, err := s.settings.TotalsConfig(ctx)
	if err != nil {
		return nil, err
	}
	cfg := TotalsConfig{
		PPDAEnabled: quote.PPDALevyEnabled,
		PPDAPercent: quote.PPDALevyPercent,
		VATPercent:  quote.VATPercent,
		VATBase:     baseCfg.VATBase,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin acceptance transaction", err)
	}
	defer tx.Rollback(ctx)

	var current QuotationStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM quotations WHERE id = $1 FOR UPDATE", quote.ID,
	).Scan(&current)
	if err != nil {
		return nil, persistence("lock quotation", err)
	}
	if !CanTransitionQuotation(current, QuotationStatusAccepted) {
		return nil, validationErrorf("status", "quotation %s cannot be accepted from status %s", quotationNumber, current)
	}

	lines := make([]LineItemInput, len(quote.Lines))
	for i, item := range quote.Lines {
		lines[i] = LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			RatePerUnit: item.RatePerUnit,
		}
	}

	invoiceDate := time.Now().Format("2006-01-02")
	invoiceNumber, err := insertInvoiceTx(ctx, tx, s.docService, actor, quote.CustomerID, invoiceDate, dueDate, quote.Notes, lines, cfg)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE quotations SET status = $1, invoice_number = $2, updated_at = NOW() WHERE id = $3
	`, QuotationStatusAccepted, invoiceNumber, quote.ID)
	if err != nil {
		return nil, persistence("update accepted quotation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit quotation acceptance", err)
	}
	return s.GetQuotation(ctx, quotationNumber)
}

func (s *quotationService) ExpireQuotations(ctx context.Context, asOf string) (int, error) {
	if asOf == "" {
		asOf = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", asOf); err != nil {
		return 0, validationErrorf("as_of", "invalid date %q, want YYYY-MM-DD", asOf)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE quotations
		SET status = $1, updated_at = NOW()
		WHERE status = $2
		  AND valid_until IS NOT NULL
		  AND valid_until < $3::date
	`, QuotationStatusExpired, QuotationStatusSent, asOf)
	if err != nil {
		return 0, persistence("expire quotations", err)
	}
	return int(tag.RowsAffected()), nil
}

const quotationSelect = `
	SELECT q.id, q.quotation_number, q.customer_id, c.code, c.name,
	       q.status, q.quote_date::text, COALESCE(q.valid_until::text, ''),
	       q.ppda_levy_enabled, q.ppda_levy_percentage, q.vat_percentage,
	       q.gross_total, q.ppda_levy_amount, q.vat_amount, q.total_net,
	       q.notes, COALESCE(q.invoice_number, ''), q.created_by, q.created_at
	FROM quotations q
	JOIN customers c ON c.id = q.customer_id
`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.QuotationNumber, &q.CustomerID, &q.CustomerCode, &q.CustomerName,
		&q.Status, &q.QuoteDate, &q.ValidUntil,
		&q.PPDALevyEnabled, &q.PPDALevyPercent, &q.VATPercent,
		&q.GrossTotal, &q.PPDALevyAmount, &q.VATAmount, &q.TotalNet,
		&q.Notes, &q.InvoiceNumber, &q.CreatedBy, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *quotationService) GetQuotation(ctx context.Context, quotationNumber string) (*Quotation, error) {
	q, err := scanQuotation(s.pool.QueryRow(ctx, quotationSelect+" WHERE q.quotation_number = $1", quotationNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("quotation", quotationNumber)
		}
		return nil, persistence("fetch quotation", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, quotation_id, line_number, description, quantity, unit, rate_per_unit, total_amount
		FROM quotation_items
		WHERE quotation_id = $1
		ORDER BY line_number
	`, q.ID)
	if err != nil {
		return nil, persistence("query quotation lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item InvoiceLineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.LineNumber, &item.Description,
			&item.Quantity, &item.Unit, &item.RatePerUnit, &item.TotalAmount); err != nil {
			return nil, persistence("scan quotation line", err)
		}
		q.Lines = append(q.Lines, item)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate quotation lines", err)
	}
	return q, nil
}

func (s *quotationService) ListQuotations(ctx context.Context, status *QuotationStatus) ([]Quotation, error) {
	q := quotationSelect
	var args []any
	if status != nil {
		q += " WHERE q.status = $1"
		args = append(args, *status)
	}
	q += " ORDER BY q.id DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, persistence("query quotations", err)
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		quote, err := scanQuotation(rows)
		if err != nil {
			return nil, persistence("scan quotation", err)
		}
		quotations = append(quotations, *quote)
	}
	return quotations, rows.Err()
}
