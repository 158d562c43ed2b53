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

// PaymentInput is the caller-facing shape for recording one payment.
// An empty PaymentDate means today; an empty ReferenceNumber gets a
// generated one.
type PaymentInput struct {
	InvoiceNumber   string
	Amount          decimal.Decimal
	PaymentDate     string
	Method          string
	ReferenceNumber string
}

// PaymentService applies payments to invoices. Each application is one
// transaction: the payment ledger INSERT and the locked UPDATE of the
// invoice aggregates land together or not at all.
type PaymentService interface {
	RecordPayment(ctx context.Context, actor ActorContext, input PaymentInput) (*Payment, error)
	// RecordPaymentBatch applies several payments in a single transaction;
	// one failure rolls back every payment in the batch.
	RecordPaymentBatch(ctx context.Context, actor ActorContext, inputs []PaymentInput) ([]Payment, error)
	ListPayments(ctx context.Context, invoiceNumber string) ([]Payment, error)
}

type paymentService struct {
	pool *pgxpool.Pool
}

func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

func (s *paymentService) RecordPayment(ctx context.Context, actor ActorContext, input PaymentInput) (*Payment, error) {
	payments, err := s.RecordPaymentBatch(ctx, actor, []PaymentInput{input})
	if err != nil {
		return nil, err
	}
	return &payments[0], nil
}

func (s *paymentService) RecordPaymentBatch(ctx context.Context, actor ActorContext, inputs []PaymentInput) ([]Payment, error) {
	if len(inputs) == 0 {
		return nil, validationErrorf("payments", "batch must contain at least one payment")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin payment transaction", err)
	}
	defer tx.Rollback(ctx)

	payments := make([]Payment, 0, len(inputs))
	for i, input := range inputs {
		p, err := applyPaymentTx(ctx, tx, actor, input)
		if err != nil {
			return nil, fmt.Errorf("payment %d of %d: %w", i+1, len(inputs), err)
		}
		payments = append(payments, *p)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit payments", err)
	}
	return payments, nil
}

// applyPaymentTx locks the invoice row, validates the amount against the
// outstanding balance, appends the payment ledger row and writes the new
// aggregates and status — all within the caller's transaction.
func applyPaymentTx(ctx context.Context, tx pgx.Tx, actor ActorContext, input PaymentInput) (*Payment, error) {
	if input.InvoiceNumber == "" {
		return nil, validationErrorf("invoice_number", "invoice number is required")
	}

	paymentDate := time.Now().Format("2006-01-02")
	if input.PaymentDate != "" {
		if _, err := time.Parse("2006-01-02", input.PaymentDate); err != nil {
			return nil, validationErrorf("payment_date", "invalid date %q, want YYYY-MM-DD", input.PaymentDate)
		}
		paymentDate = input.PaymentDate
	}
	if input.ReferenceNumber == "" {
		input.ReferenceNumber = uuid.NewString()
	}

	var inv Invoice
	err := tx.QueryRow(ctx, `
		SELECT id, invoice_number, status, total_net, total_paid
		FROM invoices
		WHERE invoice_number = $1
		FOR UPDATE
	`, input.InvoiceNumber).Scan(&inv.ID, &inv.InvoiceNumber, &inv.Status, &inv.TotalNet, &inv.TotalPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", input.InvoiceNumber)
		}
		return nil, persistence("lock invoice", err)
	}

	switch inv.Status {
	case InvoiceStatusSent, InvoiceStatusPartiallyPaid, InvoiceStatusOverdue:
	default:
		return nil, validationErrorf("status", "invoice %s cannot accept payments in status %s", inv.InvoiceNumber, inv.Status)
	}

	if err := ValidatePayment(inv, input.Amount); err != nil {
		return nil, err
	}

	payment := Payment{
		InvoiceID:       inv.ID,
		AmountPaid:      input.Amount,
		PaymentDate:     paymentDate,
		Method:          input.Method,
		ReferenceNumber: input.ReferenceNumber,
		RecordedBy:      actor.UserID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, amount_paid, payment_date, method, reference_number, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, inv.ID, input.Amount, paymentDate, input.Method, input.ReferenceNumber, actor.UserID,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return nil, persistence("insert payment", err)
	}

	newPaid := inv.TotalPaid.Add(input.Amount)
	newStatus := StatusAfterPayment(inv.Status, newPaid, inv.TotalNet)
	if newStatus != inv.Status && !CanTransition(inv.Status, newStatus) {
		return nil, validationErrorf("status", "invoice %s cannot move from %s to %s", inv.InvoiceNumber, inv.Status, newStatus)
	}

	_, err = tx.Exec(ctx, `
		UPDATE invoices
		SET total_paid = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, newPaid, newStatus, inv.ID)
	if err != nil {
		return nil, persistence("update invoice aggregates", err)
	}
	return &payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, invoiceNumber string) ([]Payment, error) {
	var invoiceID int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM invoices WHERE invoice_number = $1", invoiceNumber,
	).Scan(&invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", invoiceNumber)
		}
		return nil, persistence("resolve invoice", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, amount_paid, payment_date::text, method, reference_number, recorded_by, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY payment_date ASC, id ASC
	`, invoiceID)
	if err != nil {
		return nil, persistence("query payments", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.AmountPaid, &p.PaymentDate,
			&p.Method, &p.ReferenceNumber, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, persistence("scan payment", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
