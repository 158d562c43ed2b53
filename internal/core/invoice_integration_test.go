package core_test

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/core"
)

func makeInvoice(t *testing.T, inv core.InvoiceService, actor core.ActorContext, ppda bool, rate string) *core.Invoice {
	t.Helper()
	invoice, err := inv.CreateInvoice(context.Background(), actor, core.InvoiceInput{
		CustomerCode: "CUST-001",
		InvoiceDate:  "2026-03-01",
		DueDate:      "2026-03-31",
		PPDAEnabled:  ppda,
		Lines: []core.LineItemInput{
			{Description: "Cement 50kg", Quantity: dec("2"), Unit: "bag", RatePerUnit: dec(rate)},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	return invoice
}

func TestInvoice_CreateAndNumbering(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	settings := core.NewSettingsService(pool)
	docs := core.NewDocumentService(pool)
	invoices := core.NewInvoiceService(pool, docs, settings)
	actor := core.ActorContext{UserID: 1}

	first := makeInvoice(t, invoices, actor, false, "10.00")
	second := makeInvoice(t, invoices, actor, false, "10.00")

	if first.InvoiceNumber != "INV-2026-00001" {
		t.Errorf("first number = %s, want INV-2026-00001", first.InvoiceNumber)
	}
	if second.InvoiceNumber != "INV-2026-00002" {
		t.Errorf("second number = %s, want INV-2026-00002", second.InvoiceNumber)
	}

	if first.Status != core.InvoiceStatusDraft {
		t.Errorf("new invoice status = %s, want Draft", first.Status)
	}
	// 2 × 10.00 gross, 16.5% VAT, no levy
	if !first.GrossTotal.Equal(dec("20.00")) {
		t.Errorf("gross = %s, want 20.00", first.GrossTotal)
	}
	if !first.VATAmount.Equal(dec("3.30")) {
		t.Errorf("vat = %s, want 3.30", first.VATAmount)
	}
	if !first.TotalNet.Equal(dec("23.30")) {
		t.Errorf("net = %s, want 23.30", first.TotalNet)
	}
	if len(first.Lines) != 1 || !first.Lines[0].TotalAmount.Equal(dec("20.00")) {
		t.Errorf("line total = %v, want one line of 20.00", first.Lines)
	}

	ctxFetch, err := invoices.GetInvoice(ctx, first.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if err := core.VerifyBalanceInvariant(*ctxFetch); err != nil {
		t.Errorf("balance invariant violated on fresh invoice: %v", err)
	}
}

func TestInvoice_LevySnapshot(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	settings := core.NewSettingsService(pool)
	invoices := core.NewInvoiceService(pool, core.NewDocumentService(pool), settings)
	actor := core.ActorContext{UserID: 1}

	invoice := makeInvoice(t, invoices, actor, true, "500.00")
	// gross 1000.00, levy 10.00, vat on gross 165.00, net 1175.00
	if !invoice.PPDALevyAmount.Equal(dec("10.00")) {
		t.Errorf("levy = %s, want 10.00", invoice.PPDALevyAmount)
	}
	if !invoice.TotalNet.Equal(dec("1175.00")) {
		t.Errorf("net = %s, want 1175.00", invoice.TotalNet)
	}

	// A later rate change must not reprice the stored invoice.
	ctx := context.Background()
	if err := settings.Set(ctx, "vat_percentage", "20"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	again, err := invoices.GetInvoice(ctx, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if !again.VATAmount.Equal(dec("165.00")) {
		t.Errorf("vat after rate change = %s, want 165.00 (snapshotted)", again.VATAmount)
	}
}

func TestInvoice_StatusMachine(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	invoices := core.NewInvoiceService(pool, core.NewDocumentService(pool), core.NewSettingsService(pool))
	actor := core.ActorContext{UserID: 1}

	invoice := makeInvoice(t, invoices, actor, false, "10.00")

	sent, err := invoices.SendInvoice(ctx, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("SendInvoice failed: %v", err)
	}
	if sent.Status != core.InvoiceStatusSent {
		t.Errorf("status = %s, want Sent", sent.Status)
	}

	// Sending twice is an invalid transition.
	if _, err := invoices.SendInvoice(ctx, invoice.InvoiceNumber); err == nil {
		t.Error("expected error sending an already-sent invoice")
	}

	cancelled, err := invoices.CancelInvoice(ctx, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("CancelInvoice failed: %v", err)
	}
	if cancelled.Status != core.InvoiceStatusCancelled {
		t.Errorf("status = %s, want Cancelled", cancelled.Status)
	}

	// Cancelled is terminal.
	if _, err := invoices.SendInvoice(ctx, invoice.InvoiceNumber); err == nil {
		t.Error("expected error sending a cancelled invoice")
	}
}

func TestInvoice_MarkOverdue(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	invoices := core.NewInvoiceService(pool, core.NewDocumentService(pool), core.NewSettingsService(pool))
	actor := core.ActorContext{UserID: 1}

	due := makeInvoice(t, invoices, actor, false, "10.00")
	if _, err := invoices.SendInvoice(ctx, due.InvoiceNumber); err != nil {
		t.Fatalf("SendInvoice failed: %v", err)
	}
	draft := makeInvoice(t, invoices, actor, false, "10.00")

	n, err := invoices.MarkOverdue(ctx, "2026-04-15")
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if n != 1 {
		t.Errorf("marked %d invoices overdue, want 1 (drafts never age)", n)
	}

	flagged, err := invoices.GetInvoice(ctx, due.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if flagged.Status != core.InvoiceStatusOverdue {
		t.Errorf("status = %s, want Overdue", flagged.Status)
	}

	untouched, err := invoices.GetInvoice(ctx, draft.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if untouched.Status != core.InvoiceStatusDraft {
		t.Errorf("draft status = %s, want Draft", untouched.Status)
	}

	// The sweep is idempotent for already-flagged invoices.
	n, err = invoices.MarkOverdue(ctx, "2026-04-16")
	if err != nil {
		t.Fatalf("second MarkOverdue failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep marked %d, want 0", n)
	}
}

func TestPayment_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	invoices := core.NewInvoiceService(pool, core.NewDocumentService(pool), core.NewSettingsService(pool))
	payments := core.NewPaymentService(pool)
	actor := core.ActorContext{UserID: 1}

	// net = 23.30
	invoice := makeInvoice(t, invoices, actor, false, "10.00")

	// Payments against a Draft are rejected.
	_, err := payments.RecordPayment(ctx, actor, core.PaymentInput{
		InvoiceNumber: invoice.InvoiceNumber, Amount: dec("5.00"),
	})
	if err == nil {
		t.Fatal("expected error paying a Draft invoice")
	}

	if _, err := invoices.SendInvoice(ctx, invoice.InvoiceNumber); err != nil {
		t.Fatalf("SendInvoice failed: %v", err)
	}

	// Partial payment.
	if _, err := payments.RecordPayment(ctx, actor, core.PaymentInput{
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        dec("13.30"),
		PaymentDate:   "2026-03-10",
		Method:        "bank_transfer",
	}); err != nil {
		t.Fatalf("partial payment failed: %v", err)
	}

	after, err := invoices.GetInvoice(ctx, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if after.Status != core.InvoiceStatusPartiallyPaid {
		t.Errorf("status = %s, want Partially Paid", after.Status)
	}
	if !after.BalanceDue().Equal(dec("10.00")) {
		t.Errorf("balance = %s, want 10.00", after.BalanceDue())
	}

	// Overpayment beyond tolerance is rejected.
	_, err = payments.RecordPayment(ctx, actor, core.PaymentInput{
		InvoiceNumber: invoice.InvoiceNumber, Amount: dec("10.01"),
	})
	var overpay *core.OverpaymentError
	if !errors.As(err, &overpay) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}

	// Settling the exact balance flips to Paid.
	if _, err := payments.RecordPayment(ctx, actor, core.PaymentInput{
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        dec("10.00"),
		PaymentDate:   "2026-03-20",
		Method:        "cash",
	}); err != nil {
		t.Fatalf("settling payment failed: %v", err)
	}

	settled, err := invoices.GetInvoice(ctx, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if settled.Status != core.InvoiceStatusPaid {
		t.Errorf("status = %s, want Paid", settled.Status)
	}
	if !settled.BalanceDue().IsZero() {
		t.Errorf("balance = %s, want 0", settled.BalanceDue())
	}

	// Paid is terminal: no further payments.
	if _, err := payments.RecordPayment(ctx, actor, core.PaymentInput{
		InvoiceNumber: invoice.InvoiceNumber, Amount: dec("1.00"),
	}); err == nil {
		t.Error("expected error paying a Paid invoice")
	}

	ledger, err := payments.ListPayments(ctx, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(ledger) != 2 {
		t.Errorf("expected 2 payment rows, got %d", len(ledger))
	}
}

func TestPayment_BatchRollsBackTogether(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	invoices := core.NewInvoiceService(pool, core.NewDocumentService(pool), core.NewSettingsService(pool))
	payments := core.NewPaymentService(pool)
	actor := core.ActorContext{UserID: 1}

	first := makeInvoice(t, invoices, actor, false, "10.00")
	second := makeInvoice(t, invoices, actor, false, "10.00")
	for _, number := range []string{first.InvoiceNumber, second.InvoiceNumber} {
		if _, err := invoices.SendInvoice(ctx, number); err != nil {
			t.Fatalf("SendInvoice failed: %v", err)
		}
	}

	// Second entry overpays; the whole batch must roll back.
	_, err := payments.RecordPaymentBatch(ctx, actor, []core.PaymentInput{
		{InvoiceNumber: first.InvoiceNumber, Amount: dec("23.30")},
		{InvoiceNumber: second.InvoiceNumber, Amount: dec("99.00")},
	})
	if err == nil {
		t.Fatal("expected batch to fail on overpayment")
	}

	untouched, err := invoices.GetInvoice(ctx, first.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if untouched.Status != core.InvoiceStatusSent {
		t.Errorf("first invoice status = %s, want Sent (rolled back)", untouched.Status)
	}
	if !untouched.TotalPaid.IsZero() {
		t.Errorf("first invoice total paid = %s, want 0 (rolled back)", untouched.TotalPaid)
	}

	// A clean batch settles both.
	batch, err := payments.RecordPaymentBatch(ctx, actor, []core.PaymentInput{
		{InvoiceNumber: first.InvoiceNumber, Amount: dec("23.30")},
		{InvoiceNumber: second.InvoiceNumber, Amount: dec("23.30")},
	})
	if err != nil {
		t.Fatalf("clean batch failed: %v", err)
	}
	if len(batch) != 2 {
		t.Errorf("expected 2 payments, got %d", len(batch))
	}
}
