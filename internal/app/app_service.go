package app

import (
	"context"
	"fmt"

	"backoffice/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool       *pgxpool.Pool
	validate   *validator.Validate
	settings   core.SettingsService
	inventory  core.InventoryService
	invoices   core.InvoiceService
	payments   core.PaymentService
	quotations core.QuotationService
	statements core.StatementService
	masterData core.MasterDataService
}

// NewAppService wires the core services behind the ApplicationService
// facade. All adapters share one instance.
func NewAppService(pool *pgxpool.Pool) ApplicationService {
	settings := core.NewSettingsService(pool)
	docs := core.NewDocumentService(pool)
	inventory := core.NewInventoryService(pool, settings)
	return &appService{
		pool:       pool,
		validate:   validator.New(),
		settings:   settings,
		inventory:  inventory,
		invoices:   core.NewInvoiceService(pool, docs, settings),
		payments:   core.NewPaymentService(pool),
		quotations: core.NewQuotationService(pool, docs, settings),
		statements: core.NewStatementService(pool, inventory),
		masterData: core.NewMasterDataService(pool),
	}
}

func (s *appService) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) recordMovement(
	ctx context.Context,
	req MovementRequest,
	record func(context.Context, core.ActorContext, core.MovementInput) (*core.StockMovement, error),
) (*MovementResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	movement, err := record(ctx, core.ActorContext{UserID: req.ActorID}, core.MovementInput{
		ProductCode:    req.ProductCode,
		Quantity:       req.Quantity,
		OccurredAt:     req.OccurredAt,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	levels, err := s.inventory.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	result := &MovementResult{Movement: *movement}
	for _, level := range levels {
		if level.ProductID == movement.ProductID {
			result.Level = level
			result.Status = level.Status()
			break
		}
	}
	return result, nil
}

func (s *appService) ReceiveStock(ctx context.Context, req MovementRequest) (*MovementResult, error) {
	return s.recordMovement(ctx, req, s.inventory.ReceiveStock)
}

func (s *appService) RemoveStock(ctx context.Context, req MovementRequest) (*MovementResult, error) {
	return s.recordMovement(ctx, req, s.inventory.RemoveStock)
}

func (s *appService) AdjustStock(ctx context.Context, req MovementRequest) (*MovementResult, error) {
	return s.recordMovement(ctx, req, s.inventory.AdjustStock)
}

func (s *appService) ReturnStock(ctx context.Context, req MovementRequest) (*MovementResult, error) {
	return s.recordMovement(ctx, req, s.inventory.ReturnStock)
}

func (s *appService) GetStockLevels(ctx context.Context) (*StockLevelsResult, error) {
	rows, err := s.statements.GetStockReport(ctx)
	if err != nil {
		return nil, err
	}
	return &StockLevelsResult{Levels: rows}, nil
}

func (s *appService) GetLowStock(ctx context.Context) (*StockLevelsResult, error) {
	levels, err := s.inventory.GetLowStock(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]core.StockReportRow, len(levels))
	for i, level := range levels {
		rows[i] = core.StockReportRow{StockLevel: level, Status: level.Status()}
	}
	return &StockLevelsResult{Levels: rows}, nil
}

func (s *appService) GetTransactionHistory(ctx context.Context, productCode string) (*LedgerResult, error) {
	lines, err := s.inventory.GetTransactionHistory(ctx, productCode)
	if err != nil {
		return nil, err
	}
	return &LedgerResult{ProductCode: productCode, Lines: lines}, nil
}

// ── Invoices ──────────────────────────────────────────────────────────────────

func (s *appService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	lines := make([]core.LineItemInput, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = core.LineItemInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			RatePerUnit: line.RatePerUnit,
		}
	}

	invoice, err := s.invoices.CreateInvoice(ctx, core.ActorContext{UserID: req.ActorID}, core.InvoiceInput{
		CustomerCode: req.CustomerCode,
		InvoiceDate:  req.InvoiceDate,
		DueDate:      req.DueDate,
		PPDAEnabled:  req.PPDAEnabled,
		Notes:        req.Notes,
		Lines:        lines,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: *invoice}, nil
}

func (s *appService) SendInvoice(ctx context.Context, invoiceNumber string) (*InvoiceResult, error) {
	invoice, err := s.invoices.SendInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: *invoice}, nil
}

func (s *appService) CancelInvoice(ctx context.Context, invoiceNumber string) (*InvoiceResult, error) {
	invoice, err := s.invoices.CancelInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: *invoice}, nil
}

func (s *appService) GetInvoice(ctx context.Context, invoiceNumber string) (*InvoiceResult, error) {
	invoice, err := s.invoices.GetInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: *invoice}, nil
}

func (s *appService) ListInvoices(ctx context.Context, status string) (*InvoiceListResult, error) {
	var filter *core.InvoiceStatus
	if status != "" {
		st := core.InvoiceStatus(status)
		filter = &st
	}
	invoices, err := s.invoices.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) MarkOverdue(ctx context.Context, asOf string) (int, error) {
	return s.invoices.MarkOverdue(ctx, asOf)
}

// ── Payments ──────────────────────────────────────────────────────────────────

func paymentInput(req RecordPaymentRequest) core.PaymentInput {
	return core.PaymentInput{
		InvoiceNumber:   req.InvoiceNumber,
		Amount:          req.Amount,
		PaymentDate:     req.PaymentDate,
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
	}
}

func (s *appService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	payment, err := s.payments.RecordPayment(ctx, core.ActorContext{UserID: req.ActorID}, paymentInput(req))
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoices.GetInvoice(ctx, req.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: *payment, Invoice: *invoice}, nil
}

func (s *appService) RecordPaymentBatch(ctx context.Context, reqs []RecordPaymentRequest) (*PaymentBatchResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("invalid request: empty payment batch")
	}
	inputs := make([]core.PaymentInput, len(reqs))
	for i, req := range reqs {
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("payment %d of %d: %w", i+1, len(reqs), err)
		}
		inputs[i] = paymentInput(req)
	}

	payments, err := s.payments.RecordPaymentBatch(ctx, core.ActorContext{UserID: reqs[0].ActorID}, inputs)
	if err != nil {
		return nil, err
	}
	return &PaymentBatchResult{Payments: payments}, nil
}

func (s *appService) ListPayments(ctx context.Context, invoiceNumber string) (*PaymentBatchResult, error) {
	payments, err := s.payments.ListPayments(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	return &PaymentBatchResult{Payments: payments}, nil
}

// ── Quotations ────────────────────────────────────────────────────────────────

func (s *appService) CreateQuotation(ctx context.Context, req CreateQuotationRequest) (*QuotationResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	lines := make([]core.LineItemInput, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = core.LineItemInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			RatePerUnit: line.RatePerUnit,
		}
	}

	quote, err := s.quotations.CreateQuotation(ctx, core.ActorContext{UserID: req.ActorID}, core.QuotationInput{
		CustomerCode: req.CustomerCode,
		QuoteDate:    req.QuoteDate,
		ValidUntil:   req.ValidUntil,
		PPDAEnabled:  req.PPDAEnabled,
		Notes:        req.Notes,
		Lines:        lines,
	})
	if err != nil {
		return nil, err
	}
	return &QuotationResult{Quotation: *quote}, nil
}

func (s *appService) SendQuotation(ctx context.Context, quotationNumber string) (*QuotationResult, error) {
	quote, err := s.quotations.SendQuotation(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	return &QuotationResult{Quotation: *quote}, nil
}

func (s *appService) DeclineQuotation(ctx context.Context, quotationNumber string) (*QuotationResult, error) {
	quote, err := s.quotations.DeclineQuotation(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	return &QuotationResult{Quotation: *quote}, nil
}

func (s *appService) AcceptQuotation(ctx context.Context, actorID int, quotationNumber, dueDate string) (*QuotationResult, error) {
	if actorID <= 0 {
		return nil, fmt.Errorf("invalid request: actor_id must be a positive user id")
	}
	accepted, err := s.quotations.AcceptQuotation(ctx, core.ActorContext{UserID: actorID}, quotationNumber, dueDate)
	if err != nil {
		return nil, err
	}
	return &QuotationResult{Quotation: *accepted}, nil
}

func (s *appService) ExpireQuotations(ctx context.Context, asOf string) (int, error) {
	return s.quotations.ExpireQuotations(ctx, asOf)
}

func (s *appService) GetQuotation(ctx context.Context, quotationNumber string) (*QuotationResult, error) {
	quote, err := s.quotations.GetQuotation(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	return &QuotationResult{Quotation: *quote}, nil
}

func (s *appService) ListQuotations(ctx context.Context, status string) (*QuotationListResult, error) {
	var filter *core.QuotationStatus
	if status != "" {
		st := core.QuotationStatus(status)
		filter = &st
	}
	quotations, err := s.quotations.ListQuotations(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &QuotationListResult{Quotations: quotations}, nil
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) GetCustomerStatement(ctx context.Context, customerCode, asOf string) (*core.CustomerStatement, error) {
	return s.statements.GetCustomerStatement(ctx, customerCode, asOf)
}

func (s *appService) GetAgingReport(ctx context.Context, asOf string) (*core.AgingReport, error) {
	return s.statements.GetAgingReport(ctx, asOf)
}

func (s *appService) GetStockReport(ctx context.Context) ([]core.StockReportRow, error) {
	return s.statements.GetStockReport(ctx)
}

// ── Master data ───────────────────────────────────────────────────────────────

func (s *appService) CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.masterData.CreateCustomer(ctx, core.CustomerInput{
		Code: req.Code, Name: req.Name, Email: req.Email,
		Phone: req.Phone, Address: req.Address, TPIN: req.TPIN,
	})
}

func (s *appService) UpdateCustomer(ctx context.Context, code string, req CustomerRequest) (*core.Customer, error) {
	req.Code = code
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.masterData.UpdateCustomer(ctx, code, core.CustomerInput{
		Code: code, Name: req.Name, Email: req.Email,
		Phone: req.Phone, Address: req.Address, TPIN: req.TPIN,
	})
}

func (s *appService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return s.masterData.ListCustomers(ctx)
}

func (s *appService) CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.masterData.CreateProduct(ctx, core.ProductInput{
		Code: req.Code, Name: req.Name, Description: req.Description,
		Unit: req.Unit, UnitPrice: req.UnitPrice, MinimumStockLevel: req.MinimumStockLevel,
	})
}

func (s *appService) UpdateProduct(ctx context.Context, code string, req ProductRequest) (*core.Product, error) {
	req.Code = code
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.masterData.UpdateProduct(ctx, code, core.ProductInput{
		Code: code, Name: req.Name, Description: req.Description,
		Unit: req.Unit, UnitPrice: req.UnitPrice, MinimumStockLevel: req.MinimumStockLevel,
	})
}

func (s *appService) DeactivateProduct(ctx context.Context, code string) error {
	return s.masterData.DeactivateProduct(ctx, code)
}

func (s *appService) ListProducts(ctx context.Context, activeOnly bool) ([]core.Product, error) {
	return s.masterData.ListProducts(ctx, activeOnly)
}
