package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document type codes with their own number sequences.
const (
	DocTypeInvoice   = "INV"
	DocTypeQuotation = "QUO"
)

// DocumentService assigns gapless, per-type, per-year document numbers
// like INV-2026-00042. Numbers are drawn inside the issuing transaction so
// a rolled-back document never consumes one.
type DocumentService interface {
	// NextNumberTx reserves the next number for (typeCode, year) within
	// the caller's transaction.
	NextNumberTx(ctx context.Context, tx pgx.Tx, typeCode string, year int) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

// NextNumberTx bumps the (type, year) sequence row with an upsert. The row
// update takes a lock for the remainder of the transaction, which is what
// makes the sequence gapless under concurrent issuance.
func (s *documentService) NextNumberTx(ctx context.Context, tx pgx.Tx, typeCode string, year int) (string, error) {
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (type_code, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (type_code, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, typeCode, year).Scan(&lastNumber)
	if err != nil {
		return "", persistence("generate document number", err)
	}
	return fmt.Sprintf("%s-%d-%05d", typeCode, year, lastNumber), nil
}
