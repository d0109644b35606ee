package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/fatoora-api/internal/application/billing"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
)

var _ billing.ChainTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInvoiceChain abre una transacción serializada por unidad EGS: el advisory lock
// se libera en el Commit/Rollback, de modo que dos facturas de la misma unidad nunca
// leen el mismo ICV/PIH.
func (r *TxRunner) RunInvoiceChain(ctx context.Context, egsUUID string, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "zatca-chain:"+egsUUID); err != nil {
		return fmt.Errorf("lock invoice chain: %w", err)
	}

	if err := fn(NewInvoiceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
