package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner scopes a function to one database transaction: begin, run,
// commit on success, roll back on any error or panic.  The booking engines
// depend on this so every reservation and cancellation is a single atomic
// unit of work with no partially visible state.
type TxRunner struct {
	DB *sql.DB
}

// NewTxRunner returns a TxRunner over the given pool.
func NewTxRunner(db *sql.DB) *TxRunner { return &TxRunner{DB: db} }

// WithinTx runs fn inside a transaction.  The returned error is fn's error
// when it fails (the rollback error, if any, is dropped in its favour) or
// the commit error otherwise.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
