package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

type txKey struct{}

// TxManager opens database transactions and carries them in the context.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

var _ uow.Transactor = (*TxManager)(nil)

func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return TranslateError(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txCtx, hooks := uow.WithHooks(context.WithValue(ctx, txKey{}, tx))
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return TranslateError(err)
	}
	if err := tx.Commit(); err != nil {
		return TranslateError(fmt.Errorf("commit tx: %w", err))
	}
	hooks.Run(ctx)
	return nil
}

// Executor returns the transaction open on ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

// TranslateError maps Postgres lock conflicts onto the retryable
// concurrency conflict code and leaves every other error untouched.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return apperr.Conflict("concurrent update, retry the operation").Wrap(err)
		case pgUniqueViolation:
			return apperr.Conflict("row was created concurrently (%s)", pgErr.ConstraintName).Wrap(err)
		}
	}
	return err
}
