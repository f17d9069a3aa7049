package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "pgx"), mock
}

func TestWithinTransaction_CommitsAndRunsHooks(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran := false
	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		uow.AfterCommit(ctx, func(ctx context.Context) { ran = true })
		_, err := Executor(ctx, db).ExecContext(ctx, "UPDATE stock SET x = 1")
		return err
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	ran := false
	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		uow.AfterCommit(ctx, func(ctx context.Context) { ran = true })
		return apperr.Validation("nope")
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_NestedJoinsOuter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tm := NewTxManager(db)
	err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return tm.WithinTransaction(ctx, func(ctx context.Context) error { return nil })
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, TranslateError(nil))

	deadlock := &pgconn.PgError{Code: "40P01"}
	assert.ErrorIs(t, TranslateError(deadlock), apperr.ErrConcurrencyConflict)

	serial := &pgconn.PgError{Code: "40001"}
	assert.ErrorIs(t, TranslateError(serial), apperr.ErrConcurrencyConflict)

	other := errors.New("boom")
	assert.Equal(t, other, TranslateError(other))

	stock := apperr.NegativeStock("P1/L1", "1", "-2")
	assert.Equal(t, error(stock), TranslateError(stock))
}

func TestExecutor_WithoutTransaction(t *testing.T) {
	db, _ := newMock(t)
	assert.Equal(t, sqlx.ExtContext(db), Executor(context.Background(), db))
	assert.False(t, InTransaction(context.Background()))
}
