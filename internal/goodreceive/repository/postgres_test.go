package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

func newRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPGRepository(sqlx.NewDb(raw, "pgx")), mock
}

func items() []model.GoodReceiveItem {
	return []model.GoodReceiveItem{
		{ID: "it-1", ReceiveID: "GR-1", ProductID: "P1", SizeID: "M", UOMID: "LUSIN", TargetUOMID: "PCS",
			Qty: decimal.NewFromInt(2), QtyConvert: decimal.NewFromInt(12), QtyConverted: decimal.NewFromInt(24)},
		{ID: "it-2", ReceiveID: "GR-1", ProductID: "P2", UOMID: "PCS", TargetUOMID: "PCS",
			Qty: decimal.RequireFromString("1.5"), QtyConvert: decimal.NewFromInt(1), QtyConverted: decimal.RequireFromString("1.5")},
	}
}

func TestCreateItems_SingleBatchInsert(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO goods_receipt_items .* VALUES \(\s*\$1,.*\$9\s*\),\s*\(\s*\$10,.*\$18\s*\)`).
		WithArgs(
			"it-1", "GR-1", "P1", "M", "LUSIN", "PCS", "2", "12", "24",
			"it-2", "GR-1", "P2", "", "PCS", "PCS", "1.5", "1", "1.5",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.CreateItems(context.Background(), items()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItems_EmptyIsNoop(t *testing.T) {
	repo, mock := newRepo(t)

	require.NoError(t, repo.CreateItems(context.Background(), []model.GoodReceiveItem{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItems_DuplicateIsConflict(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO goods_receipt_items`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "goods_receipt_items_pkey"})

	err := repo.CreateItems(context.Background(), items())
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
