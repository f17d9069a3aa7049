package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
)

func newRepo(t *testing.T) (*PGRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "pgx")
	return NewPGRepository(db), db, mock
}

var testKey = model.StockKey{
	ProductID:  "P1",
	LocationID: "LOC-A",
	UOMID:      "PCS",
	SizeID:     "M",
	Status:     model.StatusGood,
}

func reservationRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "product_id", "location_id", "storage_location_id", "uom_id", "size_id", "status",
		"reference", "quantity", "created_by", "created_at",
	}).
		AddRow("res-1", "P1", "LOC-A", "", "PCS", "M", "GOOD", "ORD-1", "4", "alice", now).
		AddRow("res-2", "P1", "LOC-A", "", "PCS", "L", "GOOD", "ORD-1", "1.5", "alice", now)
}

func TestFindByReference_LocksInsideTransaction(t *testing.T) {
	repo, db, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM reservations WHERE reference = \$1 ORDER BY created_at FOR UPDATE`).
		WithArgs("ORD-1").
		WillReturnRows(reservationRows())
	mock.ExpectCommit()

	err := postgres.NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		items, err := repo.FindByReference(ctx, "ORD-1")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "res-1", items[0].ID)
		assert.Equal(t, testKey, items[0].StockKey)
		assert.True(t, items[1].Quantity.Equal(decimal.RequireFromString("1.5")))
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByReference_PlainReadOutsideTransaction(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectQuery(`SELECT \* FROM reservations WHERE reference = \$1 ORDER BY created_at$`).
		WithArgs("ORD-9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, err := repo.FindByReference(context.Background(), "ORD-9")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumByKey(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) FROM reservations WHERE product_id = \$1 .* AND status = \$6`).
		WithArgs("P1", "LOC-A", "", "PCS", "M", model.StatusGood).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("5.5"))

	sum, err := repo.SumByKey(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "5.5", sum.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByReference(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectExec(`DELETE FROM reservations WHERE reference = \$1`).
		WithArgs("ORD-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByReference(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
