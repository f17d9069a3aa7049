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

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
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

func recordRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "product_id", "location_id", "storage_location_id", "uom_id", "size_id", "status",
		"quantity_on_hand", "quantity_reserved", "reorder_point", "version", "last_counted_at",
		"created_by", "updated_by", "created_at", "updated_at", "deleted_at",
	}).AddRow(
		"rec-1", "P1", "LOC-A", "", "PCS", "M", "GOOD",
		"10", "2", "0", 3, nil,
		"u1", "u1", now, now, nil,
	)
}

func TestGetByKey(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectQuery(`SELECT .* FROM inventory_records WHERE .* AND deleted_at IS NULL`).
		WithArgs("P1", "LOC-A", "", "PCS", "M", model.StatusGood).
		WillReturnRows(recordRows())

	rec, err := repo.GetByKey(context.Background(), testKey)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "rec-1", rec.ID)
	assert.True(t, rec.QuantityOnHand.Equal(decimal.NewFromInt(10)))
	assert.True(t, rec.Available().Equal(decimal.NewFromInt(8)))
	assert.Equal(t, int64(3), rec.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByKey_Missing(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectQuery(`SELECT .* FROM inventory_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec, err := repo.GetByKey(context.Background(), testKey)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLockByKey_RequiresTransaction(t *testing.T) {
	repo, _, _ := newRepo(t)

	_, err := repo.LockByKey(context.Background(), testKey)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}

func TestLockByKey_InTransaction(t *testing.T) {
	repo, db, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM inventory_records WHERE .* FOR UPDATE`).
		WithArgs("P1", "LOC-A", "", "PCS", "M", model.StatusGood).
		WillReturnRows(recordRows())
	mock.ExpectCommit()

	err := postgres.NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		rec, err := repo.LockByKey(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, "rec-1", rec.ID)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_ConcurrentCreateIsConflict(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO inventory_records .* ON CONFLICT .* DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Insert(context.Background(), &model.InventoryRecord{ID: "rec-1", StockKey: testKey})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_BumpsVersion(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectExec(`UPDATE inventory_records SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &model.InventoryRecord{ID: "rec-1", StockKey: testKey, Version: 3}
	require.NoError(t, repo.Update(context.Background(), rec))
	assert.Equal(t, int64(4), rec.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_StaleVersionIsConflict(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectExec(`UPDATE inventory_records SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := &model.InventoryRecord{ID: "rec-1", StockKey: testKey, Version: 3}
	err := repo.Update(context.Background(), rec)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
	assert.Equal(t, int64(3), rec.Version)
}

func TestFindAll_LowStock(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM inventory_records WHERE deleted_at IS NULL AND location_id = \$1 AND quantity_on_hand - quantity_reserved <= reorder_point`).
		WithArgs("LOC-A").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .* FROM inventory_records WHERE .* ORDER BY product_id`).
		WithArgs("LOC-A").
		WillReturnRows(recordRows())

	items, total, err := repo.FindAll(context.Background(), &dto.StockFilters{LocationID: "LOC-A", LowStock: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "M", items[0].SizeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
