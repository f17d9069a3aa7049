package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, res *model.Reservation) error {
	query := `
        INSERT INTO reservations (
            id, product_id, location_id, storage_location_id, uom_id, size_id, status,
            reference, quantity, created_by, created_at
        ) VALUES (
            :id, :product_id, :location_id, :storage_location_id, :uom_id, :size_id, :status,
            :reference, :quantity, :created_by, :created_at
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, res)
	return postgres.TranslateError(err)
}

// FindByReference locks the rows when called inside a transaction so two
// releases of the same reference serialize.
func (r *PGRepository) FindByReference(ctx context.Context, reference string) ([]model.Reservation, error) {
	query := `SELECT * FROM reservations WHERE reference = $1 ORDER BY created_at`
	if postgres.InTransaction(ctx) {
		query += ` FOR UPDATE`
	}
	items := []model.Reservation{}
	err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &items, query, reference)
	return items, postgres.TranslateError(err)
}

func (r *PGRepository) DeleteByReference(ctx context.Context, reference string) (int64, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `DELETE FROM reservations WHERE reference = $1`, reference)
	if err != nil {
		return 0, postgres.TranslateError(err)
	}
	return res.RowsAffected()
}

func (r *PGRepository) SumByKey(ctx context.Context, key model.StockKey) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &sum, `
        SELECT COALESCE(SUM(quantity), 0) FROM reservations
        WHERE product_id = $1 AND location_id = $2 AND storage_location_id = $3
          AND uom_id = $4 AND size_id = $5 AND status = $6`,
		key.ProductID, key.LocationID, key.StorageLocationID, key.UOMID, key.SizeID, key.Status)
	return sum, err
}
