package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &exists, query, args...)
	return exists, err
}

func (r *PGRepository) LocationExists(ctx context.Context, locationID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1 AND deleted_at IS NULL)`, locationID)
}

func (r *PGRepository) StorageLocationEnabled(ctx context.Context, locationID, storageLocationID string) (bool, error) {
	return r.exists(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM location_storage_locations
            WHERE location_id = $1 AND storage_location_id = $2
        )`, locationID, storageLocationID)
}

func (r *PGRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active = TRUE)`, productID)
}

func (r *PGRepository) ConversionFactor(ctx context.Context, fromUOM, toUOM string) (decimal.Decimal, bool, error) {
	var factor decimal.Decimal
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &factor,
		`SELECT factor FROM uom_conversions WHERE from_uom_id = $1 AND to_uom_id = $2`, fromUOM, toUOM)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return factor, true, nil
}
