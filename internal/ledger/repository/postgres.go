package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
)

const recordColumns = `id, product_id, location_id, storage_location_id, uom_id, size_id, status,
    quantity_on_hand, quantity_reserved, reorder_point, version, last_counted_at,
    created_by, updated_by, created_at, updated_at, deleted_at`

const keyCondition = `product_id = $1 AND location_id = $2 AND storage_location_id = $3
    AND uom_id = $4 AND size_id = $5 AND status = $6`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func keyArgs(k model.StockKey) []interface{} {
	return []interface{}{k.ProductID, k.LocationID, k.StorageLocationID, k.UOMID, k.SizeID, k.Status}
}

func (r *PGRepository) getOne(ctx context.Context, query string, key model.StockKey) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &rec, query, keyArgs(key)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.TranslateError(err)
	}
	return &rec, nil
}

func (r *PGRepository) LockByKey(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	if !postgres.InTransaction(ctx) {
		return nil, apperr.Internal("lock stock outside a transaction", nil)
	}
	return r.getOne(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE `+keyCondition+` FOR UPDATE`, key)
}

func (r *PGRepository) GetByKey(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	return r.getOne(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE `+keyCondition+` AND deleted_at IS NULL`, key)
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.StockFilters) ([]model.InventoryRecord, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.StorageLocationID != "" {
		conditions = append(conditions, "storage_location_id = :storage_location_id")
		args["storage_location_id"] = f.StorageLocationID
	}
	if f.LowStock {
		conditions = append(conditions, "quantity_on_hand - quantity_reserved <= reorder_point AND reorder_point > 0")
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	exec := postgres.Executor(ctx, r.DB)
	count, err := namedCount(ctx, exec, "SELECT count(*) FROM inventory_records"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT " + recordColumns + " FROM inventory_records" + whereClause +
		" ORDER BY product_id, location_id, storage_location_id, uom_id, size_id, status"
	query += pagination(f.Page, f.PageSize)

	rows, err := sqlx.NamedQueryContext(ctx, exec, query, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []model.InventoryRecord{}
	for rows.Next() {
		var rec model.InventoryRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, count, rows.Err()
}

func (r *PGRepository) Insert(ctx context.Context, rec *model.InventoryRecord) error {
	query := `
        INSERT INTO inventory_records (
            id, product_id, location_id, storage_location_id, uom_id, size_id, status,
            quantity_on_hand, quantity_reserved, reorder_point, version, last_counted_at,
            created_by, updated_by, created_at, updated_at
        ) VALUES (
            :id, :product_id, :location_id, :storage_location_id, :uom_id, :size_id, :status,
            :quantity_on_hand, :quantity_reserved, :reorder_point, :version, :last_counted_at,
            :created_by, :updated_by, :created_at, :updated_at
        )
        ON CONFLICT (product_id, location_id, storage_location_id, uom_id, size_id, status) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, rec)
	if err != nil {
		return postgres.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Conflict("stock %s was created concurrently", rec.StockKey)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, rec *model.InventoryRecord) error {
	query := `
        UPDATE inventory_records SET
            quantity_on_hand = :quantity_on_hand,
            quantity_reserved = :quantity_reserved,
            reorder_point = :reorder_point,
            last_counted_at = :last_counted_at,
            updated_by = :updated_by,
            updated_at = :updated_at,
            deleted_at = :deleted_at,
            version = version + 1
        WHERE id = :id AND version = :version`
	res, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, rec)
	if err != nil {
		return postgres.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Conflict("stock %s changed concurrently", rec.StockKey)
	}
	rec.Version++
	return nil
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
        INSERT INTO inventory_movements (
            id, product_id, location_id, storage_location_id, uom_id, size_id, status,
            movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        ) VALUES (
            :id, :product_id, :location_id, :storage_location_id, :uom_id, :size_id, :status,
            :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, m)
	return postgres.TranslateError(err)
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)
	count, err := namedCount(ctx, exec, "SELECT count(*) FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	query += pagination(f.Page, f.PageSize)

	rows, err := sqlx.NamedQueryContext(ctx, exec, query, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []model.InventoryMovement{}
	for rows.Next() {
		var m model.InventoryMovement
		if err := rows.StructScan(&m); err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, count, rows.Err()
}

func namedCount(ctx context.Context, exec sqlx.ExtContext, query string, args map[string]interface{}) (int, error) {
	rows, err := sqlx.NamedQueryContext(ctx, exec, query, args)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

func pagination(page, pageSize int) string {
	if pageSize <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
}
