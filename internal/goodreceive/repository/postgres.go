package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &exists,
		`SELECT EXISTS (SELECT 1 FROM goods_receipts WHERE id = $1)`, id)
	return exists, err
}

func (r *PGRepository) Create(ctx context.Context, h *model.GoodReceiveHeader) error {
	query := `
        INSERT INTO goods_receipts (
            id, source_type, source_reference, location_id, storage_location_id,
            received_date, remark, created_by, created_at
        ) VALUES (
            :id, :source_type, :source_reference, :location_id, :storage_location_id,
            :received_date, :remark, :created_by, :created_at
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, h)
	return postgres.TranslateError(err)
}

func (r *PGRepository) CreateItems(ctx context.Context, items []model.GoodReceiveItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
        INSERT INTO goods_receipt_items (
            id, receive_id, product_id, size_id, uom_id, target_uom_id, qty, qty_convert, qty_converted
        ) VALUES (
            :id, :receive_id, :product_id, :size_id, :uom_id, :target_uom_id, :qty, :qty_convert, :qty_converted
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, items)
	return postgres.TranslateError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.GoodReceiveHeader, error) {
	exec := postgres.Executor(ctx, r.DB)

	var h model.GoodReceiveHeader
	err := sqlx.GetContext(ctx, exec, &h, `SELECT * FROM goods_receipts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	h.Items = []model.GoodReceiveItem{}
	err = sqlx.SelectContext(ctx, exec, &h.Items, `SELECT * FROM goods_receipt_items WHERE receive_id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ReceiveFilters) ([]model.GoodReceiveHeader, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SourceType != "" {
		conditions = append(conditions, "source_type = :source_type")
		args["source_type"] = f.SourceType
	}
	if f.SourceReference != "" {
		conditions = append(conditions, "source_reference = :source_reference")
		args["source_reference"] = f.SourceReference
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)
	var count int
	rows, err := sqlx.NamedQueryContext(ctx, exec, "SELECT count(*) FROM goods_receipts"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		err = rows.Scan(&count)
	}
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM goods_receipts" + whereClause + " ORDER BY received_date DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	rows, err = sqlx.NamedQueryContext(ctx, exec, query, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []model.GoodReceiveHeader{}
	for rows.Next() {
		var h model.GoodReceiveHeader
		if err := rows.StructScan(&h); err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, count, rows.Err()
}
