package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/opname/dto"
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
		`SELECT EXISTS (SELECT 1 FROM stock_opnames WHERE id = $1)`, id)
	return exists, err
}

func (r *PGRepository) Create(ctx context.Context, h *model.OpnameHeader) error {
	query := `
        INSERT INTO stock_opnames (
            id, product_id, location_id, storage_location_id, uom_id, remark, created_by, created_at
        ) VALUES (
            :id, :product_id, :location_id, :storage_location_id, :uom_id, :remark, :created_by, :created_at
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, h)
	return postgres.TranslateError(err)
}

func (r *PGRepository) CreateLines(ctx context.Context, lines []model.OpnameLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
        INSERT INTO stock_opname_lines (
            id, opname_id, size_id, quantity_system, quantity_physical, difference, note
        ) VALUES (
            :id, :opname_id, :size_id, :quantity_system, :quantity_physical, :difference, :note
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, lines)
	return postgres.TranslateError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.OpnameHeader, error) {
	exec := postgres.Executor(ctx, r.DB)

	var h model.OpnameHeader
	err := sqlx.GetContext(ctx, exec, &h, `SELECT * FROM stock_opnames WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	h.Lines = []model.OpnameLine{}
	err = sqlx.SelectContext(ctx, exec, &h.Lines, `SELECT * FROM stock_opname_lines WHERE opname_id = $1 ORDER BY size_id`, id)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OpnameFilters) ([]model.OpnameHeader, int, error) {
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)
	var count int
	rows, err := sqlx.NamedQueryContext(ctx, exec, "SELECT count(*) FROM stock_opnames"+whereClause, args)
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

	query := "SELECT * FROM stock_opnames" + whereClause + " ORDER BY created_at DESC"
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

	items := []model.OpnameHeader{}
	for rows.Next() {
		var h model.OpnameHeader
		if err := rows.StructScan(&h); err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, count, rows.Err()
}
