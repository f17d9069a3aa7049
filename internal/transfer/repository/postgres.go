package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const headerColumns = `id, source_location_id, destination_location_id, storage_location_id, transfer_date,
    status, remark, reject_reason, created_by, updated_by, created_at, updated_at`

func (r *PGRepository) getHeader(ctx context.Context, query, id string) (*model.TransferHeader, error) {
	var h model.TransferHeader
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &h, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.TranslateError(err)
	}
	return &h, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.TransferHeader, error) {
	return r.getHeader(ctx, `SELECT `+headerColumns+` FROM stock_transfers WHERE id = $1`, id)
}

func (r *PGRepository) LockByID(ctx context.Context, id string) (*model.TransferHeader, error) {
	return r.getHeader(ctx, `SELECT `+headerColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.TransferHeader, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}
	if f.LocationID != "" {
		conditions = append(conditions, "(source_location_id = :location_id OR destination_location_id = :location_id)")
		args["location_id"] = f.LocationID
	}
	if f.Query != "" {
		conditions = append(conditions, "(id ILIKE :query OR remark ILIKE :query)")
		args["query"] = "%" + f.Query + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)
	var count int
	rows, err := sqlx.NamedQueryContext(ctx, exec, "SELECT count(*) FROM stock_transfers"+whereClause, args)
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

	query := "SELECT " + headerColumns + " FROM stock_transfers" + whereClause + " ORDER BY transfer_date DESC, id"
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

	items := []model.TransferHeader{}
	for rows.Next() {
		var h model.TransferHeader
		if err := rows.StructScan(&h); err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, count, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, h *model.TransferHeader) error {
	query := `
        INSERT INTO stock_transfers (` + headerColumns + `)
        VALUES (
            :id, :source_location_id, :destination_location_id, :storage_location_id, :transfer_date,
            :status, :remark, :reject_reason, :created_by, :updated_by, :created_at, :updated_at
        )`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, h)
	return postgres.TranslateError(err)
}

func (r *PGRepository) Update(ctx context.Context, h *model.TransferHeader) error {
	query := `
        UPDATE stock_transfers SET
            source_location_id = :source_location_id,
            destination_location_id = :destination_location_id,
            storage_location_id = :storage_location_id,
            transfer_date = :transfer_date,
            status = :status,
            remark = :remark,
            reject_reason = :reject_reason,
            updated_by = :updated_by,
            updated_at = :updated_at
        WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, h)
	return postgres.TranslateError(err)
}

func (r *PGRepository) ListLines(ctx context.Context, transferID string) ([]model.TransferLine, error) {
	lines := []model.TransferLine{}
	err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &lines,
		`SELECT * FROM stock_transfer_lines WHERE transfer_id = $1 ORDER BY product_id, size_id, variant`, transferID)
	return lines, err
}

func (r *PGRepository) DeleteLines(ctx context.Context, transferID string, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM stock_transfer_lines WHERE transfer_id = ? AND id IN (?)`, transferID, lineIDs)
	if err != nil {
		return err
	}
	_, err = postgres.Executor(ctx, r.DB).ExecContext(ctx, r.DB.Rebind(query), args...)
	return postgres.TranslateError(err)
}

// UpsertLine relies on the unique (transfer_id, product_id, size_id, variant)
// constraint; the stored id wins on conflict and is written back to line.
func (r *PGRepository) UpsertLine(ctx context.Context, line *model.TransferLine) error {
	query := `
        INSERT INTO stock_transfer_lines (id, transfer_id, product_id, uom_id, size_id, variant, quantity, updated_at)
        VALUES (:id, :transfer_id, :product_id, :uom_id, :size_id, :variant, :quantity, :updated_at)
        ON CONFLICT (transfer_id, product_id, size_id, variant) DO UPDATE SET
            uom_id = EXCLUDED.uom_id,
            quantity = EXCLUDED.quantity,
            updated_at = EXCLUDED.updated_at
        RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, postgres.Executor(ctx, r.DB), query, line)
	if err != nil {
		return postgres.TranslateError(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&line.ID); err != nil {
			return err
		}
	}
	return rows.Err()
}
