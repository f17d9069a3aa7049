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
)

func newRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPGRepository(sqlx.NewDb(raw, "pgx")), mock
}

func TestUpsertLine_KeepsStoredID(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`INSERT INTO stock_transfer_lines .* ON CONFLICT \(transfer_id, product_id, size_id, variant\) DO UPDATE .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("line-existing"))

	line := &model.TransferLine{
		ID:         "line-new",
		TransferID: "TRF-1",
		ProductID:  "P1",
		UOMID:      "PCS",
		SizeID:     "M",
		Quantity:   decimal.NewFromInt(8),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, repo.UpsertLine(context.Background(), line))
	assert.Equal(t, "line-existing", line.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLines(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`DELETE FROM stock_transfer_lines WHERE transfer_id = \$1 AND id IN \(\$2, \$3\)`).
		WithArgs("TRF-1", "l1", "l2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteLines(context.Background(), "TRF-1", []string{"l1", "l2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLines_NothingToDelete(t *testing.T) {
	repo, mock := newRepo(t)

	require.NoError(t, repo.DeleteLines(context.Background(), "TRF-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_Missing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT .* FROM stock_transfers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, h)
}
