package repository

import (
	"context"
	"testing"

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

func TestCreateLines_SingleBatchInsert(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO stock_opname_lines .* VALUES \(\s*\$1,.*\$7\s*\),\s*\(\s*\$8,.*\$14\s*\)`).
		WithArgs(
			"line-1", "OP-1", "M", "50", "47", "-3", "torn tag",
			"line-2", "OP-1", "L", "5", "5", "0", "",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.CreateLines(context.Background(), []model.OpnameLine{
		{ID: "line-1", OpnameID: "OP-1", SizeID: "M", QuantitySystem: decimal.NewFromInt(50),
			QuantityPhysical: decimal.NewFromInt(47), Difference: decimal.NewFromInt(-3), Note: "torn tag"},
		{ID: "line-2", OpnameID: "OP-1", SizeID: "L", QuantitySystem: decimal.NewFromInt(5),
			QuantityPhysical: decimal.NewFromInt(5), Difference: decimal.Zero},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLines_EmptyIsNoop(t *testing.T) {
	repo, mock := newRepo(t)

	require.NoError(t, repo.CreateLines(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM stock_opnames WHERE id = \$1\)`).
		WithArgs("OP-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "OP-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
