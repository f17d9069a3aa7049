package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

var key = model.StockKey{ProductID: "P1", LocationID: "LOC-A", UOMID: "PCS", SizeID: "M", Status: model.StatusGood}

func TestWithinTransaction_RollbackRestoresState(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Ledger()
	require.NoError(t, repo.Insert(ctx, &model.InventoryRecord{ID: "r1", StockKey: key, QuantityOnHand: decimal.NewFromInt(10)}))

	hookRan := false
	boom := errors.New("boom")
	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := repo.LockByKey(ctx, key)
		require.NoError(t, err)
		rec.QuantityOnHand = decimal.NewFromInt(3)
		require.NoError(t, repo.Update(ctx, rec))
		require.NoError(t, repo.LogMovement(ctx, &model.InventoryMovement{ID: "m1", StockKey: key}))
		uow.AfterCommit(ctx, func(context.Context) { hookRan = true })
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, hookRan)

	rec, err := repo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.QuantityOnHand.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(0), rec.Version)

	_, total, err := repo.ListMovements(ctx, &dto.MovementFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWithinTransaction_CommitRunsHooks(t *testing.T) {
	s := New()
	hookRan := false
	err := s.WithinTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, uow.Active(ctx))
		// nested call joins instead of deadlocking on the store mutex
		return s.WithinTransaction(ctx, func(ctx context.Context) error {
			uow.AfterCommit(ctx, func(context.Context) { hookRan = true })
			return s.Ledger().Insert(ctx, &model.InventoryRecord{ID: "r1", StockKey: key})
		})
	})
	require.NoError(t, err)
	assert.True(t, hookRan)

	rec, err := s.Ledger().GetByKey(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
}

func TestLedgerRepository_OptimisticVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Ledger()
	require.NoError(t, repo.Insert(ctx, &model.InventoryRecord{ID: "r1", StockKey: key}))

	err := repo.Insert(ctx, &model.InventoryRecord{ID: "r2", StockKey: key})
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)

	first, _ := repo.GetByKey(ctx, key)
	second, _ := repo.GetByKey(ctx, key)
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(1), first.Version)
	assert.ErrorIs(t, repo.Update(ctx, second), apperr.ErrConcurrencyConflict)
}

func TestLedgerRepository_FindAllLowStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Ledger()
	low := key
	ok := key
	ok.SizeID = "L"
	unset := key
	unset.SizeID = "XL"
	require.NoError(t, repo.Insert(ctx, &model.InventoryRecord{ID: "r1", StockKey: low,
		QuantityOnHand: decimal.NewFromInt(5), QuantityReserved: decimal.NewFromInt(2), ReorderPoint: decimal.NewFromInt(3)}))
	require.NoError(t, repo.Insert(ctx, &model.InventoryRecord{ID: "r2", StockKey: ok,
		QuantityOnHand: decimal.NewFromInt(50), ReorderPoint: decimal.NewFromInt(3)}))
	require.NoError(t, repo.Insert(ctx, &model.InventoryRecord{ID: "r3", StockKey: unset}))

	items, total, err := repo.FindAll(ctx, &dto.StockFilters{LowStock: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "r1", items[0].ID)

	_, total, err = repo.FindAll(ctx, &dto.StockFilters{LocationID: "LOC-A"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestPage(t *testing.T) {
	tests := []struct {
		name               string
		total, page, size  int
		wantStart, wantEnd int
	}{
		{"all", 5, 0, 0, 0, 5},
		{"first page", 5, 1, 2, 0, 2},
		{"last partial page", 5, 3, 2, 4, 5},
		{"past the end", 5, 9, 2, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := page(tt.total, tt.page, tt.size)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
