package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	ledgerrepo "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgeruc "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/reservation"
	"github.com/fekuna/omnipos-stock-service/internal/reservation/dto"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

var shirtM = model.StockKey{ProductID: "P1", LocationID: "LOC-A", UOMID: "PCS", SizeID: "M", Status: model.StatusGood}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T, policy model.ReservationPolicy) (reservation.UseCase, ledger.UseCase) {
	t.Helper()
	store := memory.New()
	log := logger.NewNop()
	l := ledgeruc.NewLedgerUseCase(store.Ledger(), ledgerrepo.NopCache{}, store, notify.Nop{}, nil, log, 3)
	return NewReservationUseCase(store.Reservations(), l, store, policy, log, 3), l
}

func stock(t *testing.T, l ledger.UseCase, key model.StockKey, q string) {
	t.Helper()
	_, err := l.Apply(context.Background(), &ledgerdto.ApplyInput{
		Key: key, Mode: ledgerdto.ModeDelta, Quantity: qty(q), MovementType: model.MovementReceive, Actor: "seed",
	})
	require.NoError(t, err)
}

func reserve(ref, q string) *dto.ReserveInput {
	return &dto.ReserveInput{
		Reference: ref,
		Lines:     []dto.ReserveLine{{Key: shirtM, Quantity: qty(q)}},
		Actor:     "alice",
	}
}

func TestReserve_StrictRejectsOverReservation(t *testing.T) {
	uc, l := setup(t, model.ReservationStrict)
	ctx := context.Background()
	stock(t, l, shirtM, "10")

	_, err := uc.Reserve(ctx, reserve("ORD-1", "10"))
	require.NoError(t, err)

	_, err = uc.Reserve(ctx, reserve("ORD-2", "1"))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	rec, err := l.GetStock(ctx, shirtM)
	require.NoError(t, err)
	assert.Equal(t, "10", rec.QuantityReserved.String())
	assert.Equal(t, "10", rec.QuantityOnHand.String())

	avail, err := uc.Available(ctx, shirtM)
	require.NoError(t, err)
	assert.True(t, avail.IsZero())
}

func TestReserve_AllOrNothing(t *testing.T) {
	uc, l := setup(t, model.ReservationStrict)
	ctx := context.Background()
	shirtL := shirtM
	shirtL.SizeID = "L"
	stock(t, l, shirtM, "5")
	stock(t, l, shirtL, "1")

	_, err := uc.Reserve(ctx, &dto.ReserveInput{
		Reference: "ORD-1",
		Lines: []dto.ReserveLine{
			{Key: shirtM, Quantity: qty("2")},
			{Key: shirtL, Quantity: qty("3")},
		},
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	rec, err := l.GetStock(ctx, shirtM)
	require.NoError(t, err)
	assert.True(t, rec.QuantityReserved.IsZero())

	rows, err := uc.ListByReference(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReserve_AdvisoryAllowsOverReservation(t *testing.T) {
	uc, l := setup(t, model.ReservationStrict)
	ctx := context.Background()
	stock(t, l, shirtM, "2")

	in := reserve("GR-1", "5")
	in.Policy = model.ReservationAdvisory
	_, err := uc.Reserve(ctx, in)
	require.NoError(t, err)

	avail, err := uc.Available(ctx, shirtM)
	require.NoError(t, err)
	assert.Equal(t, "-3", avail.String())
}

func TestReserve_Validation(t *testing.T) {
	uc, _ := setup(t, model.ReservationStrict)
	ctx := context.Background()

	tests := []struct {
		name  string
		input *dto.ReserveInput
	}{
		{"no reference", reserve("", "1")},
		{"zero quantity", reserve("ORD-1", "0")},
		{"negative quantity", reserve("ORD-1", "-2")},
		{"no lines", &dto.ReserveInput{Reference: "ORD-1"}},
		{"bad policy", &dto.ReserveInput{Reference: "ORD-1", Lines: reserve("x", "1").Lines, Policy: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Reserve(ctx, tt.input)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRelease_Idempotent(t *testing.T) {
	uc, l := setup(t, model.ReservationStrict)
	ctx := context.Background()
	stock(t, l, shirtM, "10")

	_, err := uc.Reserve(ctx, reserve("ORD-1", "4"))
	require.NoError(t, err)
	_, err = uc.Reserve(ctx, reserve("ORD-2", "3"))
	require.NoError(t, err)

	n, err := uc.Release(ctx, "ORD-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = uc.Release(ctx, "ORD-1", "alice")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = uc.Release(ctx, "UNKNOWN", "alice")
	require.NoError(t, err)
	assert.Zero(t, n)

	rec, err := l.GetStock(ctx, shirtM)
	require.NoError(t, err)
	assert.Equal(t, "3", rec.QuantityReserved.String())
	assert.Equal(t, "10", rec.QuantityOnHand.String())
}

// staleCache keeps answering with an on-hand that no longer exists.
type staleCache struct {
	ledgerrepo.NopCache
}

func (staleCache) Get(_ context.Context, key model.StockKey) (*model.InventoryRecord, bool) {
	return &model.InventoryRecord{StockKey: key, QuantityOnHand: qty("99")}, true
}

func TestAvailable_ReadsPastStockCache(t *testing.T) {
	store := memory.New()
	log := logger.NewNop()
	l := ledgeruc.NewLedgerUseCase(store.Ledger(), staleCache{}, store, notify.Nop{}, nil, log, 3)
	uc := NewReservationUseCase(store.Reservations(), l, store, model.ReservationStrict, log, 3)
	ctx := context.Background()
	stock(t, l, shirtM, "10")

	_, err := uc.Reserve(ctx, reserve("ORD-1", "4"))
	require.NoError(t, err)

	avail, err := uc.Available(ctx, shirtM)
	require.NoError(t, err)
	assert.Equal(t, "6", avail.String())
}
