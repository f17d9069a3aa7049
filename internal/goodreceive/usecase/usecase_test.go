package usecase

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	ledgerrepo "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgeruc "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := qty(s)
	return &d
}

func setup(t *testing.T) (goodreceive.UseCase, ledger.UseCase) {
	t.Helper()
	store := memory.New()
	store.AddLocation("WH-1", "RACK-A")
	store.AddProduct("P1", "P2")
	store.AddConversion("LUSIN", "PCS", qty("12"))

	log := logger.NewNop()
	l := ledgeruc.NewLedgerUseCase(store.Ledger(), ledgerrepo.NopCache{}, store, notify.Nop{}, nil, log, 3)
	return NewGoodReceiveUseCase(store.Receipts(), l, store.MasterData(), store, notify.Nop{}, log, 3), l
}

func receipt(id string, items ...dto.ItemInput) *dto.ReceiveInput {
	return &dto.ReceiveInput{
		ID:                id,
		SourceType:        model.ReceiveFromPurchase,
		SourceReference:   "PO-77",
		LocationID:        "WH-1",
		StorageLocationID: "RACK-A",
		Items:             items,
		Actor:             "dave",
	}
}

func target(product, size string) model.StockKey {
	return model.StockKey{ProductID: product, LocationID: "WH-1", StorageLocationID: "RACK-A", UOMID: "PCS", SizeID: size, Status: model.StatusGood}
}

func TestReceive_AppliesConvertedQuantity(t *testing.T) {
	uc, l := setup(t)
	ctx := context.Background()

	h, err := uc.Receive(ctx, receipt("GR-1",
		dto.ItemInput{ProductID: "P1", SizeID: "M", UOMID: "LUSIN", TargetUOMID: "PCS", Qty: qty("2")},
		dto.ItemInput{ProductID: "P1", SizeID: "L", UOMID: "BOX", TargetUOMID: "PCS", Qty: qty("3"), QtyConvert: ptr("6")},
		dto.ItemInput{ProductID: "P2", UOMID: "PCS", Qty: qty("1.5")},
	))
	require.NoError(t, err)
	require.Len(t, h.Items, 3)
	assert.Equal(t, "24", h.Items[0].QtyConverted.String())
	assert.Equal(t, "18", h.Items[1].QtyConverted.String())
	assert.Equal(t, "1", h.Items[2].QtyConvert.String())

	for k, want := range map[model.StockKey]string{
		target("P1", "M"): "24",
		target("P1", "L"): "18",
		target("P2", ""):  "1.5",
	} {
		q, err := l.GetQuantity(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, want, q.String(), k.String())
	}

	got, err := uc.Get(ctx, "GR-1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 3)
}

func TestReceive_ReversePairIsInverted(t *testing.T) {
	uc, l := setup(t)
	ctx := context.Background()

	_, err := uc.Receive(ctx, receipt("GR-1", dto.ItemInput{ProductID: "P1", SizeID: "M", UOMID: "PCS", TargetUOMID: "LUSIN", Qty: qty("24")}))
	require.NoError(t, err)

	k := target("P1", "M")
	k.UOMID = "LUSIN"
	q, err := l.GetQuantity(ctx, k)
	require.NoError(t, err)
	assert.True(t, q.Equal(qty("2")), q.String())
}

func TestReceive_Validation(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	badSource := receipt("GR-1", dto.ItemInput{ProductID: "P1", UOMID: "PCS", Qty: qty("1")})
	badSource.SourceType = "gift"
	badSloc := receipt("GR-1", dto.ItemInput{ProductID: "P1", UOMID: "PCS", Qty: qty("1")})
	badSloc.StorageLocationID = "RACK-Z"

	tests := []struct {
		name  string
		input *dto.ReceiveInput
	}{
		{"unknown source type", badSource},
		{"no items", receipt("GR-1")},
		{"zero qty", receipt("GR-1", dto.ItemInput{ProductID: "P1", UOMID: "PCS", Qty: qty("0")})},
		{"zero qty_convert", receipt("GR-1", dto.ItemInput{ProductID: "P1", UOMID: "BOX", TargetUOMID: "PCS", Qty: qty("1"), QtyConvert: ptr("0")})},
		{"negative qty_convert", receipt("GR-1", dto.ItemInput{ProductID: "P1", UOMID: "BOX", TargetUOMID: "PCS", Qty: qty("1"), QtyConvert: ptr("-2")})},
		{"unknown conversion", receipt("GR-1", dto.ItemInput{ProductID: "P1", UOMID: "KODI", TargetUOMID: "PCS", Qty: qty("1")})},
		{"unknown product", receipt("GR-1", dto.ItemInput{ProductID: "P9", UOMID: "PCS", Qty: qty("1")})},
		{"storage location not at location", badSloc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Receive(ctx, tt.input)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	_, err := uc.Get(ctx, "GR-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReceive_AppliedOnce(t *testing.T) {
	uc, l := setup(t)
	ctx := context.Background()
	in := receipt("GR-1", dto.ItemInput{ProductID: "P1", SizeID: "M", UOMID: "PCS", Qty: qty("5")})

	_, err := uc.Receive(ctx, in)
	require.NoError(t, err)
	_, err = uc.Receive(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	q, err := l.GetQuantity(ctx, target("P1", "M"))
	require.NoError(t, err)
	assert.Equal(t, "5", q.String())

	list, total, err := uc.List(ctx, &dto.ReceiveFilters{SourceReference: "PO-77"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "GR-1", list[0].ID)
}

type call struct {
	op  string
	key model.StockKey
}

// recordingLedger notes the order of locks and applies against the ledger.
type recordingLedger struct {
	ledger.UseCase
	calls []call
}

func (r *recordingLedger) LockStock(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	r.calls = append(r.calls, call{"lock", key})
	return r.UseCase.LockStock(ctx, key)
}

func (r *recordingLedger) Apply(ctx context.Context, input *ledgerdto.ApplyInput) (*ledgerdto.ApplyResult, error) {
	r.calls = append(r.calls, call{"apply", input.Key})
	return r.UseCase.Apply(ctx, input)
}

func TestReceive_LocksTuplesInKeyOrderBeforeApplying(t *testing.T) {
	store := memory.New()
	store.AddLocation("WH-1", "RACK-A")
	store.AddProduct("P1", "P2")
	log := logger.NewNop()
	l := &recordingLedger{UseCase: ledgeruc.NewLedgerUseCase(store.Ledger(), ledgerrepo.NopCache{}, store, notify.Nop{}, nil, log, 3)}
	uc := NewGoodReceiveUseCase(store.Receipts(), l, store.MasterData(), store, notify.Nop{}, log, 3)

	_, err := uc.Receive(context.Background(), receipt("GR-1",
		dto.ItemInput{ProductID: "P2", SizeID: "S", UOMID: "PCS", Qty: qty("1")},
		dto.ItemInput{ProductID: "P1", SizeID: "M", UOMID: "PCS", Qty: qty("2")},
		dto.ItemInput{ProductID: "P1", SizeID: "L", UOMID: "PCS", Qty: qty("3")},
		dto.ItemInput{ProductID: "P2", SizeID: "S", UOMID: "PCS", Qty: qty("4")},
	))
	require.NoError(t, err)

	var locked []model.StockKey
	for _, c := range l.calls {
		if c.op != "lock" {
			break
		}
		locked = append(locked, c.key)
	}
	require.Len(t, locked, 3, "one lock per distinct tuple, all before the first apply")
	assert.True(t, sort.SliceIsSorted(locked, func(i, j int) bool { return locked[i].Less(locked[j]) }))
	assert.ElementsMatch(t, []model.StockKey{target("P1", "L"), target("P1", "M"), target("P2", "S")}, locked)

	applied := 0
	for _, c := range l.calls[len(locked):] {
		assert.Equal(t, "apply", c.op)
		applied++
	}
	assert.Equal(t, 4, applied)

	q, err := l.GetQuantity(context.Background(), target("P2", "S"))
	require.NoError(t, err)
	assert.Equal(t, "5", q.String())
}
