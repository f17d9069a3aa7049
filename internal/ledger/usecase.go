package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	// Apply changes on-hand of one tuple, creating the record on first use.
	// It joins the transaction on ctx or opens its own.
	Apply(ctx context.Context, input *dto.ApplyInput) (*dto.ApplyResult, error)
	// AdjustReserved moves the reserved counter of one tuple; on-hand is
	// never touched.
	AdjustReserved(ctx context.Context, input *dto.ReservedInput) (*model.InventoryRecord, error)
	// Adjust is a manual delta correction with its own audit reason.
	Adjust(ctx context.Context, input *dto.AdjustInput) (*model.InventoryRecord, error)
	SetReorderPoint(ctx context.Context, key model.StockKey, point decimal.Decimal, actor string) (*model.InventoryRecord, error)
	Archive(ctx context.Context, key model.StockKey, actor string) error
	// LockStock reads the record of key under row lock. It must be called
	// inside a transaction; a tuple without a record yields a zero record.
	LockStock(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error)

	GetQuantity(ctx context.Context, key model.StockKey) (decimal.Decimal, error)
	GetStock(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error)
	ListStock(ctx context.Context, filters *dto.StockFilters) ([]model.InventoryRecord, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
