package reservation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/reservation/dto"
)

type UseCase interface {
	Reserve(ctx context.Context, input *dto.ReserveInput) ([]model.Reservation, error)
	// Release drops every reservation of reference. Unknown references are
	// a no-op.
	Release(ctx context.Context, reference, actor string) (int, error)
	Available(ctx context.Context, key model.StockKey) (decimal.Decimal, error)
	ListByReference(ctx context.Context, reference string) ([]model.Reservation, error)
}
