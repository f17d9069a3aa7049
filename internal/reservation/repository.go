package reservation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, r *model.Reservation) error
	FindByReference(ctx context.Context, reference string) ([]model.Reservation, error)
	DeleteByReference(ctx context.Context, reference string) (int64, error)
	SumByKey(ctx context.Context, key model.StockKey) (decimal.Decimal, error)
}
