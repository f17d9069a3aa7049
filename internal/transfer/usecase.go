package transfer

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type UseCase interface {
	CreateOrUpdate(ctx context.Context, input *dto.CreateOrUpdateInput) (*model.TransferHeader, error)
	Accept(ctx context.Context, id, actor string) (*model.TransferHeader, error)
	Reject(ctx context.Context, id, actor, reason string) (*model.TransferHeader, error)
	Get(ctx context.Context, id string) (*model.TransferHeader, error)
	List(ctx context.Context, filters *dto.TransferFilters) ([]model.TransferHeader, int, error)
}
