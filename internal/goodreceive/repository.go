package goodreceive

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, header *model.GoodReceiveHeader) error
	CreateItems(ctx context.Context, items []model.GoodReceiveItem) error
	FindByID(ctx context.Context, id string) (*model.GoodReceiveHeader, error)
	FindAll(ctx context.Context, filters *dto.ReceiveFilters) ([]model.GoodReceiveHeader, int, error)
}
