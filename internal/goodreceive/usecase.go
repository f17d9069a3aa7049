package goodreceive

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	Receive(ctx context.Context, input *dto.ReceiveInput) (*model.GoodReceiveHeader, error)
	Get(ctx context.Context, id string) (*model.GoodReceiveHeader, error)
	List(ctx context.Context, filters *dto.ReceiveFilters) ([]model.GoodReceiveHeader, int, error)
}
