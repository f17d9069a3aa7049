package opname

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/opname/dto"
)

type UseCase interface {
	Submit(ctx context.Context, input *dto.SubmitInput) (*model.OpnameHeader, error)
	Get(ctx context.Context, id string) (*model.OpnameHeader, error)
	List(ctx context.Context, filters *dto.OpnameFilters) ([]model.OpnameHeader, int, error)
}
