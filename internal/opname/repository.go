package opname

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/opname/dto"
)

type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, header *model.OpnameHeader) error
	CreateLines(ctx context.Context, lines []model.OpnameLine) error
	FindByID(ctx context.Context, id string) (*model.OpnameHeader, error)
	FindAll(ctx context.Context, filters *dto.OpnameFilters) ([]model.OpnameHeader, int, error)
}

// Locker serializes submissions of the same opname across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
