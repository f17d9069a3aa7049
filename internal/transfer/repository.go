package transfer

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.TransferHeader, error)
	// LockByID reads the header and holds a row lock on it until the
	// surrounding transaction ends.
	LockByID(ctx context.Context, id string) (*model.TransferHeader, error)
	FindAll(ctx context.Context, filters *dto.TransferFilters) ([]model.TransferHeader, int, error)
	Create(ctx context.Context, header *model.TransferHeader) error
	Update(ctx context.Context, header *model.TransferHeader) error

	ListLines(ctx context.Context, transferID string) ([]model.TransferLine, error)
	DeleteLines(ctx context.Context, transferID string, lineIDs []string) error
	// UpsertLine inserts the line or updates the stored line with the same
	// (transfer, product, size, variant) key in place.
	UpsertLine(ctx context.Context, line *model.TransferLine) error
}

// Indexer mirrors transfer headers into a search index.
type Indexer interface {
	Index(ctx context.Context, header *model.TransferHeader) error
	Search(ctx context.Context, filters *dto.TransferFilters) ([]model.TransferHeader, int, error)
}
