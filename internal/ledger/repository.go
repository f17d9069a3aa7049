package ledger

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// LockByKey reads the record of key and holds a row lock on it until the
	// surrounding transaction ends. Soft-deleted records are returned too.
	// Returns nil, nil when the tuple has never been stored.
	LockByKey(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error)
	// GetByKey reads a live record without locking.
	GetByKey(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error)
	FindAll(ctx context.Context, filters *dto.StockFilters) ([]model.InventoryRecord, int, error)

	// Insert stores a new record; a concurrent insert of the same tuple
	// fails with a concurrency conflict.
	Insert(ctx context.Context, rec *model.InventoryRecord) error
	// Update writes rec when the stored version still equals rec.Version and
	// bumps rec.Version on success.
	Update(ctx context.Context, rec *model.InventoryRecord) error

	LogMovement(ctx context.Context, movement *model.InventoryMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}

// Cache keeps read views of single records. Implementations must tolerate
// misses; the repository stays the source of truth.
type Cache interface {
	Get(ctx context.Context, key model.StockKey) (*model.InventoryRecord, bool)
	// Set stores rec unless the cache has already seen a newer version of
	// the key, so a read that raced a commit cannot overwrite it.
	Set(ctx context.Context, rec *model.InventoryRecord)
	// Invalidate drops the entry of key and refuses later Sets of records
	// older than version, the version just committed.
	Invalidate(ctx context.Context, key model.StockKey, version int64)
}
