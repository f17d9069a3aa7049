package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type StockFilters struct {
	ProductID         string
	LocationID        string
	StorageLocationID string
	LowStock          bool // available <= reorder_point and reorder_point > 0
	Page              int
	PageSize          int
}

type MovementFilters struct {
	ProductID    string
	LocationID   string
	MovementType string
	ReferenceID  string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

// ApplyResult describes one committed-to-be ledger change.
type ApplyResult struct {
	Record            *model.InventoryRecord
	Before            decimal.Decimal
	After             decimal.Decimal
	Change            decimal.Decimal
	BelowReorderPoint bool
}
