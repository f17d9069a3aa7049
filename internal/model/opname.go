package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpnameDriftPolicy decides what happens when stock moved between the
// physical count and its submission.
type OpnameDriftPolicy string

const (
	// OpnameOverwrite sets on-hand to the counted quantity, last writer wins.
	OpnameOverwrite OpnameDriftPolicy = "overwrite"
	// OpnameReject fails the submission when a line's snapshot is stale.
	OpnameReject OpnameDriftPolicy = "reject"
	// OpnameDelta applies physical minus snapshot on top of current stock.
	OpnameDelta OpnameDriftPolicy = "delta"
)

func (p OpnameDriftPolicy) IsValid() bool {
	switch p {
	case OpnameOverwrite, OpnameReject, OpnameDelta:
		return true
	default:
		return false
	}
}

type OpnameHeader struct {
	ID                string    `db:"id" json:"id"`
	ProductID         string    `db:"product_id" json:"product_id"`
	LocationID        string    `db:"location_id" json:"location_id"`
	StorageLocationID string    `db:"storage_location_id" json:"storage_location_id"`
	UOMID             string    `db:"uom_id" json:"uom_id"`
	Remark            string    `db:"remark" json:"remark"`
	CreatedBy         string    `db:"created_by" json:"created_by"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	Lines []OpnameLine `db:"-" json:"lines,omitempty"`
}

type OpnameLine struct {
	ID               string          `db:"id" json:"id"`
	OpnameID         string          `db:"opname_id" json:"opname_id"`
	SizeID           string          `db:"size_id" json:"size_id"`
	QuantitySystem   decimal.Decimal `db:"quantity_system" json:"quantity_system"`
	QuantityPhysical decimal.Decimal `db:"quantity_physical" json:"quantity_physical"`
	Difference       decimal.Decimal `db:"difference" json:"difference"`
	Note             string          `db:"note" json:"note"`
}

func (h *OpnameHeader) Key(sizeID string) StockKey {
	return StockKey{
		ProductID:         h.ProductID,
		LocationID:        h.LocationID,
		StorageLocationID: h.StorageLocationID,
		UOMID:             h.UOMID,
		SizeID:            sizeID,
		Status:            StatusGood,
	}
}
