package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemInput struct {
	ProductID   string          `json:"product_id"`
	SizeID      string          `json:"size_id"`
	UOMID       string          `json:"uom_id"`
	TargetUOMID string          `json:"target_uom_id"`
	Qty         decimal.Decimal `json:"qty"`
	// QtyConvert is the multiplier from UOMID to TargetUOMID. When nil the
	// conversion table is consulted.
	QtyConvert *decimal.Decimal `json:"qty_convert,omitempty"`
}

type ReceiveInput struct {
	ID                string      `json:"id"`
	SourceType        string      `json:"source_type"`
	SourceReference   string      `json:"source_reference"`
	LocationID        string      `json:"location_id"`
	StorageLocationID string      `json:"storage_location_id"`
	ReceivedDate      time.Time   `json:"received_date"`
	Remark            string      `json:"remark"`
	Items             []ItemInput `json:"items"`
	Actor             string      `json:"-"`
}
