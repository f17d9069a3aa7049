package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReceiveFromProduction = "production"
	ReceiveFromPurchase   = "purchase"
)

type GoodReceiveHeader struct {
	ID                string    `db:"id" json:"id"`
	SourceType        string    `db:"source_type" json:"source_type"`
	SourceReference   string    `db:"source_reference" json:"source_reference"`
	LocationID        string    `db:"location_id" json:"location_id"`
	StorageLocationID string    `db:"storage_location_id" json:"storage_location_id"`
	ReceivedDate      time.Time `db:"received_date" json:"received_date"`
	Remark            string    `db:"remark" json:"remark"`
	CreatedBy         string    `db:"created_by" json:"created_by"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	Items []GoodReceiveItem `db:"-" json:"items,omitempty"`
}

type GoodReceiveItem struct {
	ID           string          `db:"id" json:"id"`
	ReceiveID    string          `db:"receive_id" json:"receive_id"`
	ProductID    string          `db:"product_id" json:"product_id"`
	SizeID       string          `db:"size_id" json:"size_id"`
	UOMID        string          `db:"uom_id" json:"uom_id"`
	TargetUOMID  string          `db:"target_uom_id" json:"target_uom_id"`
	Qty          decimal.Decimal `db:"qty" json:"qty"`
	QtyConvert   decimal.Decimal `db:"qty_convert" json:"qty_convert"`
	QtyConverted decimal.Decimal `db:"qty_converted" json:"qty_converted"`
}

func (h *GoodReceiveHeader) Key(item GoodReceiveItem) StockKey {
	return StockKey{
		ProductID:         item.ProductID,
		LocationID:        h.LocationID,
		StorageLocationID: h.StorageLocationID,
		UOMID:             item.TargetUOMID,
		SizeID:            item.SizeID,
		Status:            StatusGood,
	}
}
