package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineInput struct {
	ProductID string          `json:"product_id"`
	UOMID     string          `json:"uom_id"`
	SizeID    string          `json:"size_id"`
	Variant   string          `json:"variant"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type CreateOrUpdateInput struct {
	ID                    string      `json:"id"`
	SourceLocationID      string      `json:"source_location_id"`
	DestinationLocationID string      `json:"destination_location_id"`
	StorageLocationID     string      `json:"storage_location_id"`
	TransferDate          time.Time   `json:"transfer_date"`
	Remark                string      `json:"remark"`
	Lines                 []LineInput `json:"lines"`
	Actor                 string      `json:"-"`
}
