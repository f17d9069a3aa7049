package dto

import "github.com/shopspring/decimal"

type LineInput struct {
	SizeID           string          `json:"size_id"`
	QuantityPhysical decimal.Decimal `json:"quantity_physical"`
	// QuantitySnapshot is the system quantity seen when the count was
	// taken. Optional; used by the reject and delta drift policies.
	QuantitySnapshot *decimal.Decimal `json:"quantity_snapshot,omitempty"`
	Note             string           `json:"note"`
}

type SubmitInput struct {
	ID                string      `json:"id"`
	ProductID         string      `json:"product_id"`
	LocationID        string      `json:"location_id"`
	StorageLocationID string      `json:"storage_location_id"`
	UOMID             string      `json:"uom_id"`
	Remark            string      `json:"remark"`
	Lines             []LineInput `json:"lines"`
	Actor             string      `json:"-"`
}
