package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type ReserveLine struct {
	Key      model.StockKey  `json:"key"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReserveInput reserves every line against one reference, all or nothing.
type ReserveInput struct {
	Reference string        `json:"reference"`
	Lines     []ReserveLine `json:"lines"`
	// Policy overrides the configured policy when set.
	Policy model.ReservationPolicy `json:"policy"`
	Actor  string                  `json:"-"`
}
