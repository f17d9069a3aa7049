package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Mode string

const (
	// ModeAbsolute makes Quantity the new on-hand.
	ModeAbsolute Mode = "absolute"
	// ModeDelta adds Quantity to on-hand.
	ModeDelta Mode = "delta"
)

type ApplyInput struct {
	Key           model.StockKey
	Mode          Mode
	Quantity      decimal.Decimal
	MovementType  string
	ReferenceType string
	ReferenceID   string
	Notes         string
	Actor         string
}

type ReservedInput struct {
	Key   model.StockKey
	Delta decimal.Decimal
	// Enforce rejects a reserved total above on-hand.
	Enforce bool
	Actor   string
}

type AdjustInput struct {
	Key      model.StockKey  `json:"key"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
	Actor    string          `json:"-"`
}
