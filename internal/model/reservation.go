package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationPolicy decides whether a reservation may exceed on-hand stock.
type ReservationPolicy string

const (
	ReservationStrict   ReservationPolicy = "strict"
	ReservationAdvisory ReservationPolicy = "advisory"
)

func (p ReservationPolicy) IsValid() bool {
	switch p {
	case ReservationStrict, ReservationAdvisory:
		return true
	default:
		return false
	}
}

// Reservation holds quantity of a tuple against an order or other
// transaction reference. On-hand is never touched by reservations.
type Reservation struct {
	ID string `db:"id" json:"id"`
	StockKey
	Reference string          `db:"reference" json:"reference"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	CreatedBy string          `db:"created_by" json:"created_by"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
