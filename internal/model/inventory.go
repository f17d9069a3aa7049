package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatusGood is the stock status of sellable goods.
const StatusGood = "GOOD"

// StockKey identifies one inventory bucket. It is comparable and used
// directly as a map key; storage holds it as a composite unique constraint.
// Empty components mean "not applicable" and are stored as empty strings.
type StockKey struct {
	ProductID         string `db:"product_id" json:"product_id"`
	LocationID        string `db:"location_id" json:"location_id"`
	StorageLocationID string `db:"storage_location_id" json:"storage_location_id"`
	UOMID             string `db:"uom_id" json:"uom_id"`
	SizeID            string `db:"size_id" json:"size_id"`
	Status            string `db:"status" json:"status"`
}

func (k StockKey) String() string {
	return strings.Join([]string{k.ProductID, k.LocationID, k.StorageLocationID, k.UOMID, k.SizeID, k.Status}, "/")
}

// Less orders keys lexicographically by component. Workflows touching
// several tuples lock them in this order.
func (k StockKey) Less(o StockKey) bool {
	a := [...]string{k.ProductID, k.LocationID, k.StorageLocationID, k.UOMID, k.SizeID, k.Status}
	b := [...]string{o.ProductID, o.LocationID, o.StorageLocationID, o.UOMID, o.SizeID, o.Status}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// WithDefaults returns k with the status defaulted to GOOD.
func (k StockKey) WithDefaults() StockKey {
	if k.Status == "" {
		k.Status = StatusGood
	}
	return k
}

func (k StockKey) Validate() error {
	if k.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if k.LocationID == "" {
		return fmt.Errorf("location_id is required")
	}
	if k.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

type InventoryRecord struct {
	ID string `db:"id" json:"id"`
	StockKey
	QuantityOnHand   decimal.Decimal `db:"quantity_on_hand" json:"quantity_on_hand"`
	QuantityReserved decimal.Decimal `db:"quantity_reserved" json:"quantity_reserved"`
	ReorderPoint     decimal.Decimal `db:"reorder_point" json:"reorder_point"`
	Version          int64           `db:"version" json:"version"`
	LastCountedAt    *time.Time      `db:"last_counted_at" json:"last_counted_at,omitempty"`
	CreatedBy        string          `db:"created_by" json:"created_by"`
	UpdatedBy        string          `db:"updated_by" json:"updated_by"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Available is the available-to-sell quantity.
func (r *InventoryRecord) Available() decimal.Decimal {
	return r.QuantityOnHand.Sub(r.QuantityReserved)
}

func (r *InventoryRecord) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Movement types written to the audit trail.
const (
	MovementReceive     = "receive"
	MovementTransferOut = "transfer_out"
	MovementTransferIn  = "transfer_in"
	MovementOpname      = "opname"
	MovementAdjustment  = "adjustment"
)

// Reference types of movements and reservations.
const (
	ReferenceTransfer    = "transfer"
	ReferenceOpname      = "opname"
	ReferenceGoodReceive = "good_receive"
	ReferenceOrder       = "order"
	ReferenceManual      = "manual"
)

type InventoryMovement struct {
	ID string `db:"id" json:"id"`
	StockKey
	MovementType   string          `db:"movement_type" json:"movement_type"`
	QuantityChange decimal.Decimal `db:"quantity_change" json:"quantity_change"`
	QuantityBefore decimal.Decimal `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  decimal.Decimal `db:"quantity_after" json:"quantity_after"`
	ReferenceType  string          `db:"reference_type" json:"reference_type"`
	ReferenceID    string          `db:"reference_id" json:"reference_id"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
