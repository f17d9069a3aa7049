package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferPending  TransferStatus = "Pending"
	TransferAccepted TransferStatus = "Accepted"
	TransferRejected TransferStatus = "Rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferAccepted || s == TransferRejected
}

type TransferHeader struct {
	ID                    string         `db:"id" json:"id"`
	SourceLocationID      string         `db:"source_location_id" json:"source_location_id"`
	DestinationLocationID string         `db:"destination_location_id" json:"destination_location_id"`
	StorageLocationID     string         `db:"storage_location_id" json:"storage_location_id"`
	TransferDate          time.Time      `db:"transfer_date" json:"transfer_date"`
	Status                TransferStatus `db:"status" json:"status"`
	Remark                string         `db:"remark" json:"remark"`
	RejectReason          string         `db:"reject_reason" json:"reject_reason"`
	CreatedBy             string         `db:"created_by" json:"created_by"`
	UpdatedBy             string         `db:"updated_by" json:"updated_by"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`

	Lines []TransferLine `db:"-" json:"lines,omitempty"`
}

type TransferLine struct {
	ID         string          `db:"id" json:"id"`
	TransferID string          `db:"transfer_id" json:"transfer_id"`
	ProductID  string          `db:"product_id" json:"product_id"`
	UOMID      string          `db:"uom_id" json:"uom_id"`
	SizeID     string          `db:"size_id" json:"size_id"`
	Variant    string          `db:"variant" json:"variant"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// TransferLineKey identifies a detail line within its transfer.
type TransferLineKey struct {
	ProductID string
	SizeID    string
	Variant   string
}

func NormalizeVariant(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func (l TransferLine) Key() TransferLineKey {
	return TransferLineKey{ProductID: l.ProductID, SizeID: l.SizeID, Variant: NormalizeVariant(l.Variant)}
}

// SourceKey and DestinationKey are the tuples a line moves stock between.
func (h *TransferHeader) SourceKey(l TransferLine) StockKey {
	return StockKey{
		ProductID:         l.ProductID,
		LocationID:        h.SourceLocationID,
		StorageLocationID: h.StorageLocationID,
		UOMID:             l.UOMID,
		SizeID:            l.SizeID,
		Status:            StatusGood,
	}
}

func (h *TransferHeader) DestinationKey(l TransferLine) StockKey {
	k := h.SourceKey(l)
	k.LocationID = h.DestinationLocationID
	return k
}
