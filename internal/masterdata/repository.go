package masterdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository answers the reference-data questions the stock workflows ask
// before writing: do the locations exist, does a location carry a storage
// location, is the product known, how do two units convert.
type Repository interface {
	LocationExists(ctx context.Context, locationID string) (bool, error)
	StorageLocationEnabled(ctx context.Context, locationID, storageLocationID string) (bool, error)
	ProductExists(ctx context.Context, productID string) (bool, error)

	// ConversionFactor returns the multiplier turning one fromUOM into
	// toUOM; ok is false when the pair is unknown.
	ConversionFactor(ctx context.Context, fromUOM, toUOM string) (factor decimal.Decimal, ok bool, err error)
}
