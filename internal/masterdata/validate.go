package masterdata

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

// CheckPlace verifies that the location exists and, when storageLocationID
// is set, that the location carries it.
func CheckPlace(ctx context.Context, repo Repository, locationID, storageLocationID string) error {
	ok, err := repo.LocationExists(ctx, locationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("location %s does not exist", locationID)
	}
	if storageLocationID == "" {
		return nil
	}
	ok, err = repo.StorageLocationEnabled(ctx, locationID, storageLocationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("storage location %s is not enabled at %s", storageLocationID, locationID)
	}
	return nil
}

func CheckProducts(ctx context.Context, repo Repository, productIDs ...string) error {
	seen := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ok, err := repo.ProductExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("product %s does not exist", id)
		}
	}
	return nil
}
