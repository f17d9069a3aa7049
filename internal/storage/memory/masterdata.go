package memory

import (
	"context"

	"github.com/shopspring/decimal"
)

type MasterDataRepository struct {
	s *Store
}

func (r *MasterDataRepository) LocationExists(ctx context.Context, locationID string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		_, ok = st.locations[locationID]
		return nil
	})
	return ok, err
}

func (r *MasterDataRepository) StorageLocationEnabled(ctx context.Context, locationID, storageLocationID string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		ok = st.locations[locationID][storageLocationID]
		return nil
	})
	return ok, err
}

func (r *MasterDataRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		ok = st.products[productID]
		return nil
	})
	return ok, err
}

func (r *MasterDataRepository) ConversionFactor(ctx context.Context, fromUOM, toUOM string) (decimal.Decimal, bool, error) {
	var (
		factor decimal.Decimal
		ok     bool
	)
	err := r.s.do(ctx, func(st *state) error {
		factor, ok = st.conversions[[2]string{fromUOM, toUOM}]
		return nil
	})
	return factor, ok, err
}
