package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type ReservationRepository struct {
	s *Store
}

func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation) error {
	return r.s.do(ctx, func(st *state) error {
		st.reservations = append(st.reservations, *res)
		return nil
	})
}

func (r *ReservationRepository) FindByReference(ctx context.Context, reference string) ([]model.Reservation, error) {
	var out []model.Reservation
	err := r.s.do(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if res.Reference == reference {
				out = append(out, res)
			}
		}
		return nil
	})
	return out, err
}

func (r *ReservationRepository) DeleteByReference(ctx context.Context, reference string) (int64, error) {
	var deleted int64
	err := r.s.do(ctx, func(st *state) error {
		kept := st.reservations[:0:0]
		for _, res := range st.reservations {
			if res.Reference == reference {
				deleted++
				continue
			}
			kept = append(kept, res)
		}
		st.reservations = kept
		return nil
	})
	return deleted, err
}

func (r *ReservationRepository) SumByKey(ctx context.Context, key model.StockKey) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.s.do(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if res.StockKey == key {
				sum = sum.Add(res.Quantity)
			}
		}
		return nil
	})
	return sum, err
}
