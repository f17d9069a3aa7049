package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type LedgerRepository struct {
	s *Store
}

func (r *LedgerRepository) LockByKey(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	var out *model.InventoryRecord
	err := r.s.do(ctx, func(st *state) error {
		if rec, ok := st.records[key]; ok {
			c := *rec
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepository) GetByKey(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	rec, err := r.LockByKey(ctx, key)
	if err != nil || rec == nil || rec.IsDeleted() {
		return nil, err
	}
	return rec, nil
}

func (r *LedgerRepository) FindAll(ctx context.Context, f *dto.StockFilters) ([]model.InventoryRecord, int, error) {
	var out []model.InventoryRecord
	err := r.s.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.IsDeleted() {
				continue
			}
			if f.ProductID != "" && rec.ProductID != f.ProductID {
				continue
			}
			if f.LocationID != "" && rec.LocationID != f.LocationID {
				continue
			}
			if f.StorageLocationID != "" && rec.StorageLocationID != f.StorageLocationID {
				continue
			}
			if f.LowStock && !(rec.ReorderPoint.IsPositive() && rec.Available().LessThanOrEqual(rec.ReorderPoint)) {
				continue
			}
			out = append(out, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockKey.Less(out[j].StockKey) })
	start, end := page(len(out), f.Page, f.PageSize)
	return out[start:end], len(out), nil
}

func (r *LedgerRepository) Insert(ctx context.Context, rec *model.InventoryRecord) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.records[rec.StockKey]; ok {
			return apperr.Conflict("stock %s was created concurrently", rec.StockKey)
		}
		c := *rec
		st.records[rec.StockKey] = &c
		return nil
	})
}

func (r *LedgerRepository) Update(ctx context.Context, rec *model.InventoryRecord) error {
	return r.s.do(ctx, func(st *state) error {
		cur, ok := st.records[rec.StockKey]
		if !ok || cur.Version != rec.Version {
			return apperr.Conflict("stock %s changed concurrently", rec.StockKey)
		}
		rec.Version++
		c := *rec
		st.records[rec.StockKey] = &c
		return nil
	})
}

func (r *LedgerRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	return r.s.do(ctx, func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *LedgerRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var out []model.InventoryMovement
	err := r.s.do(ctx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.LocationID != "" && m.LocationID != f.LocationID {
				continue
			}
			if f.MovementType != "" && m.MovementType != f.MovementType {
				continue
			}
			if f.ReferenceID != "" && m.ReferenceID != f.ReferenceID {
				continue
			}
			if f.StartDate != nil && m.CreatedAt.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && m.CreatedAt.After(*f.EndDate) {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	start, end := page(len(out), f.Page, f.PageSize)
	return out[start:end], len(out), nil
}
