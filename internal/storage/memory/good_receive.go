package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type ReceiveRepository struct {
	s *Store
}

func (r *ReceiveRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		_, ok = st.receipts[id]
		return nil
	})
	return ok, err
}

func (r *ReceiveRepository) Create(ctx context.Context, h *model.GoodReceiveHeader) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.receipts[h.ID]; ok {
			return apperr.Conflict("good receive %s was created concurrently", h.ID)
		}
		c := *h
		c.Items = nil
		st.receipts[h.ID] = &c
		return nil
	})
}

func (r *ReceiveRepository) CreateItems(ctx context.Context, items []model.GoodReceiveItem) error {
	return r.s.do(ctx, func(st *state) error {
		for _, it := range items {
			st.receiptItems[it.ReceiveID] = append(st.receiptItems[it.ReceiveID], it)
		}
		return nil
	})
}

func (r *ReceiveRepository) FindByID(ctx context.Context, id string) (*model.GoodReceiveHeader, error) {
	var out *model.GoodReceiveHeader
	err := r.s.do(ctx, func(st *state) error {
		h, ok := st.receipts[id]
		if !ok {
			return nil
		}
		c := *h
		c.Items = append([]model.GoodReceiveItem(nil), st.receiptItems[id]...)
		out = &c
		return nil
	})
	return out, err
}

func (r *ReceiveRepository) FindAll(ctx context.Context, f *dto.ReceiveFilters) ([]model.GoodReceiveHeader, int, error) {
	var out []model.GoodReceiveHeader
	err := r.s.do(ctx, func(st *state) error {
		for _, id := range sortedKeys(st.receipts) {
			h := st.receipts[id]
			if f.SourceType != "" && h.SourceType != f.SourceType {
				continue
			}
			if f.SourceReference != "" && h.SourceReference != f.SourceReference {
				continue
			}
			if f.LocationID != "" && h.LocationID != f.LocationID {
				continue
			}
			out = append(out, *h)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedDate.After(out[j].ReceivedDate) })
	start, end := page(len(out), f.Page, f.PageSize)
	return out[start:end], len(out), nil
}
