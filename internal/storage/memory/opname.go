package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/opname/dto"
)

type OpnameRepository struct {
	s *Store
}

func (r *OpnameRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *state) error {
		_, ok = st.opnames[id]
		return nil
	})
	return ok, err
}

func (r *OpnameRepository) Create(ctx context.Context, h *model.OpnameHeader) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.opnames[h.ID]; ok {
			return apperr.Conflict("opname %s was created concurrently", h.ID)
		}
		c := *h
		c.Lines = nil
		st.opnames[h.ID] = &c
		return nil
	})
}

func (r *OpnameRepository) CreateLines(ctx context.Context, lines []model.OpnameLine) error {
	return r.s.do(ctx, func(st *state) error {
		for _, l := range lines {
			st.opnameLines[l.OpnameID] = append(st.opnameLines[l.OpnameID], l)
		}
		return nil
	})
}

func (r *OpnameRepository) FindByID(ctx context.Context, id string) (*model.OpnameHeader, error) {
	var out *model.OpnameHeader
	err := r.s.do(ctx, func(st *state) error {
		h, ok := st.opnames[id]
		if !ok {
			return nil
		}
		c := *h
		c.Lines = append([]model.OpnameLine(nil), st.opnameLines[id]...)
		out = &c
		return nil
	})
	return out, err
}

func (r *OpnameRepository) FindAll(ctx context.Context, f *dto.OpnameFilters) ([]model.OpnameHeader, int, error) {
	var out []model.OpnameHeader
	err := r.s.do(ctx, func(st *state) error {
		for _, id := range sortedKeys(st.opnames) {
			h := st.opnames[id]
			if f.ProductID != "" && h.ProductID != f.ProductID {
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
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	start, end := page(len(out), f.Page, f.PageSize)
	return out[start:end], len(out), nil
}
