package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type TransferRepository struct {
	s *Store
}

func (r *TransferRepository) FindByID(ctx context.Context, id string) (*model.TransferHeader, error) {
	var out *model.TransferHeader
	err := r.s.do(ctx, func(st *state) error {
		if h, ok := st.transfers[id]; ok {
			c := *h
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *TransferRepository) LockByID(ctx context.Context, id string) (*model.TransferHeader, error) {
	return r.FindByID(ctx, id)
}

func (r *TransferRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.TransferHeader, int, error) {
	var out []model.TransferHeader
	query := strings.ToLower(f.Query)
	err := r.s.do(ctx, func(st *state) error {
		for _, id := range sortedKeys(st.transfers) {
			h := st.transfers[id]
			if f.Status != "" && h.Status != f.Status {
				continue
			}
			if f.LocationID != "" && h.SourceLocationID != f.LocationID && h.DestinationLocationID != f.LocationID {
				continue
			}
			if query != "" && !strings.Contains(strings.ToLower(h.ID+" "+h.Remark), query) {
				continue
			}
			out = append(out, *h)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransferDate.After(out[j].TransferDate) })
	start, end := page(len(out), f.Page, f.PageSize)
	return out[start:end], len(out), nil
}

func (r *TransferRepository) Create(ctx context.Context, h *model.TransferHeader) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.transfers[h.ID]; ok {
			return apperr.Conflict("transfer %s was created concurrently", h.ID)
		}
		c := *h
		c.Lines = nil
		st.transfers[h.ID] = &c
		return nil
	})
}

func (r *TransferRepository) Update(ctx context.Context, h *model.TransferHeader) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.transfers[h.ID]; !ok {
			return apperr.NotFound("transfer", h.ID)
		}
		c := *h
		c.Lines = nil
		st.transfers[h.ID] = &c
		return nil
	})
}

func (r *TransferRepository) ListLines(ctx context.Context, transferID string) ([]model.TransferLine, error) {
	var out []model.TransferLine
	err := r.s.do(ctx, func(st *state) error {
		out = append(out, st.transferLines[transferID]...)
		return nil
	})
	return out, err
}

func (r *TransferRepository) DeleteLines(ctx context.Context, transferID string, lineIDs []string) error {
	drop := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		drop[id] = true
	}
	return r.s.do(ctx, func(st *state) error {
		kept := make([]model.TransferLine, 0, len(st.transferLines[transferID]))
		for _, l := range st.transferLines[transferID] {
			if !drop[l.ID] {
				kept = append(kept, l)
			}
		}
		st.transferLines[transferID] = kept
		return nil
	})
}

func (r *TransferRepository) UpsertLine(ctx context.Context, line *model.TransferLine) error {
	return r.s.do(ctx, func(st *state) error {
		lines := st.transferLines[line.TransferID]
		for i := range lines {
			if lines[i].Key() == line.Key() {
				line.ID = lines[i].ID
				lines[i].UOMID = line.UOMID
				lines[i].Quantity = line.Quantity
				lines[i].UpdatedAt = line.UpdatedAt
				return nil
			}
		}
		st.transferLines[line.TransferID] = append(lines, *line)
		return nil
	})
}
