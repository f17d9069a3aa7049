package repository

import (
	"context"
	"encoding/json"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/search"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

const transferIndex = "stock_transfers"

const transferMapping = `{
  "mappings": {
    "properties": {
      "id":                      {"type": "keyword"},
      "source_location_id":      {"type": "keyword"},
      "destination_location_id": {"type": "keyword"},
      "storage_location_id":     {"type": "keyword"},
      "status":                  {"type": "keyword"},
      "remark":                  {"type": "text"},
      "transfer_date":           {"type": "date"},
      "lines": {
        "properties": {
          "product_id": {"type": "keyword"},
          "variant":    {"type": "keyword"}
        }
      }
    }
  }
}`

// ESIndexer keeps a searchable copy of transfer headers and their lines.
type ESIndexer struct {
	client *search.Client
}

func NewESIndexer(ctx context.Context, client *search.Client) (*ESIndexer, error) {
	if err := client.CreateIndex(ctx, transferIndex, transferMapping); err != nil {
		return nil, err
	}
	return &ESIndexer{client: client}, nil
}

func (i *ESIndexer) Index(ctx context.Context, h *model.TransferHeader) error {
	return i.client.Index(ctx, transferIndex, h.ID, h)
}

func (i *ESIndexer) Search(ctx context.Context, f *dto.TransferFilters) ([]model.TransferHeader, int, error) {
	res, err := i.client.Search(ctx, transferIndex, buildQuery(f))
	if err != nil {
		return nil, 0, err
	}

	items := make([]model.TransferHeader, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var h model.TransferHeader
		if err := json.Unmarshal(hit.Source, &h); err != nil {
			return nil, 0, err
		}
		h.Lines = nil
		items = append(items, h)
	}
	return items, res.Hits.Total.Value, nil
}

func buildQuery(f *dto.TransferFilters) map[string]interface{} {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  f.Query,
				"fields": []string{"id", "remark", "lines.product_id", "lines.variant"},
			},
		},
	}
	if f.Status != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"status": f.Status},
		})
	}
	if f.LocationID != "" {
		must = append(must, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{"term": map[string]interface{}{"source_location_id": f.LocationID}},
					{"term": map[string]interface{}{"destination_location_id": f.LocationID}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"sort": []map[string]interface{}{
			{"transfer_date": map[string]interface{}{"order": "desc"}},
		},
	}
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q["from"] = (page - 1) * f.PageSize
		q["size"] = f.PageSize
	}
	return q
}
