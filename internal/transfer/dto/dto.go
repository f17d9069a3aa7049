package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type TransferFilters struct {
	Status     model.TransferStatus
	LocationID string // matches source or destination
	Query      string
	Page       int
	PageSize   int
}
