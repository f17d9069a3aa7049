package dto

type OpnameFilters struct {
	ProductID  string
	LocationID string
	Page       int
	PageSize   int
}
