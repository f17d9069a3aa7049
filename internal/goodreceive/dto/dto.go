package dto

type ReceiveFilters struct {
	SourceType      string
	SourceReference string
	LocationID      string
	Page            int
	PageSize        int
}
