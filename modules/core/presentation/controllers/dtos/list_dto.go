package dtos

// SortDTO is posted by the sort controls of a list.
type SortDTO struct {
	Key   string `form:"key" validate:"required"`
	Order string `form:"order" validate:"omitempty,oneof=ascending descending"`
}

// PageDTO is posted by the pagination of a list.
type PageDTO struct {
	Page     int `form:"page" validate:"min=1"`
	PageSize int `form:"page_size" validate:"min=1,max=200"`
}

// SearchDTO is posted by the search form of a list, an empty value clears
// the filter.
type SearchDTO struct {
	Key   string `form:"key" validate:"required"`
	Value string `form:"value"`
}

// IDDTO carries the id of the row an action applies to.
type IDDTO struct {
	ID int `form:"id" validate:"required,min=1"`
}

type SelectAllDTO struct {
	SelectAll bool `form:"select_all"`
}
