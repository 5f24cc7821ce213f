package domain

// Page is one page of a paginated listing. Build it with NewPage so the
// navigation flags stay consistent with the counters.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// NewPage derives TotalPages when it is not positive and sets HasNext and
// HasPrevious from page and TotalPages. Items beyond pageSize are dropped.
func NewPage[T any](items []T, page, pageSize, totalItems, totalPages int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = len(items)
	}
	if totalItems < 0 {
		totalItems = 0
	}
	if totalPages <= 0 {
		totalPages = TotalPages(totalItems, pageSize)
	}
	if pageSize > 0 && len(items) > pageSize {
		items = items[:pageSize]
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// TotalPages is ceil(totalItems/pageSize), zero for an empty or unsized listing.
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Offset returns the zero-based index of the first item on page.
func Offset(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}
