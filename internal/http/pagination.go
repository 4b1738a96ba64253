package http

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Pagination describes one page of a list of TotalItems elements.
type Pagination struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNextPage"`
	HasPrevious bool `json:"hasPreviousPage"`

	start, end int
}

// Paginate clamps pageSize to 1..MaxPageSize and page to [1, max(TotalPages, 1)].
func Paginate(totalItems, page, pageSize int) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if totalItems < 0 {
		totalItems = 0
	}
	totalPages := (totalItems + pageSize - 1) / pageSize
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, totalItems)
	if start > end {
		start = end
	}
	return Pagination{
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
		start:       start,
		end:         end,
	}
}

// Bounds returns the half-open index range of the page.
func (p Pagination) Bounds() (start, end int) {
	return p.start, p.end
}
