package pagination

// Meta is the pagination block of a list response.
// The API fills Total, Limit and Offset; the rest is derived by Enrich.
type Meta struct {
	Total       int  `json:"total"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasMore     bool `json:"hasMore"`
	HasPrevious bool `json:"hasPrevious"`
}

// Response is a page of items as returned by list endpoints.
type Response[T any] struct {
	Data       []T   `json:"data"`
	Pagination *Meta `json:"pagination,omitempty"`
}

// Enrich fills in the derived fields of the response's pagination block.
// It is a no-op for responses without one.
func (r *Response[T]) Enrich(requestedLimit, requestedPage int) {
	if r == nil {
		return
	}
	Enrich(r.Pagination, requestedLimit, requestedPage)
}

// Enrich computes Page, TotalPages, HasMore and HasPrevious.
//
// The limit reported by the server wins over the requested one; a
// non-positive limit falls back to DefaultLimit. The requested page wins
// over the page derived from the offset.
func Enrich(meta *Meta, requestedLimit, requestedPage int) {
	if meta == nil {
		return
	}

	limit := meta.Limit
	if limit <= 0 {
		limit = requestedLimit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	meta.Limit = limit

	if meta.Offset < 0 {
		meta.Offset = 0
	}

	page := requestedPage
	if page <= 0 {
		page = meta.Offset/limit + 1
	}
	meta.Page = page

	meta.TotalPages = totalPages(meta.Total, limit)
	meta.HasMore = page < meta.TotalPages
	meta.HasPrevious = page > 1
}

// totalPages returns ceil(total/limit); limit must be positive.
func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
