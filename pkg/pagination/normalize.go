package pagination

import (
	"net/url"
	"strconv"
)

// DefaultLimit is used when a request carries no positive limit.
const DefaultLimit = 10

// Request describes the pagination input of a list call.
// Zero values mean "unset"; Page is 1-indexed and wins over Offset.
type Request struct {
	Limit  int `json:"limit,omitempty"`
	Page   int `json:"page,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Normalized is a Request reconciled into both representations.
type Normalized struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Page   int `json:"page"`
}

// Normalize reconciles page-based and offset-based input.
//
//	Normalize(Request{Page: 3, Limit: 20})    == Normalized{Limit: 20, Offset: 40, Page: 3}
//	Normalize(Request{Offset: 40, Limit: 20}) == Normalized{Limit: 20, Offset: 40, Page: 3}
func Normalize(req Request) Normalized {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	switch {
	case req.Page > 0:
		offset := (req.Page - 1) * limit
		if offset < 0 {
			offset = 0
		}
		return Normalized{Limit: limit, Offset: offset, Page: req.Page}
	case req.Offset > 0:
		return Normalized{Limit: limit, Offset: req.Offset, Page: req.Offset/limit + 1}
	default:
		return Normalized{Limit: limit, Offset: 0, Page: 1}
	}
}

// Values returns the limit/offset query parameters sent to the API.
func (n Normalized) Values() url.Values {
	return url.Values{
		"limit":  []string{strconv.Itoa(n.Limit)},
		"offset": []string{strconv.Itoa(n.Offset)},
	}
}

// Params returns the pagination part of a cache parameter bag.
func (n Normalized) Params() map[string]any {
	return map[string]any{
		"limit":  n.Limit,
		"offset": n.Offset,
	}
}

// Next returns the request for the following page.
func (n Normalized) Next() Request {
	return Request{Limit: n.Limit, Page: n.Page + 1}
}
