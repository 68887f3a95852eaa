// Package pagination reconciles page-based and offset-based pagination and
// fetches every page of a list endpoint in parallel.
//
// The API speaks limit/offset and answers with a pagination block carrying
// only total, limit and offset. Callers usually think in pages:
//
//	n := pagination.Normalize(pagination.Request{Page: 3, Limit: 20})
//	// n.Offset == 40
//
//	resp.Enrich(n.Limit, n.Page)
//	// resp.Pagination.TotalPages, HasMore, HasPrevious are now set
//
// Fetching a whole collection:
//
//	items, err := pagination.FetchAll(ctx, fetchPage, pagination.DefaultConfig())
//
// The batch fetcher:
//   - Fetches the first page to learn the total page count
//   - Fetches remaining pages with a bounded number of workers
//   - Returns items in page order
//   - Optionally returns partial data when some pages fail
package pagination
