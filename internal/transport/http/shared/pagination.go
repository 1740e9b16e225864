package shared

import "net/http"

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset. Malformed or negative values fall
// back to the defaults and limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit, ok := QueryInt(r, "limit", defaultLimit)
	if !ok || limit <= 0 {
		limit = defaultLimit
	}
	offset, ok := QueryInt(r, "offset", 0)
	if !ok || offset < 0 {
		offset = 0
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: offset}
}
