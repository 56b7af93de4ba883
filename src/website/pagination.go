package website

import (
	"net/url"
	"strconv"

	"git.collab.network/collab/src/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Reads limit and offset from the query string. The limit is clamped to
// [1, maxPageSize]; a negative offset is treated as zero.
func getPageParams(query url.Values) (limit int, offset int, ok bool) {
	limit = defaultPageSize
	if s := query.Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		limit = utils.IntClamp(1, parsed, maxPageSize)
	}

	if s := query.Get("offset"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		offset = max(parsed, 0)
	}

	return limit, offset, true
}
