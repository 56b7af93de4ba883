package website

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPageParams(t *testing.T) {
	items := []struct {
		name          string
		query         string
		limit, offset int
		ok            bool
	}{
		{"no params", "", defaultPageSize, 0, true},
		{"good", "limit=10&offset=20", 10, 20, true},
		{"limit too big", "limit=1000", maxPageSize, 0, true},
		{"limit too small", "limit=0", 1, 0, true},
		{"negative offset", "offset=-5", defaultPageSize, 0, true},
		{"pizza limit", "limit=pizza", 0, 0, false},
		{"pizza offset", "offset=pizza", 0, 0, false},
	}

	for _, item := range items {
		t.Run(item.name, func(t *testing.T) {
			query, err := url.ParseQuery(item.query)
			assert.Nil(t, err)

			limit, offset, ok := getPageParams(query)
			assert.Equal(t, item.limit, limit)
			assert.Equal(t, item.offset, offset)
			assert.Equal(t, item.ok, ok)
		})
	}
}
