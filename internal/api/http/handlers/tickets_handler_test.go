package handlers

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	cases := []struct {
		name       string
		page       string
		limit      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", wantLimit: 10, wantOffset: 0},
		{name: "third page", page: "3", limit: "20", wantLimit: 20, wantOffset: 40},
		{name: "limit clamped", page: "2", limit: "500", wantLimit: 50, wantOffset: 50},
		{name: "garbage falls back", page: "abc", limit: "-4", wantLimit: 10, wantOffset: 0},
		{name: "huge page capped", page: strconv.Itoa(math.MaxInt), limit: "50", wantLimit: 50, wantOffset: (maxPage - 1) * 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := paginate(tc.page, tc.limit)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}
