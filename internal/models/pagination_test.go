package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginationDefaults(t *testing.T) {
	p, err := NewPagination(0, 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPagination(), p)
	assert.Equal(t, 0, p.Offset())
}

func TestNewPaginationRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		page    int
		limit   int
		sortBy  string
		orderBy string
	}{
		{name: "negative page", page: -1},
		{name: "negative limit", limit: -5},
		{name: "unknown sort", sortBy: "sideways"},
		{name: "unknown order", orderBy: "up"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPagination(tc.page, tc.limit, tc.sortBy, tc.orderBy)
			assert.Error(t, err)
		})
	}
}

func TestNewPaginationRejectsOverflowingPage(t *testing.T) {
	_, err := NewPagination((1<<62)+1, 10, "", "")
	require.EqualError(t, err, "page is too large")

	p, err := NewPagination(1<<40, 100, "", "")
	require.NoError(t, err)
	assert.Equal(t, (1<<40-1)*100, p.Offset())
}

func TestOffsetSaturates(t *testing.T) {
	p := Pagination{Page: (1 << 62) + 1, Limit: 10}
	assert.Equal(t, math.MaxInt, p.Offset())
	assert.Zero(t, Pagination{}.Offset())
}

func TestNewPaginationNormalizes(t *testing.T) {
	p, err := NewPagination(3, 500, "old", "desc")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, SortOld, p.SortBy)
	assert.Equal(t, OrderDesc, p.OrderBy)
	assert.Equal(t, 200, p.Offset())
}

func TestNewPaginationMetaMath(t *testing.T) {
	for total := 0; total <= 25; total++ {
		for limit := 1; limit <= 7; limit++ {
			for page := 1; page <= 6; page++ {
				m := NewPaginationMeta(page, limit, total)
				wantPages := (total + limit - 1) / limit
				assert.Equal(t, wantPages, m.TotalPages)
				assert.Equal(t, page < wantPages, m.HasNextPage)
				assert.Equal(t, page > 1, m.HasPreviousPage)
				assert.Equal(t, total, m.TotalItems)
			}
		}
	}
}

func TestNewPaginationMetaExample(t *testing.T) {
	m := NewPaginationMeta(2, 10, 25)
	assert.Equal(t, PaginationMeta{
		Page: 2, Limit: 10, TotalItems: 25, TotalPages: 3,
		HasNextPage: true, HasPreviousPage: true,
	}, m)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" editor ")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}
