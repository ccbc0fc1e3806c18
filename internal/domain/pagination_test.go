package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_LimitOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        PageRequest
		wantLimit  int
		wantOffset int
	}{
		{"defaults", PageRequest{}, DefaultPageSize, 0},
		{"first page", PageRequest{Page: 1, PageSize: 20}, 20, 0},
		{"third page", PageRequest{Page: 3, PageSize: 20}, 20, 40},
		{"clamped", PageRequest{Page: 2, PageSize: 5000}, MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantLimit, tt.req.Limit())
			assert.Equal(t, tt.wantOffset, tt.req.Offset())
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(PageRequest{Page: 2, PageSize: 10}, 25)
	assert.Equal(t, Pagination{Page: 2, PageSize: 10, TotalCount: 25, TotalPages: 3, HasNext: true, HasPrev: true}, p)

	p = NewPagination(PageRequest{Page: 3, PageSize: 10}, 25)
	assert.False(t, p.HasNext)

	p = NewPagination(PageRequest{Page: 1, PageSize: 10}, 0)
	assert.Equal(t, int64(0), p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}
