package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		page, size  int
		offset, lim int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 10, 20, 10},
		{"page below one", 0, 10, 0, 10},
		{"default size", 2, 0, DefaultPageSize, DefaultPageSize},
		{"capped size", 1, 1000, 0, MaxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			offset, limit := Calculate(tc.page, tc.size)
			assert.Equal(t, tc.offset, offset)
			assert.Equal(t, tc.lim, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("seven", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestNewMeta(t *testing.T) {
	t.Parallel()

	m := NewMeta(2, 20, 20, 45)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	m = NewMeta(3, 40, 20, 45)
	assert.False(t, m.HasNext)
}
