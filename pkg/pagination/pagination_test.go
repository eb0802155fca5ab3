package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationParams_Defaults(t *testing.T) {
	params, err := ParsePaginationParams("", "")

	require.NoError(t, err)
	assert.Equal(t, DefaultPage, params.Page)
	assert.Equal(t, DefaultLimit, params.Limit)
	assert.Equal(t, 0, params.Offset)
}

func TestParsePaginationParams_OffsetFromPage(t *testing.T) {
	params, err := ParsePaginationParams("3", "25")

	require.NoError(t, err)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, 50, params.Offset)
}

func TestParsePaginationParams_LimitCapped(t *testing.T) {
	params, err := ParsePaginationParams("1", "500")

	require.NoError(t, err)
	assert.Equal(t, MaxLimit, params.Limit)
}

func TestParsePaginationParams_InvalidPage(t *testing.T) {
	_, err := ParsePaginationParams("abc", "")

	assert.Error(t, err)
}

func TestParsePaginationParams_NegativePageFallsBack(t *testing.T) {
	params, err := ParsePaginationParams("-2", "10")

	require.NoError(t, err)
	assert.Equal(t, DefaultPage, params.Page)
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 5, CalculateTotalPages(100, 20))
	assert.Equal(t, 6, CalculateTotalPages(101, 20))
	assert.Equal(t, 0, CalculateTotalPages(0, 20))
	assert.Equal(t, 0, CalculateTotalPages(100, 0))
}
