package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestPaginateSlicesEveryItemExactlyOnce(t *testing.T) {
	for _, n := range []int{0, 1, 14, 15, 16, 29, 30, 31, 100} {
		items := sequence(n)

		_, meta, err := Paginate(items, 1)
		require.NoError(t, err)

		wantPages := (n + PageSize - 1) / PageSize
		if wantPages < 1 {
			wantPages = 1
		}
		assert.Equal(t, wantPages, meta.TotalPages, "n=%d", n)
		assert.Equal(t, n, meta.TotalItems, "n=%d", n)

		total := 0
		for page := 1; page <= meta.TotalPages; page++ {
			slice, _, err := Paginate(items, page)
			require.NoError(t, err)
			total += len(slice)
		}
		assert.Equal(t, n, total, "sum of per-page lengths for n=%d", n)
	}
}

func TestPaginateFirstAndLastPage(t *testing.T) {
	items := sequence(31)

	first, meta, err := Paginate(items, 1)
	require.NoError(t, err)
	assert.Len(t, first, 15)
	assert.Equal(t, 0, first[0])
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)

	last, meta, err := Paginate(items, 3)
	require.NoError(t, err)
	assert.Len(t, last, 1)
	assert.Equal(t, 30, last[0])
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
}

func TestPaginatePastTheEndIsNotAnError(t *testing.T) {
	// Page 5 of a 2-page result set: empty slice, accurate metadata.
	items := sequence(20)

	slice, meta, err := Paginate(items, 5)
	require.NoError(t, err)
	assert.Empty(t, slice)
	assert.Equal(t, 5, meta.CurrentPage)
	assert.Equal(t, 2, meta.TotalPages)
	assert.Equal(t, 20, meta.TotalItems)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
}

func TestPaginateEmptySequence(t *testing.T) {
	slice, meta, err := Paginate([]int{}, 1)
	require.NoError(t, err)
	assert.Empty(t, slice)
	assert.Equal(t, 1, meta.TotalPages)
	assert.Equal(t, 0, meta.TotalItems)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)
}

func TestPaginateRejectsNonPositivePages(t *testing.T) {
	for _, page := range []int{0, -1, -15} {
		_, _, err := Paginate(sequence(3), page)
		assert.ErrorIs(t, err, ErrInvalidPage, "page=%d", page)
	}
}
