// Package pagination holds the page-slicing arithmetic shared by every
// listing and search endpoint.
package pagination

import (
	"errors"
	"fmt"
)

// PageSize is fixed for every paginated endpoint.
const PageSize = 15

var ErrInvalidPage = errors.New("page number must be at least 1")

type Meta struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginate slices the ordered candidate sequence for the given 1-indexed page.
// Pages past the end yield an empty slice with accurate metadata, never an
// error; page < 1 is the only failure.
func Paginate[T any](items []T, page int) ([]T, Meta, error) {
	if page < 1 {
		return nil, Meta{}, fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}

	total := len(items)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	meta := Meta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PerPage:     PageSize,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	return items[start:end], meta, nil
}
