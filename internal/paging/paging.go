// Package paging turns 1-based page numbers into row offsets.
package paging

import "math"

// maxOffset keeps offsets inside PostgreSQL's bigint and Go's int on every platform.
const maxOffset = math.MaxInt32

// Bound forces page into [1, n] where n is the last page whose offset fits.
func Bound(page, size int) int {
	if page < 1 {
		return 1
	}
	if limit := maxOffset/size + 1; page > limit {
		return limit
	}
	return page
}

// Offset returns the row offset of page.
func Offset(page, size int) int {
	return (Bound(page, size) - 1) * size
}

// Last returns the last page number for count rows. An empty set still has page 1.
func Last(count, size int) int {
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Beyond reports whether page lies after the last page for count rows.
func Beyond(page, count, size int) bool {
	return Bound(page, size) > Last(count, size)
}
