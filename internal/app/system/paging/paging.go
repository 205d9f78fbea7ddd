// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in paged lists. The
// items_per_page setting overrides it per deployment.
const PageSize = 50

// ParsePage extracts the 1-based "page" query parameter. Missing or
// non-numeric values give 1; range clamping happens in Compute once the
// total is known.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Page describes one page of a numbered listing.
type Page struct {
	Number  int   `json:"number"`
	Size    int   `json:"size"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
}

// Compute clamps requested into [1, pages] for total rows at size per page.
// An empty listing has one (empty) page.
func Compute(requested int, total int64, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	n := requested
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	return Page{
		Number:  n,
		Size:    size,
		Pages:   pages,
		Total:   total,
		HasPrev: n > 1,
		HasNext: n < pages,
	}
}

// Skip is the number of rows before this page.
func (p Page) Skip() int64 { return int64(p.Number-1) * int64(p.Size) }

// Limit is the page size as int64 for Mongo Find().SetLimit().
func (p Page) Limit() int64 { return int64(p.Size) }

// Window returns the [lo, hi) slice bounds of this page over n in-memory rows.
func (p Page) Window(n int) (lo, hi int) {
	lo = int(p.Skip())
	if lo > n {
		lo = n
	}
	hi = lo + p.Size
	if hi > n {
		hi = n
	}
	return lo, hi
}
