package paging_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mozillians/internal/app/system/paging"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/groups/", 1},
		{"/groups/?page=3", 3},
		{"/groups/?page=0", 1},
		{"/groups/?page=-2", 1},
		{"/groups/?page=abc", 1},
	}
	for _, tt := range tests {
		if got := paging.ParsePage(httptest.NewRequest("GET", tt.url, nil)); got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.url, got, tt.want)
		}
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		total     int64
		size      int
		want      paging.Page
	}{
		{"empty", 1, 0, 10, paging.Page{Number: 1, Size: 10, Pages: 1, Total: 0}},
		{"first of three", 1, 25, 10, paging.Page{Number: 1, Size: 10, Pages: 3, Total: 25, HasNext: true}},
		{"middle", 2, 25, 10, paging.Page{Number: 2, Size: 10, Pages: 3, Total: 25, HasPrev: true, HasNext: true}},
		{"past the end clamps to last", 99, 25, 10, paging.Page{Number: 3, Size: 10, Pages: 3, Total: 25, HasPrev: true}},
		{"below one clamps to first", -1, 25, 10, paging.Page{Number: 1, Size: 10, Pages: 3, Total: 25, HasNext: true}},
		{"exact multiple", 2, 20, 10, paging.Page{Number: 2, Size: 10, Pages: 2, Total: 20, HasPrev: true}},
		{"zero size uses default", 1, 10, 0, paging.Page{Number: 1, Size: paging.PageSize, Pages: 1, Total: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paging.Compute(tt.requested, tt.total, tt.size); got != tt.want {
				t.Errorf("Compute = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPage_SkipAndWindow(t *testing.T) {
	p := paging.Compute(3, 25, 10)
	if p.Skip() != 20 || p.Limit() != 10 {
		t.Errorf("Skip/Limit = %d/%d, want 20/10", p.Skip(), p.Limit())
	}
	lo, hi := p.Window(25)
	if lo != 20 || hi != 25 {
		t.Errorf("Window(25) = [%d,%d), want [20,25)", lo, hi)
	}
	lo, hi = p.Window(5)
	if lo != 5 || hi != 5 {
		t.Errorf("Window(5) = [%d,%d), want [5,5)", lo, hi)
	}
}
