package skills

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/notify"
	skillstore "github.com/dalemusser/mozillians/internal/app/store/skills"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

const (
	sortName        = "name"
	sortMemberCount = "-member_count"
)

type indexData struct {
	Sort    string                 `json:"sort"`
	Skills  []skillstore.IndexItem `json:"skills"`
	Page    paging.Page            `json:"page"`
	Flashes []notify.Flash         `json:"flashes,omitempty"`
}

// ServeIndex lists skills held by vouched profiles.
// GET /skills/?sort=name|-member_count&page=N
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sort := query.Get(r, "sort")
	if sort != sortMemberCount {
		sort = sortName
	}

	items, pg, err := h.Skills.Index(ctx, sort == sortMemberCount, paging.ParsePage(r), h.PageSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list skills failed", err, "A database error occurred.", "/")
		return
	}
	if items == nil {
		items = []skillstore.IndexItem{}
	}

	writeJSON(w, indexData{
		Sort:    sort,
		Skills:  items,
		Page:    pg,
		Flashes: h.Flash.Pop(w, r),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}
