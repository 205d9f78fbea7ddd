package groups

import (
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/store/queries/groupqueries"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/waffle/pantry/query"
)

type indexData struct {
	Title   string                        `json:"title"`
	Sort    string                        `json:"sort"`
	Groups  []groupqueries.DirectoryItem `json:"groups"`
	Page    paging.Page                   `json:"page"`
	Flashes []notify.Flash                `json:"flashes,omitempty"`
}

// ServeIndex lists public groups that are in use: visible, not functional
// areas, with at least one vouched member.
// GET /groups/
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	h.serveDirectory(w, r, "Groups", false)
}

// ServeFunctionalAreas lists visible functional areas.
// GET /groups/functional-areas
func (h *Handler) ServeFunctionalAreas(w http.ResponseWriter, r *http.Request) {
	h.serveDirectory(w, r, "Functional areas", true)
}

func (h *Handler) serveDirectory(w http.ResponseWriter, r *http.Request, title string, functionalArea bool) {
	ctx, cancel := actionContext(r)
	defer cancel()

	sort := query.Get(r, "sort")
	if !groupqueries.ValidSort(sort) {
		sort = groupqueries.SortName
	}

	res, err := groupqueries.ListDirectory(ctx, h.DB, groupqueries.DirectoryFilter{
		FunctionalArea: functionalArea,
		Sort:           sort,
	}, paging.ParsePage(r), h.PageSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list groups failed", err, "A database error occurred.", "/")
		return
	}

	writeJSON(w, indexData{
		Title:   title,
		Sort:    sort,
		Groups:  res.Items,
		Page:    res.Page,
		Flashes: h.Flash.Pop(w, r),
	})
}
