package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/store/queries/groupqueries"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

type listData struct {
	Search     string                   `json:"q"`
	Sort       string                   `json:"o"`
	Flags      map[string]bool          `json:"filters"`
	Predicates []string                 `json:"available_filters"`
	Groups     []groupqueries.AdminItem `json:"groups"`
	Page       paging.Page              `json:"page"`
	Flashes    []notify.Flash           `json:"flashes,omitempty"`
}

// parseFlags reads ?empty_group=yes|no and friends. Any other value leaves
// the predicate unset.
func parseFlags(r *http.Request) map[string]bool {
	flags := map[string]bool{}
	for _, p := range groupqueries.Predicates {
		switch strings.ToLower(query.Get(r, p)) {
		case "yes", "1", "true":
			flags[p] = true
		case "no", "0", "false":
			flags[p] = false
		}
	}
	return flags
}

// ServeGroupList is the admin changelist: search, predicate filters, member
// and vouched-member counts, ordering by name or either count.
// GET /admin/groups?q=&o=&page=&empty_group=yes|no...
func (h *Handler) ServeGroupList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	search := strings.TrimSpace(query.Get(r, "q"))
	sort := query.Get(r, "o")
	if !groupqueries.ValidAdminSort(sort) {
		sort = groupqueries.AdminSortName
	}

	filter := groupqueries.AdminFilter{
		Search: search,
		Flags:  parseFlags(r),
		Sort:   sort,
	}
	if search != "" {
		ids, err := h.Aliases.SearchGroupIDs(ctx, search)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "alias search failed", err, "A database error occurred.", "/admin/groups")
			return
		}
		filter.AliasGroupIDs = ids
	}

	res, err := groupqueries.ListAdmin(ctx, h.DB, filter, paging.ParsePage(r), h.PageSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin group list failed", err, "A database error occurred.", "/")
		return
	}

	writeJSON(w, listData{
		Search:     search,
		Sort:       sort,
		Flags:      filter.Flags,
		Predicates: groupqueries.Predicates,
		Groups:     res.Items,
		Page:       res.Page,
		Flashes:    h.Flash.Pop(w, r),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}
