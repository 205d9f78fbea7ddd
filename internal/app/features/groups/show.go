package groups

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	groupaliasstore "github.com/dalemusser/mozillians/internal/app/store/groupaliases"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type flagsView struct {
	InGroup    bool `json:"in_group"`
	IsCurator  bool `json:"is_curator"`
	IsPending  bool `json:"is_pending"`
	ShowJoin   bool `json:"show_join_button"`
	ShowLeave  bool `json:"show_leave_button"`
	ShowDelete bool `json:"show_delete_group_button"`
}

type skillView struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

type groupData struct {
	Group       models.Group                `json:"group"`
	Flags       flagsView                   `json:"flags"`
	Members     []membershipstore.MemberRow `json:"memberships"`
	Page        paging.Page                 `json:"page"`
	MSelected   bool                        `json:"m_selected"`
	RSelected   bool                        `json:"r_selected"`
	Skills      []skillView                 `json:"skills"`
	IRCChannels []string                    `json:"irc_channels"`
	Flashes     []notify.Flash              `json:"flashes,omitempty"`
}

// ServeGroup shows a group with the membership listing the viewer may see.
// An old alias redirects to the group's current url.
// GET /groups/{url}
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()

	url := chi.URLParam(r, "url")
	alias, err := h.Aliases.Resolve(ctx, url)
	if err != nil {
		if errors.Is(err, groupaliasstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Group not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "resolve group alias failed", err, "A database error occurred.", membership.IndexPath)
		return
	}
	g, err := h.Groups.GetByID(ctx, alias.AliasOf)
	if err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Group not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load group failed", err, "A database error occurred.", membership.IndexPath)
		return
	}
	if g.URL != url {
		target := membership.GroupPath(g.URL)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	own, err := h.Members.Get(ctx, g.ID, viewer.ProfileID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load own membership failed", err, "A database error occurred.", membership.IndexPath)
		return
	}

	q := r.URL.Query()
	_, mSel := q["m"]
	_, rSel := q["r"]
	var requested []models.MembershipStatus
	if mSel {
		requested = append(requested, models.StatusMember)
	}
	if rSel {
		requested = append(requested, models.StatusPending)
	}
	filter := grouppolicy.ListingFilter(g, viewer, own, requested)

	total, err := h.Members.Count(ctx, g.ID, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count memberships failed", err, "A database error occurred.", membership.IndexPath)
		return
	}
	pg := paging.Compute(paging.ParsePage(r), total, h.PageSize)
	rows, err := h.Members.List(ctx, g.ID, filter, pg.Skip(), pg.Limit())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list memberships failed", err, "A database error occurred.", membership.IndexPath)
		return
	}
	if rows == nil {
		rows = []membershipstore.MemberRow{}
	}

	counts, err := h.Members.CountByStatus(ctx, g.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count members failed", err, "A database error occurred.", membership.IndexPath)
		return
	}
	flags := grouppolicy.DisplayFlags(g, viewer, own, counts[models.StatusMember]+counts[models.StatusPending])

	skills, err := h.popularSkills(r, g.ID, filter)
	if err != nil {
		// Skills are decoration; the page still renders without them.
		h.Log.Warn("popular skills failed", zap.Error(err), zap.String("group", g.URL))
	}

	writeJSON(w, groupData{
		Group: g,
		Flags: flagsView{
			InGroup:    flags.InGroup,
			IsCurator:  flags.IsCurator,
			IsPending:  flags.IsPending,
			ShowJoin:   flags.ShowJoin,
			ShowLeave:  flags.ShowLeave,
			ShowDelete: flags.ShowDelete,
		},
		Members:     rows,
		Page:        pg,
		MSelected:   mSel,
		RSelected:   rSel,
		Skills:      skills,
		IRCChannels: strings.Fields(g.IRCChannel),
		Flashes:     h.Flash.Pop(w, r),
	})
}

// popularSkills ranks the skills of the listed profiles, most common first.
func (h *Handler) popularSkills(r *http.Request, groupID primitive.ObjectID, filter grouppolicy.Filter) ([]skillView, error) {
	ctx, cancel := actionContext(r)
	defer cancel()

	out := []skillView{}
	ids, err := h.Members.ProfileIDs(ctx, groupID, filter)
	if err != nil || len(ids) == 0 {
		return out, err
	}
	top, err := h.Profiles.TopSkills(ctx, ids, 0)
	if err != nil || len(top) == 0 {
		return out, err
	}
	skillIDs := make([]primitive.ObjectID, len(top))
	for i, t := range top {
		skillIDs[i] = t.SkillID
	}
	byID, err := h.Skills.ListByIDs(ctx, skillIDs)
	if err != nil {
		return out, err
	}
	for _, t := range top {
		if s, ok := byID[t.SkillID]; ok {
			out = append(out, skillView{Name: s.Name, URL: s.URL, Count: t.Count})
		}
	}
	return out, nil
}
