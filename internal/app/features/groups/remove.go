package groups

import (
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	"github.com/dalemusser/mozillians/internal/domain/models"
)

type removeConfirmData struct {
	Group   models.Group   `json:"group"`
	Profile models.Profile `json:"profile"`
	Self    bool           `json:"self"`
	Action  string         `json:"action"`
}

// ServeRemoveConfirm shows what a removal would do without doing it.
// Policy denials are reported the same way the POST would report them.
// GET /groups/id/{groupID}/remove/{profileID}
func (h *Handler) ServeRemoveConfirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()

	g, ok := h.loadGroupByID(ctx, w, r)
	if !ok {
		return
	}
	p, ok := h.loadProfile(ctx, w, r)
	if !ok {
		return
	}

	if err := grouppolicy.CanLeave(g, actor, p.ID); err != nil {
		res := membership.Result{Kind: membership.RemovalDenial(err), Redirect: membership.GroupPath(g.URL)}
		h.finish(w, r, res, err, "remove member check failed")
		return
	}

	writeJSON(w, removeConfirmData{
		Group:   g,
		Profile: p,
		Self:    p.ID == actor.ProfileID,
		Action:  r.URL.Path,
	})
}

// HandleRemove removes a member (or the viewer, when leaving).
// POST /groups/id/{groupID}/remove/{profileID}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()

	g, ok := h.loadGroupByID(ctx, w, r)
	if !ok {
		return
	}
	p, ok := h.loadProfile(ctx, w, r)
	if !ok {
		return
	}
	res, err := h.Svc.RemoveMember(ctx, g, actor, p.ID)
	h.finish(w, r, res, err, "remove member failed")
}
