package groups

import "net/http"

// HandleConfirm accepts a pending membership request.
// POST /groups/id/{groupID}/confirm/{profileID}
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.Svc.ConfirmMember(ctx, g, actor, p.ID)
	h.finish(w, r, res, err, "confirm member failed")
}
