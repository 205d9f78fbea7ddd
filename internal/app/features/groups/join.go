package groups

import "net/http"

// HandleJoin asks for the viewer's membership.
// POST /groups/id/{groupID}/join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.Svc.Join(ctx, g, actor)
	h.finish(w, r, res, err, "join group failed")
}
