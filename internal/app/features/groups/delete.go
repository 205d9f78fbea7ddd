package groups

import "net/http"

// HandleDeleteGroup deletes a group whose only member is its curator.
// POST /groups/{url}/delete
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()

	g, ok := h.loadGroupByURL(ctx, w, r)
	if !ok {
		return
	}
	res, err := h.Svc.DeleteGroup(ctx, g, actor)
	h.finish(w, r, res, err, "delete group failed")
}
