package admin

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/membership"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/app/system/authz"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleMerge folds the groups named by the repeated "source" form field
// into {groupID}. Unknown source ids are ignored.
// POST /admin/groups/{groupID}/merge
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Group not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		uierrors.RenderBadRequest(w, r, "Could not read the merge form.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	ctx = auditlog.WithRequest(ctx, r)

	target, err := h.Groups.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Group not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load merge target failed", err, "A database error occurred.", "/admin/groups")
		return
	}

	var ids []primitive.ObjectID
	for _, raw := range r.PostForm["source"] {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil && id != targetID {
			ids = append(ids, id)
		}
	}
	byID, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load merge sources failed", err, "A database error occurred.", "/admin/groups")
		return
	}
	sources := make([]models.Group, 0, len(byID))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			sources = append(sources, g)
		}
	}

	res, err := h.Svc.MergeGroups(ctx, actor, target, sources)
	switch {
	case err == nil, membership.Denied(err):
		if err == nil {
			h.Log.Info("groups merged", zap.String("target", target.URL), zap.Int("sources", len(sources)))
		}
		h.Flash.Add(w, r, res.Kind, res.Args...)
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "merge groups failed", err, "A database error occurred.", "/admin/groups")
	}
}
