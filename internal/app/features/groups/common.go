package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	profilestore "github.com/dalemusser/mozillians/internal/app/store/profiles"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/app/system/authz"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// actionContext bounds a request's DB work and carries its audit metadata.
func actionContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	return auditlog.WithRequest(ctx, r), cancel
}

// requireActor resolves the signed-in profile or renders 401.
func requireActor(w http.ResponseWriter, r *http.Request) (grouppolicy.Actor, bool) {
	a, ok := authz.Actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
	}
	return a, ok
}

// objectIDParam parses a hex ObjectID URL parameter or renders 404.
func objectIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		uierrors.RenderNotFound(w, r, "")
		return primitive.NilObjectID, false
	}
	return id, true
}

// loadGroupByID loads the {groupID} group or renders 404 / 500.
func (h *Handler) loadGroupByID(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Group, bool) {
	id, ok := objectIDParam(w, r, "groupID")
	if !ok {
		return models.Group{}, false
	}
	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Group not found.")
			return models.Group{}, false
		}
		h.ErrLog.LogServerError(w, r, "load group failed", err, "A database error occurred.", membership.IndexPath)
		return models.Group{}, false
	}
	return g, true
}

// loadGroupByURL loads the {url} group (by its own url, not an alias).
func (h *Handler) loadGroupByURL(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Group, bool) {
	g, err := h.Groups.GetByURL(ctx, chi.URLParam(r, "url"))
	if err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Group not found.")
			return models.Group{}, false
		}
		h.ErrLog.LogServerError(w, r, "load group failed", err, "A database error occurred.", membership.IndexPath)
		return models.Group{}, false
	}
	return g, true
}

// loadProfile loads the {profileID} profile or renders 404 / 500.
func (h *Handler) loadProfile(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Profile, bool) {
	id, ok := objectIDParam(w, r, "profileID")
	if !ok {
		return models.Profile{}, false
	}
	p, err := h.Profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilestore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Profile not found.")
			return models.Profile{}, false
		}
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "A database error occurred.", membership.IndexPath)
		return models.Profile{}, false
	}
	return p, true
}

// finish turns a service outcome into a response: success and policy
// denials flash the message and redirect; a vanished group or a hidden
// profile is 404; anything else is a logged 500.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, res membership.Result, err error, logMsg string) {
	switch {
	case errors.Is(err, grouppolicy.ErrNotFound), errors.Is(err, membership.ErrGroupNotFound):
		uierrors.RenderNotFound(w, r, "")
	case err == nil, membership.Denied(err):
		h.Flash.Add(w, r, res.Kind, res.Args...)
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, logMsg, err, "A database error occurred.", membership.IndexPath)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}
