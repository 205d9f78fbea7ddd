// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"
)

// RenderUnauthorized responds 401. If backURL is empty it defaults to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	writeJSON(w, http.StatusUnauthorized, newPage(r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL))
}

// RenderForbidden responds 403 with msg.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "You don't have permission to view this page."
	}
	writeJSON(w, http.StatusForbidden, newPage(r, http.StatusForbidden, "Access denied", msg, backURL))
}

// RenderNotFound responds 404 for a missing group, alias, skill or profile.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "The page you were looking for does not exist."
	}
	writeJSON(w, http.StatusNotFound, newPage(r, http.StatusNotFound, "Not found", msg, "/groups/"))
}

// RenderBadRequest responds 400 for malformed ids and form values.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, newPage(r, http.StatusBadRequest, "Bad request", msg, ""))
}

// RenderServerError responds 500 with a user-safe message.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "Something went wrong."
	}
	writeJSON(w, http.StatusInternalServerError, newPage(r, http.StatusInternalServerError, "Server error", msg, backURL))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
