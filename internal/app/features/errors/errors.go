// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/system/authz"
)

// pageData is the JSON body of every error response.
type pageData struct {
	Title      string `json:"title"`
	Status     int    `json:"status"`
	IsLoggedIn bool   `json:"is_logged_in"`
	UserName   string `json:"user_name,omitempty"`
	Message    string `json:"message"`
	BackURL    string `json:"back_url,omitempty"`
}

// Handler is the errors feature handler.
// No DB needed; it just renders JSON.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders "access denied".
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/")
}

// Unauthorized renders "sign in required".
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "")
}

// NotFound is the router's fallback handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r, "")
}

func newPage(r *http.Request, status int, title, msg, backURL string) pageData {
	name, _, _, signedIn := authz.UserCtx(r)
	return pageData{
		Title:      title,
		Status:     status,
		IsLoggedIn: signedIn,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}
}
