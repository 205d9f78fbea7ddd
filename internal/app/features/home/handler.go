package home

import (
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler serves the site root.
type Handler struct {
	LoginURL string
	Log      *zap.Logger
}

func NewHandler(loginURL string, logger *zap.Logger) *Handler {
	return &Handler{
		LoginURL: loginURL,
		Log:      logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot sends signed-in visitors to the group directory and everyone
// else to the identity provider.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/groups/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.LoginURL, http.StatusSeeOther)
}
