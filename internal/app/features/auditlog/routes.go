// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail under the path where this router is
// mounted (typically "/audit" from bootstrap). Superusers only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireSuperuser)

		pr.Get("/", h.ServeList)
	})

	return r
}
