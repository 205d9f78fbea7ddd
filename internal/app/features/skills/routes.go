// internal/app/features/skills/routes.go
package skills

import (
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeIndex)
		pr.Get("/{url}", h.ServeSkill)
		pr.Post("/{url}/toggle", h.HandleToggle)
	})
	return r
}
