// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireSuperuser)

		pr.Get("/groups", h.ServeGroupList)
		pr.Post("/groups/{groupID}/merge", h.HandleMerge)
	})
	return r
}
