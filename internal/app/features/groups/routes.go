// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires a signed-in profile
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// DIRECTORY
		pr.Get("/", h.ServeIndex)
		pr.Get("/functional-areas", h.ServeFunctionalAreas)

		// CREATE
		pr.Post("/", h.HandleCreateGroup)

		// MEMBERSHIP ACTIONS (by id, so renames never break a form)
		pr.Post("/id/{groupID}/join", h.HandleJoin)
		pr.Get("/id/{groupID}/remove/{profileID}", h.ServeRemoveConfirm)
		pr.Post("/id/{groupID}/remove/{profileID}", h.HandleRemove)
		pr.Post("/id/{groupID}/confirm/{profileID}", h.HandleConfirm)

		// EDIT / DELETE
		pr.Get("/{url}/edit", h.ServeEditGroup)
		pr.Post("/{url}/edit", h.HandleEditGroup)
		pr.Post("/{url}/delete", h.HandleDeleteGroup)

		// VIEW
		pr.Get("/{url}", h.ServeGroup)
	})

	return r
}
