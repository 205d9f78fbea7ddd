// internal/app/features/notices/handler.go
package notices

import (
	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	notificationstore "github.com/dalemusser/mozillians/internal/app/store/notifications"
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler delivers the notices recorded for a profile when someone else
// changed their membership.
type Handler struct {
	Notices *notificationstore.Store
	Groups  *groupstore.Store
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Notices: notificationstore.New(db),
		Groups:  groupstore.New(db),
		ErrLog:  errLog,
		Log:     logger,
	}
}

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeNotices)
		pr.Post("/ack", h.HandleAck)
	})
	return r
}
