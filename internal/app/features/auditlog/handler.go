// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/store/audit"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	profilestore "github.com/dalemusser/mozillians/internal/app/store/profiles"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Events   *audit.Store
	Groups   *groupstore.Store
	Profiles *profilestore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs the audit trail handler bound to the given database.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   audit.New(db),
		Groups:   groupstore.New(db),
		Profiles: profilestore.New(db),
		Log:      logger,
		ErrLog:   errLog,
	}
}
