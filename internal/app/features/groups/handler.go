// internal/app/features/groups/handler.go
package groups

import (
	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	groupaliasstore "github.com/dalemusser/mozillians/internal/app/store/groupaliases"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	profilestore "github.com/dalemusser/mozillians/internal/app/store/profiles"
	skillstore "github.com/dalemusser/mozillians/internal/app/store/skills"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature:
// directory listings, the group page and the membership actions.
type Handler struct {
	DB       *mongo.Database
	Groups   *groupstore.Store
	Aliases  *groupaliasstore.Store
	Members  *membershipstore.Store
	Profiles *profilestore.Store
	Skills   *skillstore.Store
	Svc      *membership.Service
	Flash    *notify.Flasher
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	PageSize int
}

// NewHandler constructs a groups Handler. It is called from the bootstrap
// BuildHandler function once the DB, session store and logger exist.
func NewHandler(db *mongo.Database, svc *membership.Service, flash *notify.Flasher, errLog *uierrors.ErrorLogger, pageSize int, logger *zap.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = paging.PageSize
	}
	return &Handler{
		DB:       db,
		Groups:   groupstore.New(db),
		Aliases:  groupaliasstore.New(db),
		Members:  membershipstore.New(db),
		Profiles: profilestore.New(db),
		Skills:   skillstore.New(db),
		Svc:      svc,
		Flash:    flash,
		ErrLog:   errLog,
		Log:      logger,
		PageSize: pageSize,
	}
}
