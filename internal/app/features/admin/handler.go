// internal/app/features/admin/handler.go
package admin

import (
	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	groupaliasstore "github.com/dalemusser/mozillians/internal/app/store/groupaliases"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the superuser group changelist and group merging.
type Handler struct {
	DB       *mongo.Database
	Groups   *groupstore.Store
	Aliases  *groupaliasstore.Store
	Svc      *membership.Service
	Flash    *notify.Flasher
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	PageSize int
}

func NewHandler(db *mongo.Database, svc *membership.Service, flash *notify.Flasher, errLog *uierrors.ErrorLogger, pageSize int, logger *zap.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = paging.PageSize
	}
	return &Handler{
		DB:       db,
		Groups:   groupstore.New(db),
		Aliases:  groupaliasstore.New(db),
		Svc:      svc,
		Flash:    flash,
		ErrLog:   errLog,
		Log:      logger,
		PageSize: pageSize,
	}
}
