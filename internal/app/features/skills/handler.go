// internal/app/features/skills/handler.go
package skills

import (
	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/notify"
	profilestore "github.com/dalemusser/mozillians/internal/app/store/profiles"
	skillstore "github.com/dalemusser/mozillians/internal/app/store/skills"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the skill index, skill pages and the add/remove toggle.
type Handler struct {
	Skills   *skillstore.Store
	Profiles *profilestore.Store
	Flash    *notify.Flasher
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	PageSize int
}

func NewHandler(db *mongo.Database, flash *notify.Flasher, errLog *uierrors.ErrorLogger, pageSize int, logger *zap.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = paging.PageSize
	}
	return &Handler{
		Skills:   skillstore.New(db),
		Profiles: profilestore.New(db),
		Flash:    flash,
		ErrLog:   errLog,
		Log:      logger,
		PageSize: pageSize,
	}
}
