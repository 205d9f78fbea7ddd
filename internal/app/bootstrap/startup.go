// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	notificationstore "github.com/dalemusser/mozillians/internal/app/store/notifications"
	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// noticePurge is started in Startup and stopped in Shutdown.
var noticePurge *workers.NoticePurge

// Startup runs one-time initialization after the schema is in place and
// before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperuserEmail != "" {
		if err := ensureSuperuser(ctx, deps.MongoDatabase, appCfg.SuperuserEmail, logger); err != nil {
			return err
		}
	}

	if appCfg.NoticeRetention > 0 {
		noticePurge = workers.NewNoticePurge(notificationstore.New(deps.MongoDatabase), logger,
			appCfg.NoticePurgeInterval, appCfg.NoticeRetention)
		noticePurge.Start()
	}
	return nil
}

// ensureSuperuser promotes the profile with email to superuser. Profiles are
// created by sign-in, so a missing profile is logged and left for the next
// start rather than invented here.
func ensureSuperuser(ctx context.Context, db *mongo.Database, email string, logger *zap.Logger) error {
	res, err := db.Collection("profiles").UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"is_superuser": true}})
	if err != nil {
		return fmt.Errorf("promote superuser: %w", err)
	}
	switch {
	case res.MatchedCount == 0:
		logger.Warn("superuser profile not found; sign in once and restart", zap.String("email", email))
	case res.ModifiedCount > 0:
		logger.Info("promoted profile to superuser", zap.String("email", email))
	}
	return nil
}
