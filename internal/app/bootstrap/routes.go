// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	adminfeature "github.com/dalemusser/mozillians/internal/app/features/admin"
	auditlogfeature "github.com/dalemusser/mozillians/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/mozillians/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/mozillians/internal/app/features/groups"
	healthfeature "github.com/dalemusser/mozillians/internal/app/features/health"
	homefeature "github.com/dalemusser/mozillians/internal/app/features/home"
	logoutfeature "github.com/dalemusser/mozillians/internal/app/features/logout"
	noticesfeature "github.com/dalemusser/mozillians/internal/app/features/notices"
	skillsfeature "github.com/dalemusser/mozillians/internal/app/features/skills"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/store/audit"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/dalemusser/mozillians/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The directory mounts the group pages, the skill pages, the superuser
// changelist and audit trail, and the removal notices. Sign-in happens at
// the identity provider, which hands the resolved profile to
// SessionManager.SignIn.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetLoginURL(appCfg.LoginURL)

	errLog := errorsfeature.NewErrorLogger(logger)
	flash := notify.NewFlasher(sessionMgr.Store(), sessionMgr.Name(), logger)

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Membership: appCfg.AuditLogMembership,
		Admin:      appCfg.AuditLogAdmin,
	})
	svc := membership.NewForDB(db, auditLog, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	if appCfg.WriteRateLimit > 0 {
		r.Use(ratelimit.Writes(ratelimit.New(appCfg.WriteRateLimit, time.Minute), writeKey))
	}

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(db, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	homeHandler := homefeature.NewHandler(appCfg.LoginURL, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Directory
	groupsHandler := groupsfeature.NewHandler(db, svc, flash, errLog, appCfg.ItemsPerPage, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	skillsHandler := skillsfeature.NewHandler(db, flash, errLog, appCfg.ItemsPerPage, logger)
	r.Mount("/skills", skillsfeature.Routes(skillsHandler, sessionMgr))

	noticesHandler := noticesfeature.NewHandler(db, errLog, logger)
	r.Mount("/notices", noticesfeature.Routes(noticesHandler, sessionMgr))

	// Superuser tools
	adminHandler := adminfeature.NewHandler(db, svc, flash, errLog, appCfg.ItemsPerPage, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// writeKey counts signed-in writes per profile and anonymous ones per IP.
func writeKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "profile:" + u.ID
	}
	return "ip:" + ratelimit.ClientIP(r)
}
