// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/mozillians/internal/app/system/inputval"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the directory.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MOZILLIANS_MONGO_URI, MOZILLIANS_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mozillians", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mozillians-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},
	{Name: "login_url", Default: "/login", Desc: "Sign-in entry point of the identity provider"},

	{Name: "items_per_page", Default: 20, Desc: "Rows per page in group, skill and admin listings"},

	{Name: "write_rate_limit", Default: 60, Desc: "Max state-changing requests per profile per minute (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_membership", Default: "all", Desc: "Membership event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Group admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "notice_retention", Default: "720h", Desc: "How long delivered notices are kept (0 disables purging)"},
	{Name: "notice_purge_interval", Default: "1h", Desc: "How often delivered notices are purged"},

	{Name: "superuser_email", Default: "", Desc: "Email of a profile to promote to superuser on startup"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL of the site"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, MOZILLIANS_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MOZILLIANS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 720*time.Hour),
		LoginURL:      appValues.String("login_url"),

		ItemsPerPage: appValues.Int("items_per_page"),

		WriteRateLimit: appValues.Int("write_rate_limit"),

		AuditLogMembership: appValues.String("audit_log_membership"),
		AuditLogAdmin:      appValues.String("audit_log_admin"),

		NoticeRetention:     appValues.Duration("notice_retention", 720*time.Hour),
		NoticePurgeInterval: appValues.Duration("notice_purge_interval", time.Hour),

		SuperuserEmail: appValues.String("superuser_email"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

var auditSettings = map[string]bool{"all": true, "db": true, "log": true, "off": true, "": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked here to catch configuration errors
// before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.ItemsPerPage < 1 || appCfg.ItemsPerPage > 500 {
		return fmt.Errorf("items_per_page must be between 1 and 500, got %d", appCfg.ItemsPerPage)
	}
	if appCfg.WriteRateLimit < 0 {
		return fmt.Errorf("write_rate_limit must not be negative")
	}
	if !auditSettings[appCfg.AuditLogMembership] {
		return fmt.Errorf("audit_log_membership: unknown setting %q", appCfg.AuditLogMembership)
	}
	if !auditSettings[appCfg.AuditLogAdmin] {
		return fmt.Errorf("audit_log_admin: unknown setting %q", appCfg.AuditLogAdmin)
	}
	if appCfg.NoticeRetention < 0 {
		return fmt.Errorf("notice_retention must not be negative")
	}
	if appCfg.NoticeRetention > 0 && appCfg.NoticePurgeInterval <= 0 {
		return fmt.Errorf("notice_purge_interval must be positive when notice_retention is set")
	}
	if appCfg.SuperuserEmail != "" && !inputval.IsValidEmail(appCfg.SuperuserEmail) {
		return fmt.Errorf("superuser_email is not a valid address: %q", appCfg.SuperuserEmail)
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters in production")
	}
	return nil
}
