// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct is passed to the lifecycle hooks that need the directory's own
// settings.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: mozillians-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime
	LoginURL      string        // Where unauthenticated browsers are sent (the identity provider)

	// Directory listings
	ItemsPerPage int

	// WriteRateLimit caps state-changing requests per profile (or client IP)
	// per minute. Zero disables the limit.
	WriteRateLimit int

	// Audit logging: all | db | log | off
	AuditLogMembership string
	AuditLogAdmin      string

	// Delivered notices older than NoticeRetention are purged every
	// NoticePurgeInterval. A zero retention disables the purge worker.
	NoticeRetention     time.Duration
	NoticePurgeInterval time.Duration

	// SuperuserEmail names a profile promoted to superuser at startup.
	SuperuserEmail string

	// Base URL of the site, used in absolute links.
	BaseURL string
}
