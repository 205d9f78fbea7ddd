// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/mozillians/internal/app/store/audit"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Membership controls logging for join/leave/remove/confirm events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Membership string
	// Admin controls logging for group create/edit/delete/merge events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type requestMeta struct {
	ip        string
	userAgent string
}

type ctxKey struct{}

// WithRequest carries the caller's IP and user agent on ctx so events logged
// further down (outside the handler) still record them.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestMeta{ip: getClientIP(r), userAgent: r.UserAgent()})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.ProfileID != nil {
		fields = append(fields, zap.String("profile_id", event.ProfileID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil logger is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryMembership:
		setting = l.config.Membership
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if meta, ok := ctx.Value(ctxKey{}).(requestMeta); ok {
		if event.IP == "" {
			event.IP = meta.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = meta.userAgent
		}
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Membership Events ---

// MemberAdded logs a profile joining a group (or being added) with status.
func (l *Logger) MemberAdded(ctx context.Context, actorID, groupID, profileID primitive.ObjectID, status models.MembershipStatus) {
	eventType := audit.EventMemberAddedToGroup
	if status == models.StatusPending {
		eventType = audit.EventMemberRequested
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: eventType,
		GroupID:   &groupID,
		ProfileID: &profileID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"status": string(status)},
	})
}

// MemberRemoved logs a membership being deleted.
func (l *Logger) MemberRemoved(ctx context.Context, actorID, groupID, profileID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventMemberRemovedFromGroup,
		GroupID:   &groupID,
		ProfileID: &profileID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"self": strconv.FormatBool(actorID == profileID)},
	})
}

// MemberConfirmed logs a pending request being accepted.
func (l *Logger) MemberConfirmed(ctx context.Context, actorID, groupID, profileID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventMemberConfirmed,
		GroupID:   &groupID,
		ProfileID: &profileID,
		ActorID:   &actorID,
		Success:   true,
	})
}

// MembershipDenied logs a refused membership action and why.
func (l *Logger) MembershipDenied(ctx context.Context, eventType string, actorID, groupID, profileID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryMembership,
		EventType:     eventType,
		GroupID:       &groupID,
		ProfileID:     &profileID,
		ActorID:       &actorID,
		Success:       false,
		FailureReason: reason,
	})
}

// --- Admin Events ---

// GroupCreated logs a new group.
func (l *Logger) GroupCreated(ctx context.Context, actorID, groupID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupCreated,
		GroupID:   &groupID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"name": name},
	})
}

// GroupUpdated logs a settings change; fields lists what changed.
func (l *Logger) GroupUpdated(ctx context.Context, actorID, groupID primitive.ObjectID, fields []string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupUpdated,
		GroupID:   &groupID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"fields": strings.Join(fields, ",")},
	})
}

// GroupDeleted logs a deleted group.
func (l *Logger) GroupDeleted(ctx context.Context, actorID, groupID primitive.ObjectID, name string, membershipsDeleted int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupDeleted,
		GroupID:   &groupID,
		ActorID:   &actorID,
		Success:   true,
		Details: map[string]string{
			"name":                name,
			"memberships_deleted": strconv.FormatInt(membershipsDeleted, 10),
		},
	})
}

// GroupsMerged logs sources folded into target.
func (l *Logger) GroupsMerged(ctx context.Context, actorID, targetID primitive.ObjectID, sourceNames []string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupsMerged,
		GroupID:   &targetID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"merged": strings.Join(sourceNames, ",")},
	})
}
