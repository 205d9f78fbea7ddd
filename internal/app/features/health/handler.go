package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewHandler constructs a health Handler with the database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string     `json:"status"`
	Database string     `json:"database"`
	Message  string     `json:"message,omitempty"`
	Error    string     `json:"error,omitempty"`
	Counts   *dirCounts `json:"directory,omitempty"`
}

// dirCounts are collection size estimates, informational only.
type dirCounts struct {
	Groups   int64 `json:"groups"`
	Profiles int64 `json:"profiles"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "directory":{"groups":12,"profiles":340} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.DB.Client().Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Estimates come from collection metadata; a failure here is not a health failure.
	groups, gerr := h.DB.Collection("groups").EstimatedDocumentCount(ctx)
	profiles, perr := h.DB.Collection("profiles").EstimatedDocumentCount(ctx)
	if gerr == nil && perr == nil {
		resp.Counts = &dirCounts{Groups: groups, Profiles: profiles}
	} else {
		h.Log.Warn("health-check: count estimate failed", zap.Errors("errors", []error{gerr, perr}))
	}

	_ = json.NewEncoder(w).Encode(resp)
}
