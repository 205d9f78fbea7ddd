package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRenderers(t *testing.T) {
	tests := []struct {
		name   string
		render func(http.ResponseWriter, *http.Request)
		status int
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderUnauthorized(w, r, "") }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderForbidden(w, r, "", "/") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderNotFound(w, r, "") }, http.StatusNotFound},
		{"bad request", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderBadRequest(w, r, "bad id") }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.render(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}
			if body := decode(t, rec); body["message"] == "" {
				t.Error("message is empty")
			}
		})
	}
}

func TestRender_IncludesSignedInUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Ada"})
	rec := httptest.NewRecorder()
	uierrors.RenderForbidden(rec, r, "nope", "/")

	body := decode(t, rec)
	if body["is_logged_in"] != true || body["user_name"] != "Ada" {
		t.Errorf("body = %v", body)
	}
}

func TestErrorLogger_LogServerError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/groups/x/delete", nil)
	el.LogServerError(rec, r, "delete group failed", stderrors.New("socket closed"), "A database error occurred.", "/groups/")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "socket closed") {
		t.Error("internal error text leaked to the client")
	}
	if logs.FilterMessage("delete group failed").Len() != 1 {
		t.Error("expected the failure to be logged")
	}
}

func TestHandler_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.NewHandler().NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
