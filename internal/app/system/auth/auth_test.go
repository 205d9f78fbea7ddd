package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetLoginURL("/sso/start")

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantHeader string
	}{
		{"html redirects", map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "Location"},
		{"htmx gets HX-Redirect", map[string]string{"HX-Request": "true"}, http.StatusUnauthorized, "HX-Redirect"},
		{"api gets 401", map[string]string{"Accept": "application/json"}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/groups/id/abc/join", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			sm.RequireSignedIn(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Error("handler should not run without a user")
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantHeader != "" {
				dest := rec.Header().Get(tt.wantHeader)
				if !strings.HasPrefix(dest, "/sso/start?return=") {
					t.Errorf("%s = %q, want login url with return", tt.wantHeader, dest)
				}
			}
		})
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false

	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "507f1f77bcf86cd799439011"})
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler(&called)).ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Errorf("expected handler to run, called=%v status=%d", called, rec.Code)
	}
}

func TestRequireSuperuser(t *testing.T) {
	sm := newTestSessionManager(t)

	tests := []struct {
		name       string
		user       *auth.SessionUser
		accept     string
		wantStatus int
	}{
		{"no user", nil, "text/html", http.StatusSeeOther},
		{"regular user html", &auth.SessionUser{ID: "507f1f77bcf86cd799439011"}, "text/html", http.StatusSeeOther},
		{"regular user api", &auth.SessionUser{ID: "507f1f77bcf86cd799439011"}, "application/json", http.StatusForbidden},
		{"superuser", &auth.SessionUser{ID: "507f1f77bcf86cd799439011", IsSuperuser: true}, "text/html", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/groups", nil)
			req.Header.Set("Accept", tt.accept)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			sm.RequireSuperuser(okHandler(nil)).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSignIn_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/callback", nil)
	rec := httptest.NewRecorder()
	want := auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Ada", IsSuperuser: true}
	if err := sm.SignIn(rec, req, want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	next := httptest.NewRequest("GET", "/groups/", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}

	var got *auth.SessionUser
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), next)

	if got == nil {
		t.Fatal("expected user loaded from session")
	}
	if *got != want {
		t.Errorf("loaded user = %+v, want %+v", *got, want)
	}
}

func TestLoadSessionUser_BadCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.Name(), Value: "garbage"})

	called := false
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user for an undecodable cookie")
		}
	})).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected handler to run")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok || user != nil {
		t.Errorf("expected no user, got %+v ok=%v", user, ok)
	}
}
