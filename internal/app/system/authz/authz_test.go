package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/dalemusser/mozillians/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestActor_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/groups/", nil)
	if _, ok := authz.Actor(req); ok {
		t.Error("expected ok=false without a session user")
	}
	if authz.IsSuperuser(req) {
		t.Error("anonymous request must not be superuser")
	}
}

func TestActor_MalformedID(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:          "not-an-object-id",
		IsSuperuser: true,
	})
	if _, ok := authz.Actor(req); ok {
		t.Error("expected ok=false for malformed profile id")
	}
	if authz.IsSuperuser(req) {
		t.Error("malformed session must not grant superuser")
	}
}

func TestActor_Valid(t *testing.T) {
	id := primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:          id.Hex(),
		Name:        "Ada",
		IsSuperuser: true,
	})

	a, ok := authz.Actor(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if a.ProfileID != id || !a.IsSuperuser {
		t.Errorf("Actor = %+v", a)
	}
	name, _, _, _ := authz.UserCtx(req)
	if name != "Ada" {
		t.Errorf("name = %q, want Ada", name)
	}
}
