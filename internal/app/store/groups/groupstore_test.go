package groupstore_test

import (
	"errors"
	"testing"

	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/dalemusser/mozillians/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Group{
		Name:        "Web Dev",
		URL:         "web-dev",
		Description: `<p>Hello</p><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if created.AcceptingNewMembers != models.AcceptingYes {
		t.Errorf("AcceptingNewMembers = %q, want default yes", created.AcceptingNewMembers)
	}
	if created.Description != "<p>Hello</p>" {
		t.Errorf("Description = %q, want sanitized", created.Description)
	}

	got, err := store.GetByURL(ctx, "web-dev")
	if err != nil {
		t.Fatalf("GetByURL failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByURL returned %s, want %s", got.ID.Hex(), created.ID.Hex())
	}
}

func TestStore_Create_RequiresURL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Group{Name: "No URL"}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Group{Name: "Web Dev", URL: "web-dev"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	tests := []struct {
		name string
		g    models.Group
	}{
		{"same url", models.Group{Name: "Other", URL: "web-dev"}},
		{"same name different case", models.Group{Name: "WEB DEV", URL: "web-dev-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.g); !errors.Is(err, groupstore.ErrDuplicateGroup) {
				t.Errorf("expected ErrDuplicateGroup, got %v", err)
			}
		})
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, groupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	ok, err := store.Exists(ctx, primitive.NewObjectID())
	if err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	curator := fixtures.CreateProfile(ctx, "Curator")
	g := fixtures.CreateGroup(ctx, "Web Dev", testutil.WithCurator(curator.ID))

	name := "Web Development"
	accepting := models.AcceptingByRequest
	leave := false
	if err := store.Update(ctx, g.ID, groupstore.Update{
		Name:                &name,
		AcceptingNewMembers: &accepting,
		MembersCanLeave:     &leave,
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != name || got.AcceptingNewMembers != accepting || got.MembersCanLeave {
		t.Errorf("updated group = %+v", got)
	}
	if got.URL != g.URL {
		t.Errorf("URL changed from %q to %q", g.URL, got.URL)
	}
	if !got.IsCurator(curator.ID) {
		t.Error("curator should be unchanged")
	}

	if err := store.Update(ctx, g.ID, groupstore.Update{ClearCurator: true}); err != nil {
		t.Fatalf("clear curator failed: %v", err)
	}
	got, _ = store.GetByID(ctx, g.ID)
	if got.CuratorID != nil {
		t.Errorf("CuratorID = %v, want nil", got.CuratorID)
	}
}

func TestStore_Update_InvalidAccepting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Web Dev")
	bad := "maybe"
	if err := store.Update(ctx, g.ID, groupstore.Update{AcceptingNewMembers: &bad}); err == nil {
		t.Fatal("expected error for invalid accepting value")
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := true
	if err := store.Update(ctx, primitive.NewObjectID(), groupstore.Update{Visible: &v}); !errors.Is(err, groupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeleteAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateGroup(ctx, "Alpha")
	b := fixtures.CreateGroup(ctx, "Beta", testutil.FunctionalArea())

	areas, err := store.Find(ctx, bson.M{"functional_area": true})
	if err != nil || len(areas) != 1 || areas[0].ID != b.ID {
		t.Fatalf("Find(functional_area) = %v, %v", areas, err)
	}

	n, err := store.Delete(ctx, a.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v; want 1", n, err)
	}
	byID, err := store.ListByIDs(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if _, ok := byID[a.ID]; ok {
		t.Error("deleted group still returned")
	}
	if _, ok := byID[b.ID]; !ok {
		t.Error("remaining group missing")
	}
}
