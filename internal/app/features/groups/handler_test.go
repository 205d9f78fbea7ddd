package groups_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/features/groups"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/dalemusser/mozillians/internal/testutil"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, db *mongo.Database) *groups.Handler {
	t.Helper()
	log := zap.NewNop()
	svc := membership.NewForDB(db, auditlog.New(nil, log, auditlog.Config{}), log)
	flash := notify.NewFlasher(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")), "mozillians-test", log)
	return groups.NewHandler(db, svc, flash, uierrors.NewErrorLogger(log), 20, log)
}

func membershipOf(t *testing.T, ctx context.Context, db *mongo.Database, groupID, profileID primitive.ObjectID) *models.GroupMembership {
	t.Helper()
	m, err := membershipstore.New(db).Get(ctx, groupID, profileID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	return m
}

func post(h http.HandlerFunc, p models.Profile, target string, params map[string]string, form url.Values) *testutil.ResponseRecorder {
	req := testutil.NewFormRequest(target, form)
	req = testutil.WithProfile(req, p)
	for k, v := range params {
		req = testutil.WithChiURLParam(req, k, v)
	}
	rec := testutil.NewRecorder()
	h(rec, req)
	return rec
}

func get(h http.HandlerFunc, p models.Profile, target string, params map[string]string) *testutil.ResponseRecorder {
	req := testutil.NewRequest(http.MethodGet, target)
	req = testutil.WithProfile(req, p)
	for k, v := range params {
		req = testutil.WithChiURLParam(req, k, v)
	}
	rec := testutil.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleJoin(t *testing.T) {
	tests := []struct {
		name      string
		accepting string
		want      models.MembershipStatus
	}{
		{"open group", models.AcceptingYes, models.StatusMember},
		{"by request", models.AcceptingByRequest, models.StatusPending},
		{"closed", models.AcceptingNo, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			fx := testutil.NewFixtures(t, db)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			h := newHandler(t, db)

			joiner := fx.CreateProfile(ctx, "Joining Person")
			g := fx.CreateGroup(ctx, "Joinable "+tt.name, testutil.WithAccepting(tt.accepting))

			rec := post(h.HandleJoin, joiner, "/groups/id/"+g.ID.Hex()+"/join",
				map[string]string{"groupID": g.ID.Hex()}, nil)
			rec.AssertRedirect(t, membership.GroupPath(g.URL))

			m := membershipOf(t, ctx, db, g.ID, joiner.ID)
			if tt.want == "" {
				if m != nil {
					t.Fatalf("closed group gained a membership: %+v", m)
				}
				return
			}
			if m == nil || m.Status != tt.want {
				t.Fatalf("membership = %+v, want status %q", m, tt.want)
			}
		})
	}
}

func TestHandleJoin_UnknownGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	p := fx.CreateProfile(ctx, "Lost Person")
	id := primitive.NewObjectID().Hex()
	rec := post(h.HandleJoin, p, "/groups/id/"+id+"/join", map[string]string{"groupID": id}, nil)
	rec.AssertStatus(t, http.StatusNotFound)

	rec = post(h.HandleJoin, p, "/groups/id/nope/join", map[string]string{"groupID": "nope"}, nil)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	curator := fx.CreateProfile(ctx, "Cora Curator")
	alice := fx.CreateProfile(ctx, "Alice Member")
	bob := fx.CreateProfile(ctx, "Bob Member")
	admin := fx.CreateSuperuser(ctx, "Ada Admin")
	g := fx.CreateGroup(ctx, "Removals", testutil.WithCurator(curator.ID))
	fx.CreateMembership(ctx, g.ID, curator.ID, models.StatusMember)
	fx.CreateMembership(ctx, g.ID, alice.ID, models.StatusMember)
	fx.CreateMembership(ctx, g.ID, bob.ID, models.StatusMember)

	params := func(p models.Profile) map[string]string {
		return map[string]string{"groupID": g.ID.Hex(), "profileID": p.ID.Hex()}
	}
	target := func(p models.Profile) string {
		return "/groups/id/" + g.ID.Hex() + "/remove/" + p.ID.Hex()
	}

	// A member cannot remove someone else.
	rec := post(h.HandleRemove, alice, target(bob), params(bob), nil)
	rec.AssertStatus(t, http.StatusNotFound)
	if membershipOf(t, ctx, db, g.ID, bob.ID) == nil {
		t.Fatal("bob was removed by another member")
	}

	// Nobody removes the curator, superusers included.
	rec = post(h.HandleRemove, admin, target(curator), params(curator), nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
	if membershipOf(t, ctx, db, g.ID, curator.ID) == nil {
		t.Fatal("curator was removed")
	}

	// Members may leave.
	rec = post(h.HandleRemove, alice, target(alice), params(alice), nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
	if membershipOf(t, ctx, db, g.ID, alice.ID) != nil {
		t.Fatal("alice is still a member after leaving")
	}

	// The curator may remove anyone else.
	rec = post(h.HandleRemove, curator, target(bob), params(bob), nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
	if membershipOf(t, ctx, db, g.ID, bob.ID) != nil {
		t.Fatal("bob is still a member after removal by the curator")
	}
}

func TestServeRemoveConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	curator := fx.CreateProfile(ctx, "Cora Curator")
	alice := fx.CreateProfile(ctx, "Alice Member")
	g := fx.CreateGroup(ctx, "Confirm Leaving", testutil.WithCurator(curator.ID))
	fx.CreateMembership(ctx, g.ID, curator.ID, models.StatusMember)
	fx.CreateMembership(ctx, g.ID, alice.ID, models.StatusMember)

	rec := get(h.ServeRemoveConfirm, alice, "/groups/id/"+g.ID.Hex()+"/remove/"+alice.ID.Hex(),
		map[string]string{"groupID": g.ID.Hex(), "profileID": alice.ID.Hex()})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"self":true`)

	// The GET never removes.
	if membershipOf(t, ctx, db, g.ID, alice.ID) == nil {
		t.Fatal("GET removed the membership")
	}

	rec = get(h.ServeRemoveConfirm, curator, "/groups/id/"+g.ID.Hex()+"/remove/"+curator.ID.Hex(),
		map[string]string{"groupID": g.ID.Hex(), "profileID": curator.ID.Hex()})
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
}

func TestHandleConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	curator := fx.CreateProfile(ctx, "Cora Curator")
	asker := fx.CreateProfile(ctx, "Pat Pending")
	other := fx.CreateProfile(ctx, "Olly Other")
	g := fx.CreateGroup(ctx, "Confirmations",
		testutil.WithCurator(curator.ID), testutil.WithAccepting(models.AcceptingByRequest))
	fx.CreateMembership(ctx, g.ID, curator.ID, models.StatusMember)
	fx.CreateMembership(ctx, g.ID, asker.ID, models.StatusPending)
	fx.CreateMembership(ctx, g.ID, other.ID, models.StatusMember)

	params := map[string]string{"groupID": g.ID.Hex(), "profileID": asker.ID.Hex()}
	target := "/groups/id/" + g.ID.Hex() + "/confirm/" + asker.ID.Hex()

	rec := post(h.HandleConfirm, other, target, params, nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
	if m := membershipOf(t, ctx, db, g.ID, asker.ID); m.Status != models.StatusPending {
		t.Fatalf("non-curator confirmed a request: %+v", m)
	}

	rec = post(h.HandleConfirm, curator, target, params, nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
	if m := membershipOf(t, ctx, db, g.ID, asker.ID); m.Status != models.StatusMember {
		t.Fatalf("status after confirm = %q, want member", m.Status)
	}
}

func TestHandleDeleteGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	gs := groupstore.New(db)

	curator := fx.CreateProfile(ctx, "Cora Curator")
	asker := fx.CreateProfile(ctx, "Pat Pending")
	g := fx.CreateGroup(ctx, "Short Lived", testutil.WithCurator(curator.ID))
	fx.CreateMembership(ctx, g.ID, curator.ID, models.StatusMember)
	fx.CreateMembership(ctx, g.ID, asker.ID, models.StatusPending)

	params := map[string]string{"url": g.URL}
	target := "/groups/" + g.URL + "/delete"

	// A pending request counts as a member.
	rec := post(h.HandleDeleteGroup, curator, target, params, nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))
	if ok, _ := gs.Exists(ctx, g.ID); !ok {
		t.Fatal("group deleted while a request was pending")
	}

	if _, err := membershipstore.New(db).Remove(ctx, g.ID, asker.ID); err != nil {
		t.Fatalf("remove pending: %v", err)
	}

	// Only the curator may delete.
	rec = post(h.HandleDeleteGroup, asker, target, params, nil)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))

	rec = post(h.HandleDeleteGroup, curator, target, params, nil)
	rec.AssertRedirect(t, membership.IndexPath)
	if ok, _ := gs.Exists(ctx, g.ID); ok {
		t.Fatal("group still exists after delete")
	}
	if m := membershipOf(t, ctx, db, g.ID, curator.ID); m != nil {
		t.Fatalf("curator membership survived delete: %+v", m)
	}
}

func TestServeGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	curator := fx.CreateProfile(ctx, "Cora Curator")
	viewer := fx.CreateProfile(ctx, "Vic Viewer")
	asker := fx.CreateProfile(ctx, "Pat Pending")
	g := fx.CreateGroup(ctx, "Visible Rows",
		testutil.WithCurator(curator.ID), testutil.WithAccepting(models.AcceptingByRequest))
	fx.CreateMembership(ctx, g.ID, curator.ID, models.StatusMember)
	fx.CreateMembership(ctx, g.ID, asker.ID, models.StatusPending)

	decode := func(rec *testutil.ResponseRecorder) (out struct {
		Memberships []membershipstore.MemberRow `json:"memberships"`
		Flags       map[string]bool             `json:"flags"`
	}) {
		t.Helper()
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	t.Run("outsider sees members only", func(t *testing.T) {
		rec := get(h.ServeGroup, viewer, "/groups/"+g.URL, map[string]string{"url": g.URL})
		rec.AssertStatus(t, http.StatusOK)
		out := decode(rec)
		if len(out.Memberships) != 1 || out.Memberships[0].ProfileID != curator.ID {
			t.Fatalf("memberships = %+v, want only the curator", out.Memberships)
		}
		if !out.Flags["show_join_button"] {
			t.Error("outsider should be offered join")
		}
	})

	t.Run("curator sees requests", func(t *testing.T) {
		rec := get(h.ServeGroup, curator, "/groups/"+g.URL, map[string]string{"url": g.URL})
		rec.AssertStatus(t, http.StatusOK)
		out := decode(rec)
		if len(out.Memberships) != 2 {
			t.Fatalf("got %d memberships, want 2", len(out.Memberships))
		}
		if out.Flags["show_delete_group_button"] {
			t.Error("delete offered while a request is pending")
		}
	})

	t.Run("pending viewer sees own row", func(t *testing.T) {
		rec := get(h.ServeGroup, asker, "/groups/"+g.URL, map[string]string{"url": g.URL})
		out := decode(rec)
		if len(out.Memberships) != 2 {
			t.Fatalf("got %d memberships, want 2", len(out.Memberships))
		}
		if !out.Flags["is_pending"] {
			t.Error("is_pending not set")
		}
	})

	t.Run("old url redirects", func(t *testing.T) {
		old := models.GroupAlias{ID: primitive.NewObjectID(), AliasOf: g.ID, Name: "Old Name", NameCI: "old name", URL: "old-name"}
		if _, err := db.Collection("group_aliases").InsertOne(ctx, old); err != nil {
			t.Fatalf("insert alias: %v", err)
		}
		rec := get(h.ServeGroup, viewer, "/groups/old-name", map[string]string{"url": "old-name"})
		rec.AssertStatus(t, http.StatusMovedPermanently)
		if loc := rec.Header().Get("Location"); loc != membership.GroupPath(g.URL) {
			t.Errorf("Location = %q, want %q", loc, membership.GroupPath(g.URL))
		}
	})

	t.Run("unknown url", func(t *testing.T) {
		rec := get(h.ServeGroup, viewer, "/groups/no-such-group", map[string]string{"url": "no-such-group"})
		rec.AssertStatus(t, http.StatusNotFound)
	})
}

func TestServeIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	vouched := fx.CreateProfile(ctx, "Val Vouched")
	used := fx.CreateGroup(ctx, "Used Group")
	fx.CreateGroup(ctx, "Empty Group")
	fa := fx.CreateGroup(ctx, "Area Group", testutil.FunctionalArea())
	fx.CreateMembership(ctx, used.ID, vouched.ID, models.StatusMember)

	var out struct {
		Groups []struct {
			URL         string `json:"url"`
			MemberCount int64  `json:"member_count"`
		} `json:"groups"`
	}

	rec := get(h.ServeIndex, vouched, "/groups/", nil)
	rec.AssertStatus(t, http.StatusOK)
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Groups) != 1 || out.Groups[0].URL != used.URL || out.Groups[0].MemberCount != 1 {
		t.Fatalf("index = %+v, want only %q with 1 member", out.Groups, used.URL)
	}

	rec = get(h.ServeFunctionalAreas, vouched, "/groups/functional-areas", nil)
	rec.AssertStatus(t, http.StatusOK)
	out.Groups = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Groups) != 1 || out.Groups[0].URL != fa.URL {
		t.Fatalf("functional areas = %+v, want only %q", out.Groups, fa.URL)
	}
}

func TestHandleCreateGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	creator := fx.CreateProfile(ctx, "Cole Creator")

	rec := post(h.HandleCreateGroup, creator, "/groups/", nil, url.Values{
		"name":                  {"Web Compat"},
		"accepting_new_members": {"by_request"},
		"members_can_leave":     {"on"},
		"functional_area":       {"on"},
	})
	rec.AssertRedirect(t, "/groups/web-compat")

	g, err := groupstore.New(db).GetByURL(ctx, "web-compat")
	if err != nil {
		t.Fatalf("load created group: %v", err)
	}
	if !g.IsCurator(creator.ID) {
		t.Errorf("curator = %v, want creator", g.CuratorID)
	}
	if g.FunctionalArea {
		t.Error("non-superuser set functional_area")
	}
	if m := membershipOf(t, ctx, db, g.ID, creator.ID); m == nil || m.Status != models.StatusMember {
		t.Errorf("creator membership = %+v, want member", m)
	}

	// Same name, different case: rejected.
	rec = post(h.HandleCreateGroup, creator, "/groups/", nil, url.Values{"name": {"web compat"}})
	rec.AssertRedirect(t, membership.IndexPath)

	// Bad website: rejected before the service runs.
	rec = post(h.HandleCreateGroup, creator, "/groups/", nil, url.Values{
		"name":    {"Another Group"},
		"website": {"not a url"},
	})
	rec.AssertRedirect(t, membership.IndexPath)
	if _, err := groupstore.New(db).GetByURL(ctx, "another-group"); err == nil {
		t.Error("group with an invalid website was created")
	}
}

func TestEditGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)

	curator := fx.CreateProfile(ctx, "Cora Curator")
	other := fx.CreateProfile(ctx, "Olly Other")
	g := fx.CreateGroup(ctx, "Editable", testutil.WithCurator(curator.ID))
	fx.CreateMembership(ctx, g.ID, curator.ID, models.StatusMember)
	params := map[string]string{"url": g.URL}

	rec := get(h.ServeEditGroup, other, "/groups/"+g.URL+"/edit", params)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))

	rec = get(h.ServeEditGroup, curator, "/groups/"+g.URL+"/edit", params)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"form_action":"/groups/editable/edit"`)

	form := url.Values{
		"name":                  {"Editable"},
		"description":           {"Now with a description"},
		"accepting_new_members": {"no"},
	}
	rec = post(h.HandleEditGroup, other, "/groups/"+g.URL+"/edit", params, form)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))

	rec = post(h.HandleEditGroup, curator, "/groups/"+g.URL+"/edit", params, form)
	rec.AssertRedirect(t, membership.GroupPath(g.URL))

	got, err := groupstore.New(db).GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Description != "Now with a description" || got.AcceptingNewMembers != models.AcceptingNo {
		t.Errorf("group after edit = %+v", got)
	}
	if got.MembersCanLeave {
		t.Error("unchecked members_can_leave should be saved as false")
	}
}
