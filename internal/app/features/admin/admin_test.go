package admin_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dalemusser/mozillians/internal/app/features/admin"
	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	groupaliasstore "github.com/dalemusser/mozillians/internal/app/store/groupaliases"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/app/system/auth"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/dalemusser/mozillians/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testKey = "0123456789abcdef0123456789abcdef"

func setup(t *testing.T, db *mongo.Database) (*admin.Handler, *auth.SessionManager) {
	t.Helper()
	log := zap.NewNop()
	sm, err := auth.NewSessionManager(testKey, "mozillians-test", "", time.Hour, false, log)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	svc := membership.NewForDB(db, auditlog.New(nil, log, auditlog.Config{}), log)
	flash := notify.NewFlasher(sm.Store(), sm.Name(), log)
	return admin.NewHandler(db, svc, flash, uierrors.NewErrorLogger(log), 20, log), sm
}

func TestRoutes_RequireSuperuser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, sm := setup(t, db)
	router := admin.Routes(h, sm)

	plain := fx.CreateProfile(ctx, "Plain Person")
	boss := fx.CreateSuperuser(ctx, "Boss Person")

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithProfile(testutil.NewRequest(http.MethodGet, "/groups"), plain))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithProfile(testutil.NewRequest(http.MethodGet, "/groups"), boss))
	rec.AssertStatus(t, http.StatusOK)
}

func TestServeGroupList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := setup(t, db)

	boss := fx.CreateSuperuser(ctx, "Boss Person")
	v := fx.CreateProfile(ctx, "Vouched Person")
	web := fx.CreateGroup(ctx, "Web Dev")
	fx.CreateMembership(ctx, web.ID, v.ID, models.StatusMember)
	fx.CreateGroup(ctx, "Lonely")
	waiting := fx.CreateGroup(ctx, "Waiting Room")
	fx.CreateMembership(ctx, waiting.ID, fx.CreateProfile(ctx, "Hopeful Person").ID, models.StatusPending)
	if _, err := groupaliasstore.New(db).Create(ctx, web.ID, "Webdev Legacy", "webdev-legacy"); err != nil {
		t.Fatalf("alias: %v", err)
	}

	var out struct {
		Groups []struct {
			URL          string `json:"url"`
			MemberCount  int64  `json:"member_count"`
			VouchedCount int64  `json:"vouched_member_count"`
		} `json:"groups"`
	}
	list := func(target string) {
		t.Helper()
		out.Groups = nil
		rec := testutil.NewRecorder()
		h.ServeGroupList(rec, testutil.WithProfile(testutil.NewRequest(http.MethodGet, target), boss))
		rec.AssertStatus(t, http.StatusOK)
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}

	list("/admin/groups?empty_group=yes")
	if len(out.Groups) != 1 || out.Groups[0].URL != "lonely" {
		t.Errorf("empty groups = %+v, want [lonely]", out.Groups)
	}

	list("/admin/groups?q=legacy")
	if len(out.Groups) != 1 || out.Groups[0].URL != "web-dev" {
		t.Errorf("alias search = %+v, want [web-dev]", out.Groups)
	}
	if len(out.Groups) == 1 && (out.Groups[0].MemberCount != 1 || out.Groups[0].VouchedCount != 1) {
		t.Errorf("counts = %+v, want 1/1", out.Groups[0])
	}

	list("/admin/groups?empty_group=no")
	if len(out.Groups) != 2 {
		t.Errorf("non-empty groups = %+v, want web-dev and waiting-room", out.Groups)
	}

	list("/admin/groups?o=-member_count")
	if len(out.Groups) != 3 || out.Groups[2].URL != "lonely" {
		t.Errorf("by count = %+v", out.Groups)
	}
}

func TestHandleMerge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := setup(t, db)
	members := membershipstore.New(db)

	boss := fx.CreateSuperuser(ctx, "Boss Person")
	a := fx.CreateProfile(ctx, "Ann A")
	b := fx.CreateProfile(ctx, "Ben B")

	target := fx.CreateGroup(ctx, "Firefox OS")
	fx.CreateMembership(ctx, target.ID, a.ID, models.StatusPending)
	src := fx.CreateGroup(ctx, "B2G")
	fx.CreateMembership(ctx, src.ID, a.ID, models.StatusMember)
	fx.CreateMembership(ctx, src.ID, b.ID, models.StatusPending)

	merge := func(p models.Profile) *testutil.ResponseRecorder {
		req := testutil.NewFormRequest("/admin/groups/"+target.ID.Hex()+"/merge", url.Values{"source": {src.ID.Hex(), "junk"}})
		req = testutil.WithProfile(req, p)
		req = testutil.WithChiURLParam(req, "groupID", target.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleMerge(rec, req)
		return rec
	}

	// The service refuses non-superusers even if routing were bypassed.
	rec := merge(a)
	rec.AssertRedirect(t, membership.GroupPath(target.URL))
	if ok, _ := groupstore.New(db).Exists(ctx, src.ID); !ok {
		t.Fatal("source deleted by a non-superuser")
	}

	rec = merge(boss)
	rec.AssertRedirect(t, membership.GroupPath(target.URL))

	if ok, _ := groupstore.New(db).Exists(ctx, src.ID); ok {
		t.Error("source group still exists")
	}
	if m, _ := members.Get(ctx, target.ID, a.ID); m == nil || m.Status != models.StatusMember {
		t.Errorf("a = %+v, want member (member beats pending)", m)
	}
	if m, _ := members.Get(ctx, target.ID, b.ID); m == nil || m.Status != models.StatusPending {
		t.Errorf("b = %+v, want pending", m)
	}
	alias, err := groupaliasstore.New(db).Resolve(ctx, src.URL)
	if err != nil || alias.AliasOf != target.ID {
		t.Errorf("old url resolves to %v (%v), want target", alias.AliasOf, err)
	}
}
