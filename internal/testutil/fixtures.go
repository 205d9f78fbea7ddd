package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the returned request adds to the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile inserts a vouched, non-superuser profile.
func (f *Fixtures) CreateProfile(ctx context.Context, fullName string) models.Profile {
	f.t.Helper()
	return f.insertProfile(ctx, fullName, true, false)
}

// CreateUnvouchedProfile inserts a profile that has not been vouched for.
func (f *Fixtures) CreateUnvouchedProfile(ctx context.Context, fullName string) models.Profile {
	f.t.Helper()
	return f.insertProfile(ctx, fullName, false, false)
}

// CreateSuperuser inserts a vouched superuser profile.
func (f *Fixtures) CreateSuperuser(ctx context.Context, fullName string) models.Profile {
	f.t.Helper()
	return f.insertProfile(ctx, fullName, true, true)
}

func (f *Fixtures) insertProfile(ctx context.Context, fullName string, vouched, superuser bool) models.Profile {
	f.t.Helper()
	p := models.Profile{
		ID:          primitive.NewObjectID(),
		FullName:    fullName,
		FullNameCI:  text.Fold(fullName),
		Email:       strings.ToLower(strings.ReplaceAll(fullName, " ", ".")) + "@example.com",
		IsVouched:   vouched,
		IsSuperuser: superuser,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// GroupOption adjusts a fixture group before insert.
type GroupOption func(*models.Group)

// WithCurator sets the curator (the caller adds the membership row).
func WithCurator(id primitive.ObjectID) GroupOption {
	return func(g *models.Group) { g.CuratorID = &id }
}

// WithAccepting sets accepting_new_members.
func WithAccepting(v string) GroupOption {
	return func(g *models.Group) { g.AcceptingNewMembers = v }
}

// Hidden marks the group not visible.
func Hidden() GroupOption {
	return func(g *models.Group) { g.Visible = false }
}

// FunctionalArea marks the group as a functional area.
func FunctionalArea() GroupOption {
	return func(g *models.Group) { g.FunctionalArea = true }
}

// CreateGroup inserts a visible, open group (accepting=yes, members can leave)
// plus its canonical alias.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, opts ...GroupOption) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:                  primitive.NewObjectID(),
		Name:                name,
		NameCI:              text.Fold(name),
		URL:                 normalize.Slug(name),
		AcceptingNewMembers: models.AcceptingYes,
		MembersCanLeave:     true,
		Visible:             true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, o := range opts {
		o(&g)
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	alias := models.GroupAlias{
		ID:      primitive.NewObjectID(),
		AliasOf: g.ID,
		Name:    g.Name,
		NameCI:  g.NameCI,
		URL:     g.URL,
	}
	if _, err := f.db.Collection("group_aliases").InsertOne(ctx, alias); err != nil {
		f.t.Fatalf("failed to create test group alias: %v", err)
	}
	return g
}

// CreateMembership inserts a membership row with the given status.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) models.GroupMembership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		ProfileID: profileID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateSkill inserts a skill and its canonical alias.
func (f *Fixtures) CreateSkill(ctx context.Context, name string) models.Skill {
	f.t.Helper()

	s := models.Skill{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		URL:       normalize.Slug(name),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("skills").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test skill: %v", err)
	}
	alias := models.SkillAlias{ID: primitive.NewObjectID(), AliasOf: s.ID, Name: s.Name, URL: s.URL}
	if _, err := f.db.Collection("skill_aliases").InsertOne(ctx, alias); err != nil {
		f.t.Fatalf("failed to create test skill alias: %v", err)
	}
	return s
}
