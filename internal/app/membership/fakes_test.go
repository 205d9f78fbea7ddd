package membership_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberKey struct{ group, profile primitive.ObjectID }

type fakeMemberships struct {
	mu   sync.Mutex
	rows map[memberKey]models.GroupMembership
	// staleGet makes Get report no row, as a reader racing a concurrent insert would.
	staleGet bool
	// addErr, when set, fails every Add.
	addErr error
}

func newFakeMemberships() *fakeMemberships {
	return &fakeMemberships{rows: map[memberKey]models.GroupMembership{}}
}

func (f *fakeMemberships) Get(_ context.Context, g, p primitive.ObjectID) (*models.GroupMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleGet {
		return nil, nil
	}
	m, ok := f.rows[memberKey{g, p}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeMemberships) Add(_ context.Context, g, p primitive.ObjectID, status models.MembershipStatus) (models.GroupMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return models.GroupMembership{}, f.addErr
	}
	k := memberKey{g, p}
	if _, ok := f.rows[k]; ok {
		return models.GroupMembership{}, membershipstore.ErrDuplicateMembership
	}
	m := models.GroupMembership{ID: primitive.NewObjectID(), GroupID: g, ProfileID: p, Status: status}
	f.rows[k] = m
	return m, nil
}

func (f *fakeMemberships) SetStatus(_ context.Context, g, p primitive.ObjectID, status models.MembershipStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := memberKey{g, p}
	m, ok := f.rows[k]
	if !ok {
		return membershipstore.ErrNotFound
	}
	m.Status = status
	f.rows[k] = m
	return nil
}

func (f *fakeMemberships) Remove(_ context.Context, g, p primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := memberKey{g, p}
	if _, ok := f.rows[k]; !ok {
		return 0, nil
	}
	delete(f.rows, k)
	return 1, nil
}

func (f *fakeMemberships) CountByStatus(_ context.Context, g primitive.ObjectID) (map[models.MembershipStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[models.MembershipStatus]int64{models.StatusMember: 0, models.StatusPending: 0}
	for k, m := range f.rows {
		if k.group == g {
			out[m.Status]++
		}
	}
	return out, nil
}

func (f *fakeMemberships) DeleteByGroup(_ context.Context, g primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.rows {
		if k.group == g {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeMemberships) MoveAll(_ context.Context, from, to primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, m := range f.rows {
		if k.group != from {
			continue
		}
		dst := memberKey{to, k.profile}
		existing, ok := f.rows[dst]
		switch {
		case !ok:
			m.GroupID = to
			f.rows[dst] = m
		case existing.Status == models.StatusPending && m.Status == models.StatusMember:
			existing.Status = models.StatusMember
			f.rows[dst] = existing
		}
		delete(f.rows, k)
	}
	return nil
}

func (f *fakeMemberships) status(g, p primitive.ObjectID) (models.MembershipStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[memberKey{g, p}]
	return m.Status, ok
}

func (f *fakeMemberships) count(g primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.rows {
		if k.group == g {
			n++
		}
	}
	return n
}

type fakeGroups struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]models.Group
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{groups: map[primitive.ObjectID]models.Group{}}
}

func (f *fakeGroups) put(g models.Group) models.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	f.groups[g.ID] = g
	return g
}

func (f *fakeGroups) get(id primitive.ObjectID) (models.Group, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	return g, ok
}

func (f *fakeGroups) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups)
}

func (f *fakeGroups) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	_, ok := f.get(id)
	return ok, nil
}

func (f *fakeGroups) Create(_ context.Context, g models.Group) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.groups {
		if strings.EqualFold(other.Name, g.Name) || other.URL == g.URL {
			return models.Group{}, groupstore.ErrDuplicateGroup
		}
	}
	g.ID = primitive.NewObjectID()
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeGroups) Update(_ context.Context, id primitive.ObjectID, u groupstore.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return groupstore.ErrNotFound
	}
	if u.Name != nil {
		for gid, other := range f.groups {
			if gid != id && strings.EqualFold(other.Name, *u.Name) {
				return groupstore.ErrDuplicateGroup
			}
		}
	}
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.AcceptingNewMembers != nil {
		g.AcceptingNewMembers = *u.AcceptingNewMembers
	}
	if u.MembersCanLeave != nil {
		g.MembersCanLeave = *u.MembersCanLeave
	}
	if u.Visible != nil {
		g.Visible = *u.Visible
	}
	if u.FunctionalArea != nil {
		g.FunctionalArea = *u.FunctionalArea
	}
	if u.CuratorID != nil {
		id := *u.CuratorID
		g.CuratorID = &id
	}
	if u.ClearCurator {
		g.CuratorID = nil
	}
	f.groups[id] = g
	return nil
}

func (f *fakeGroups) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return 0, nil
	}
	delete(f.groups, id)
	return 1, nil
}

type fakeAliases struct {
	mu    sync.Mutex
	byURL map[string]models.GroupAlias
}

func newFakeAliases() *fakeAliases {
	return &fakeAliases{byURL: map[string]models.GroupAlias{}}
}

func (f *fakeAliases) Create(_ context.Context, groupID primitive.ObjectID, name, url string) (models.GroupAlias, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := models.GroupAlias{ID: primitive.NewObjectID(), AliasOf: groupID, Name: name, URL: url}
	f.byURL[url] = a
	return a, nil
}

func (f *fakeAliases) UniqueURL(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := normalize.Slug(name)
	if base == "" {
		return "", fmt.Errorf("no slug for %q", name)
	}
	url := base
	for i := 2; ; i++ {
		if _, taken := f.byURL[url]; !taken {
			return url, nil
		}
		url = fmt.Sprintf("%s-%d", base, i)
	}
}

func (f *fakeAliases) Repoint(_ context.Context, from, to primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for url, a := range f.byURL {
		if a.AliasOf == from {
			a.AliasOf = to
			f.byURL[url] = a
			n++
		}
	}
	return n, nil
}

func (f *fakeAliases) DeleteByGroup(_ context.Context, groupID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for url, a := range f.byURL {
		if a.AliasOf == groupID {
			delete(f.byURL, url)
			n++
		}
	}
	return n, nil
}

func (f *fakeAliases) resolve(url string) (models.GroupAlias, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byURL[url]
	return a, ok
}

type notice struct {
	profile, group, actor primitive.ObjectID
	kind                  string
}

type fakeNotices struct {
	mu   sync.Mutex
	sent []notice
}

func (f *fakeNotices) Create(_ context.Context, profileID, groupID, actorID primitive.ObjectID, kind string) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notice{profileID, groupID, actorID, kind})
	return models.Notification{ProfileID: profileID, GroupID: groupID, ActorID: actorID, Kind: kind}, nil
}

func (f *fakeNotices) all() []notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notice(nil), f.sent...)
}
