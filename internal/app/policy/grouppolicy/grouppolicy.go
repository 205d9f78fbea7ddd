// Package grouppolicy decides whether group membership actions are allowed.
//
// Every function here is pure: callers load the group, the relevant
// membership row (nil when absent) and the actor, and get back either the
// outcome or one of the sentinel errors below. Nothing here touches the
// database, so a denial can never leave partial state behind.
//
// Authorization rules:
//   - Anyone may ask to join; the group's accepting_new_members setting decides
//     whether they become a member, a pending member, or are turned away
//   - Curators and superusers may remove and confirm anyone
//   - Ordinary members may only remove themselves, and only when the group
//     allows members to leave
//   - The curator can never be removed while they are curator
//   - Only the curator may delete a group, and only when they are its sole member
package grouppolicy

import (
	"errors"

	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Denials. Each is an expected, recoverable outcome that handlers translate
// into a user-visible message.
var (
	ErrAlreadyMember    = errors.New("profile is already a member of this group")
	ErrRequestPending   = errors.New("membership request is still pending")
	ErrJoiningClosed    = errors.New("group is not accepting new members")
	ErrNotAllowed       = errors.New("group does not allow members to remove themselves")
	ErrCuratorProtected = errors.New("a curator cannot be removed from a group")
	ErrForbidden        = errors.New("action requires the group curator or a superuser")
	ErrNoSuchRequest    = errors.New("profile has not requested membership in this group")
	ErrNotSole          = errors.New("group has members other than the curator")
	ErrNotFound         = errors.New("not found")
)

// Actor is the profile performing an action.
type Actor struct {
	ProfileID   primitive.ObjectID
	IsSuperuser bool
}

// privileged reports whether the actor is the group's curator or a superuser.
func (a Actor) privileged(g models.Group) bool {
	return a.IsSuperuser || g.IsCurator(a.ProfileID)
}

// CanJoin decides a join request. m is the existing membership of the
// joining profile, or nil. On success it returns the status the new row
// must be created with.
func CanJoin(g models.Group, m *models.GroupMembership) (models.MembershipStatus, error) {
	if m != nil {
		if m.Status == models.StatusPending {
			return "", ErrRequestPending
		}
		return "", ErrAlreadyMember
	}
	switch g.AcceptingNewMembers {
	case models.AcceptingYes:
		return models.StatusMember, nil
	case models.AcceptingByRequest:
		return models.StatusPending, nil
	default:
		return "", ErrJoiningClosed
	}
}

// CanLeave decides whether actor may remove target from the group.
// Self-removal is actor == target.
//
// The curator check comes first: nobody, privileged or not, removes the curator.
func CanLeave(g models.Group, actor Actor, target primitive.ObjectID) error {
	if g.IsCurator(target) {
		return ErrCuratorProtected
	}
	if actor.privileged(g) {
		return nil
	}
	if !g.MembersCanLeave {
		return ErrNotAllowed
	}
	if target != actor.ProfileID {
		return ErrNotFound
	}
	return nil
}

// CanConfirm decides whether actor may turn m (the target's membership, or
// nil) into a full membership.
func CanConfirm(g models.Group, actor Actor, m *models.GroupMembership) error {
	if !actor.privileged(g) {
		return ErrForbidden
	}
	if m == nil {
		return ErrNoSuchRequest
	}
	if m.Status == models.StatusMember {
		return ErrAlreadyMember
	}
	return nil
}

// CanDelete decides whether actor may delete the group. memberCount counts
// rows of every status; a pending request blocks deletion.
func CanDelete(g models.Group, actor Actor, memberCount int64) error {
	if !g.IsCurator(actor.ProfileID) {
		return ErrForbidden
	}
	if memberCount != 1 {
		return ErrNotSole
	}
	return nil
}

// CanEdit decides whether actor may change the group's settings.
func CanEdit(g models.Group, actor Actor) error {
	if !actor.privileged(g) {
		return ErrForbidden
	}
	return nil
}

// Filter describes which membership rows a viewer may see.
//
// Statuses empty means every status. OrProfileID, when set, additionally
// admits that profile's own row whatever its status.
type Filter struct {
	Statuses    []models.MembershipStatus
	OrProfileID *primitive.ObjectID
}

// ListingFilter returns the membership filter for viewer.
// own is the viewer's membership in the group, or nil. requested is the
// status selection from the page (honoured for curators and superusers only).
func ListingFilter(g models.Group, viewer Actor, own *models.GroupMembership, requested []models.MembershipStatus) Filter {
	if viewer.privileged(g) {
		return Filter{Statuses: dedupe(requested)}
	}
	f := Filter{Statuses: []models.MembershipStatus{models.StatusMember}}
	if own != nil && own.Status == models.StatusPending {
		id := viewer.ProfileID
		f.OrProfileID = &id
	}
	return f
}

// Allows reports whether a row passes the filter. The store expresses the
// same predicate as a query; this form is used by in-memory callers.
func (f Filter) Allows(m models.GroupMembership) bool {
	if f.OrProfileID != nil && m.ProfileID == *f.OrProfileID {
		return true
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if m.Status == s {
			return true
		}
	}
	return false
}

func dedupe(in []models.MembershipStatus) []models.MembershipStatus {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[models.MembershipStatus]bool, len(in))
	out := make([]models.MembershipStatus, 0, len(in))
	for _, s := range in {
		if !s.Valid() || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Flags are the group page's action buttons for the viewer.
type Flags struct {
	InGroup    bool
	IsCurator  bool
	IsPending  bool
	ShowJoin   bool
	ShowLeave  bool
	ShowDelete bool
}

// DisplayFlags computes which actions the group page offers the viewer.
func DisplayFlags(g models.Group, viewer Actor, own *models.GroupMembership, memberCount int64) Flags {
	f := Flags{
		InGroup:   own != nil && own.Status == models.StatusMember,
		IsPending: own != nil && own.Status == models.StatusPending,
		IsCurator: g.IsCurator(viewer.ProfileID),
	}
	if _, err := CanJoin(g, own); err == nil {
		f.ShowJoin = true
	}
	// Leave is offered to the viewer's own row only, so privilege is not a factor.
	self := Actor{ProfileID: viewer.ProfileID}
	f.ShowLeave = own != nil && CanLeave(g, self, viewer.ProfileID) == nil
	f.ShowDelete = CanDelete(g, viewer, memberCount) == nil
	return f
}
