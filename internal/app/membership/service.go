// Package membership applies group policy decisions to the stores.
//
// Every operation loads the state the policy needs, asks grouppolicy, and
// only mutates when the decision allowed it. A denial comes back as the
// grouppolicy sentinel together with a Result describing the message to
// show, so callers can flash it and redirect without a 5xx.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	"github.com/dalemusser/mozillians/internal/app/store/audit"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	"github.com/dalemusser/mozillians/internal/app/system/auditlog"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrGroupNotFound means the group disappeared (or never existed).
var ErrGroupNotFound = errors.New("group not found")

// Memberships is the subset of the membership store the service uses.
type Memberships interface {
	Get(ctx context.Context, groupID, profileID primitive.ObjectID) (*models.GroupMembership, error)
	Add(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) (models.GroupMembership, error)
	SetStatus(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) error
	Remove(ctx context.Context, groupID, profileID primitive.ObjectID) (int64, error)
	CountByStatus(ctx context.Context, groupID primitive.ObjectID) (map[models.MembershipStatus]int64, error)
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
	MoveAll(ctx context.Context, from, to primitive.ObjectID) error
}

// Groups is the subset of the group store the service uses.
type Groups interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Create(ctx context.Context, g models.Group) (models.Group, error)
	Update(ctx context.Context, id primitive.ObjectID, u groupstore.Update) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Aliases is the subset of the group alias store the service uses.
type Aliases interface {
	Create(ctx context.Context, groupID primitive.ObjectID, name, url string) (models.GroupAlias, error)
	UniqueURL(ctx context.Context, name string) (string, error)
	Repoint(ctx context.Context, from, to primitive.ObjectID) (int64, error)
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
}

// Notices records messages for profiles other than the actor.
type Notices interface {
	Create(ctx context.Context, profileID, groupID, actorID primitive.ObjectID, kind string) (models.Notification, error)
}

// TxFunc runs fn as one unit of work (see txn.Run).
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Deps are the service's collaborators.
type Deps struct {
	Groups      Groups
	Memberships Memberships
	Aliases     Aliases
	Notices     Notices
	Audit       *auditlog.Logger
	Tx          TxFunc
	Log         *zap.Logger
}

type Service struct {
	groups  Groups
	members Memberships
	aliases Aliases
	notices Notices
	audit   *auditlog.Logger
	tx      TxFunc
	log     *zap.Logger
}

func New(d Deps) *Service {
	s := &Service{
		groups:  d.Groups,
		members: d.Memberships,
		aliases: d.Aliases,
		notices: d.Notices,
		audit:   d.Audit,
		tx:      d.Tx,
		log:     d.Log,
	}
	if s.tx == nil {
		s.tx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Result tells the caller what to show and where to go next.
type Result struct {
	Kind     notify.Kind
	Args     []any
	Redirect string
}

// Message renders the Result's text.
func (r Result) Message() string { return notify.Message(r.Kind, r.Args...) }

// GroupPath is the canonical view url of a group.
func GroupPath(url string) string { return "/groups/" + url }

// IndexPath is the group directory.
const IndexPath = "/groups/"

// Denied reports whether err is a policy denial rather than a failure.
func Denied(err error) bool {
	for _, d := range []error{
		grouppolicy.ErrAlreadyMember,
		grouppolicy.ErrRequestPending,
		grouppolicy.ErrJoiningClosed,
		grouppolicy.ErrNotAllowed,
		grouppolicy.ErrCuratorProtected,
		grouppolicy.ErrForbidden,
		grouppolicy.ErrNoSuchRequest,
		grouppolicy.ErrNotSole,
		grouppolicy.ErrNotFound,
		ErrDuplicateName,
		ErrInvalidInput,
	} {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

func (s *Service) deny(ctx context.Context, eventType string, actor grouppolicy.Actor, g models.Group, target primitive.ObjectID, kind notify.Kind, err error) (Result, error) {
	s.audit.MembershipDenied(ctx, eventType, actor.ProfileID, g.ID, target, err.Error())
	return Result{Kind: kind, Redirect: GroupPath(g.URL)}, err
}

// Join asks for actor's membership in g.
func (s *Service) Join(ctx context.Context, g models.Group, actor grouppolicy.Actor) (Result, error) {
	own, err := s.members.Get(ctx, g.ID, actor.ProfileID)
	if err != nil {
		return Result{}, fmt.Errorf("load membership: %w", err)
	}
	status, err := grouppolicy.CanJoin(g, own)
	if err != nil {
		return s.deny(ctx, audit.EventMemberAddedToGroup, actor, g, actor.ProfileID, joinKind(err), err)
	}

	if err := s.insert(ctx, g.ID, actor.ProfileID, status); err != nil {
		if errors.Is(err, grouppolicy.ErrAlreadyMember) {
			// A concurrent join won; report what it created.
			if m, _ := s.members.Get(ctx, g.ID, actor.ProfileID); m != nil && m.Status == models.StatusPending {
				err = grouppolicy.ErrRequestPending
			}
			return s.deny(ctx, audit.EventMemberAddedToGroup, actor, g, actor.ProfileID, joinKind(err), err)
		}
		return Result{}, err
	}
	s.audit.MemberAdded(ctx, actor.ProfileID, g.ID, actor.ProfileID, status)

	kind := notify.Joined
	if status == models.StatusPending {
		kind = notify.RequestSent
	}
	return Result{Kind: kind, Redirect: GroupPath(g.URL)}, nil
}

func joinKind(err error) notify.Kind {
	switch {
	case errors.Is(err, grouppolicy.ErrRequestPending):
		return notify.RequestPending
	case errors.Is(err, grouppolicy.ErrJoiningClosed):
		return notify.JoiningClosed
	default:
		return notify.AlreadyInGroup
	}
}

// AddMember gives profileID a row in groupID with status. An existing row is
// left alone, except that a pending row is raised to member when status is
// member. Reports whether anything changed.
func (s *Service) AddMember(ctx context.Context, actorID, groupID, profileID primitive.ObjectID, status models.MembershipStatus) (bool, error) {
	existing, err := s.members.Get(ctx, groupID, profileID)
	if err != nil {
		return false, fmt.Errorf("load membership: %w", err)
	}
	if existing != nil {
		if existing.Status == models.StatusPending && status == models.StatusMember {
			if err := s.members.SetStatus(ctx, groupID, profileID, models.StatusMember); err != nil {
				return false, fmt.Errorf("raise membership: %w", err)
			}
			s.audit.MemberConfirmed(ctx, actorID, groupID, profileID)
			return true, nil
		}
		return false, nil
	}
	if err := s.insert(ctx, groupID, profileID, status); err != nil {
		if errors.Is(err, grouppolicy.ErrAlreadyMember) {
			return false, nil
		}
		return false, err
	}
	s.audit.MemberAdded(ctx, actorID, groupID, profileID, status)
	return true, nil
}

// insert adds the row and then checks the group still exists, undoing the
// insert when a concurrent delete removed it.
func (s *Service) insert(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) error {
	if _, err := s.members.Add(ctx, groupID, profileID, status); err != nil {
		if isDuplicate(err) {
			return grouppolicy.ErrAlreadyMember
		}
		return fmt.Errorf("add membership: %w", err)
	}
	ok, err := s.groups.Exists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if !ok {
		if _, err := s.members.Remove(ctx, groupID, profileID); err != nil {
			s.log.Error("remove orphaned membership", zap.Error(err),
				zap.String("group_id", groupID.Hex()), zap.String("profile_id", profileID.Hex()))
		}
		return ErrGroupNotFound
	}
	return nil
}

// RemoveMember removes target from g on behalf of actor. Removing yourself
// is leaving; removing someone else notifies them. A missing row is a no-op.
func (s *Service) RemoveMember(ctx context.Context, g models.Group, actor grouppolicy.Actor, target primitive.ObjectID) (Result, error) {
	if err := grouppolicy.CanLeave(g, actor, target); err != nil {
		return s.deny(ctx, audit.EventMemberRemovedFromGroup, actor, g, target, RemovalDenial(err), err)
	}

	n, err := s.members.Remove(ctx, g.ID, target)
	if err != nil {
		return Result{}, fmt.Errorf("remove membership: %w", err)
	}
	self := actor.ProfileID == target
	if n > 0 {
		s.audit.MemberRemoved(ctx, actor.ProfileID, g.ID, target)
		if !self {
			s.notice(ctx, target, g.ID, actor.ProfileID, notify.RemovedByOther)
		}
	}

	if self {
		return Result{Kind: notify.Left, Redirect: GroupPath(g.URL)}, nil
	}
	return Result{Kind: notify.MemberRemoved, Redirect: GroupPath(g.URL)}, nil
}

// RemovalDenial maps a CanLeave denial to its message.
func RemovalDenial(err error) notify.Kind {
	switch {
	case errors.Is(err, grouppolicy.ErrCuratorProtected):
		return notify.CuratorProtected
	case errors.Is(err, grouppolicy.ErrNotFound):
		return notify.MemberNotFound
	default:
		return notify.LeaveNotAllowed
	}
}

// ConfirmMember accepts profileID's pending request.
func (s *Service) ConfirmMember(ctx context.Context, g models.Group, actor grouppolicy.Actor, profileID primitive.ObjectID) (Result, error) {
	m, err := s.members.Get(ctx, g.ID, profileID)
	if err != nil {
		return Result{}, fmt.Errorf("load membership: %w", err)
	}
	if err := grouppolicy.CanConfirm(g, actor, m); err != nil {
		kind := notify.ConfirmForbidden
		switch {
		case errors.Is(err, grouppolicy.ErrNoSuchRequest):
			kind = notify.NoSuchRequest
		case errors.Is(err, grouppolicy.ErrAlreadyMember):
			kind = notify.AlreadyConfirmed
		}
		return s.deny(ctx, audit.EventMemberConfirmed, actor, g, profileID, kind, err)
	}

	if err := s.members.SetStatus(ctx, g.ID, profileID, models.StatusMember); err != nil {
		if isNotFound(err) {
			return s.deny(ctx, audit.EventMemberConfirmed, actor, g, profileID, notify.NoSuchRequest, grouppolicy.ErrNoSuchRequest)
		}
		return Result{}, fmt.Errorf("confirm membership: %w", err)
	}
	s.audit.MemberConfirmed(ctx, actor.ProfileID, g.ID, profileID)
	s.notice(ctx, profileID, g.ID, actor.ProfileID, notify.Confirmed)
	return Result{Kind: notify.Confirmed, Redirect: GroupPath(g.URL)}, nil
}

// DeleteGroup removes g with its memberships and aliases in one transaction.
func (s *Service) DeleteGroup(ctx context.Context, g models.Group, actor grouppolicy.Actor) (Result, error) {
	counts, err := s.members.CountByStatus(ctx, g.ID)
	if err != nil {
		return Result{}, fmt.Errorf("count members: %w", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if err := grouppolicy.CanDelete(g, actor, total); err != nil {
		kind := notify.DeleteForbidden
		if errors.Is(err, grouppolicy.ErrNotSole) {
			kind = notify.DeleteNotSole
		}
		s.audit.MembershipDenied(ctx, audit.EventGroupDeleted, actor.ProfileID, g.ID, actor.ProfileID, err.Error())
		return Result{Kind: kind, Redirect: GroupPath(g.URL)}, err
	}

	var removed int64
	err = s.tx(ctx, func(ctx context.Context) error {
		n, err := s.groups.Delete(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		if n == 0 {
			return ErrGroupNotFound
		}
		if removed, err = s.members.DeleteByGroup(ctx, g.ID); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if _, err := s.aliases.DeleteByGroup(ctx, g.ID); err != nil {
			return fmt.Errorf("delete aliases: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.audit.GroupDeleted(ctx, actor.ProfileID, g.ID, g.Name, removed)
	return Result{Kind: notify.GroupDeleted, Args: []any{g.Name}, Redirect: IndexPath}, nil
}

func (s *Service) notice(ctx context.Context, profileID, groupID, actorID primitive.ObjectID, kind notify.Kind) {
	if s.notices == nil {
		return
	}
	if _, err := s.notices.Create(ctx, profileID, groupID, actorID, string(kind)); err != nil {
		s.log.Warn("record notification", zap.Error(err),
			zap.String("kind", string(kind)), zap.String("profile_id", profileID.Hex()))
	}
}
