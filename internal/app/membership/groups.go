package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	"github.com/dalemusser/mozillians/internal/app/store/audit"
	groupstore "github.com/dalemusser/mozillians/internal/app/store/groups"
	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrDuplicateName = errors.New("a group with this name already exists")
	ErrInvalidInput  = errors.New("invalid group settings")
)

// GroupInput is the group form. The superuser-only fields are ignored for
// everyone else.
type GroupInput struct {
	Name                string
	Description         string
	IRCChannel          string
	Website             string
	Wiki                string
	AcceptingNewMembers string
	MembersCanLeave     bool

	// Superuser only.
	Visible        *bool
	FunctionalArea *bool
	CuratorID      *primitive.ObjectID
	ClearCurator   bool
}

func (in *GroupInput) clean() error {
	in.Name = normalize.Name(in.Name)
	in.IRCChannel = strings.TrimSpace(in.IRCChannel)
	in.Website = strings.TrimSpace(in.Website)
	in.Wiki = strings.TrimSpace(in.Wiki)
	if in.AcceptingNewMembers == "" {
		in.AcceptingNewMembers = models.AcceptingYes
	}
	if in.Name == "" || !models.ValidAccepting(in.AcceptingNewMembers) {
		return ErrInvalidInput
	}
	return nil
}

// CreateGroup creates a group curated by actor (or, for superusers, by the
// chosen curator). The curator is added as a member and the canonical alias
// is created with a url derived from the name.
func (s *Service) CreateGroup(ctx context.Context, actor grouppolicy.Actor, in GroupInput) (models.Group, Result, error) {
	if err := in.clean(); err != nil {
		return models.Group{}, Result{Kind: notify.InvalidGroupInput, Redirect: IndexPath}, err
	}

	g := models.Group{
		Name:                in.Name,
		Description:         in.Description,
		IRCChannel:          in.IRCChannel,
		Website:             in.Website,
		Wiki:                in.Wiki,
		AcceptingNewMembers: in.AcceptingNewMembers,
		MembersCanLeave:     in.MembersCanLeave,
		Visible:             true,
	}
	curator := actor.ProfileID
	if actor.IsSuperuser {
		if in.Visible != nil {
			g.Visible = *in.Visible
		}
		if in.FunctionalArea != nil {
			g.FunctionalArea = *in.FunctionalArea
		}
		if in.CuratorID != nil {
			curator = *in.CuratorID
		}
	}
	if !(actor.IsSuperuser && in.ClearCurator) {
		g.CuratorID = &curator
	}

	url, err := s.aliases.UniqueURL(ctx, g.Name)
	if err != nil {
		return models.Group{}, Result{Kind: notify.InvalidGroupInput, Redirect: IndexPath}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	g.URL = url

	// The group, its alias and the curator's row land together or not at all.
	var created models.Group
	err = s.tx(ctx, func(ctx context.Context) error {
		created = models.Group{}
		c, err := s.groups.Create(ctx, g)
		if err != nil {
			return err
		}
		created = c
		if _, err := s.aliases.Create(ctx, c.ID, c.Name, c.URL); err != nil {
			return fmt.Errorf("create alias: %w", err)
		}
		if c.CuratorID != nil {
			if _, err := s.members.Add(ctx, c.ID, *c.CuratorID, models.StatusMember); err != nil && !isDuplicate(err) {
				return fmt.Errorf("add curator: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if !created.ID.IsZero() {
			s.undoCreate(ctx, created.ID)
		}
		if errors.Is(err, groupstore.ErrDuplicateGroup) {
			return models.Group{}, Result{Kind: notify.DuplicateName, Redirect: IndexPath}, ErrDuplicateName
		}
		return models.Group{}, Result{}, fmt.Errorf("create group: %w", err)
	}

	s.audit.GroupCreated(ctx, actor.ProfileID, created.ID, created.Name)
	if created.CuratorID != nil {
		s.audit.MemberAdded(ctx, actor.ProfileID, created.ID, *created.CuratorID, models.StatusMember)
	}
	return created, Result{Kind: notify.GroupCreated, Args: []any{created.Name}, Redirect: GroupPath(created.URL)}, nil
}

// UpdateGroup applies in to g. The url never changes. A newly assigned
// curator is made a member.
func (s *Service) UpdateGroup(ctx context.Context, g models.Group, actor grouppolicy.Actor, in GroupInput) (Result, error) {
	if err := grouppolicy.CanEdit(g, actor); err != nil {
		s.audit.MembershipDenied(ctx, audit.EventGroupUpdated, actor.ProfileID, g.ID, actor.ProfileID, err.Error())
		return Result{Kind: notify.EditForbidden, Redirect: GroupPath(g.URL)}, err
	}
	if err := in.clean(); err != nil {
		return Result{Kind: notify.InvalidGroupInput, Redirect: GroupPath(g.URL)}, err
	}

	var (
		u      groupstore.Update
		fields []string
	)
	setStr := func(name string, cur, next string, dst **string) {
		if cur != next {
			v := next
			*dst = &v
			fields = append(fields, name)
		}
	}
	setStr("name", g.Name, in.Name, &u.Name)
	setStr("description", g.Description, in.Description, &u.Description)
	setStr("irc_channel", g.IRCChannel, in.IRCChannel, &u.IRCChannel)
	setStr("website", g.Website, in.Website, &u.Website)
	setStr("wiki", g.Wiki, in.Wiki, &u.Wiki)
	setStr("accepting_new_members", g.AcceptingNewMembers, in.AcceptingNewMembers, &u.AcceptingNewMembers)
	if g.MembersCanLeave != in.MembersCanLeave {
		v := in.MembersCanLeave
		u.MembersCanLeave = &v
		fields = append(fields, "members_can_leave")
	}

	var newCurator *primitive.ObjectID
	if actor.IsSuperuser {
		if in.Visible != nil && *in.Visible != g.Visible {
			u.Visible = in.Visible
			fields = append(fields, "visible")
		}
		if in.FunctionalArea != nil && *in.FunctionalArea != g.FunctionalArea {
			u.FunctionalArea = in.FunctionalArea
			fields = append(fields, "functional_area")
		}
		switch {
		case in.ClearCurator && g.CuratorID != nil:
			u.ClearCurator = true
			fields = append(fields, "curator")
		case in.CuratorID != nil && !g.IsCurator(*in.CuratorID):
			u.CuratorID = in.CuratorID
			newCurator = in.CuratorID
			fields = append(fields, "curator")
		}
	}

	// The new curator becomes a member before the group names them, so a
	// failed update leaves at most an extra membership, which is undone.
	var added, raised bool
	err := s.tx(ctx, func(ctx context.Context) error {
		added, raised = false, false
		if newCurator != nil {
			var err error
			if added, raised, err = s.ensureMember(ctx, g.ID, *newCurator); err != nil {
				return fmt.Errorf("add curator: %w", err)
			}
		}
		if len(fields) > 0 {
			return s.groups.Update(ctx, g.ID, u)
		}
		return nil
	})
	if err != nil {
		if newCurator != nil {
			s.undoCurator(ctx, g.ID, *newCurator, added, raised)
		}
		switch {
		case errors.Is(err, groupstore.ErrDuplicateGroup):
			return Result{Kind: notify.DuplicateName, Redirect: GroupPath(g.URL)}, ErrDuplicateName
		case errors.Is(err, groupstore.ErrNotFound):
			return Result{}, ErrGroupNotFound
		}
		return Result{}, fmt.Errorf("update group: %w", err)
	}
	switch {
	case added:
		s.audit.MemberAdded(ctx, actor.ProfileID, g.ID, *newCurator, models.StatusMember)
	case raised:
		s.audit.MemberConfirmed(ctx, actor.ProfileID, g.ID, *newCurator)
	}

	name := g.Name
	if u.Name != nil {
		name = *u.Name
	}
	if len(fields) > 0 {
		s.audit.GroupUpdated(ctx, actor.ProfileID, g.ID, fields)
	}
	return Result{Kind: notify.GroupUpdated, Args: []any{name}, Redirect: GroupPath(g.URL)}, nil
}

// MergeGroups folds sources into target: memberships move (member beats
// pending), aliases are repointed so old urls keep resolving, and the
// sources are deleted. Superusers only.
func (s *Service) MergeGroups(ctx context.Context, actor grouppolicy.Actor, target models.Group, sources []models.Group) (Result, error) {
	if !actor.IsSuperuser {
		return Result{Kind: notify.EditForbidden, Redirect: GroupPath(target.URL)}, grouppolicy.ErrForbidden
	}

	var names []string
	err := s.tx(ctx, func(ctx context.Context) error {
		names = names[:0]
		for _, src := range sources {
			if src.ID == target.ID {
				continue
			}
			if err := s.members.MoveAll(ctx, src.ID, target.ID); err != nil {
				return fmt.Errorf("move memberships of %s: %w", src.URL, err)
			}
			if _, err := s.aliases.Repoint(ctx, src.ID, target.ID); err != nil {
				return fmt.Errorf("repoint aliases of %s: %w", src.URL, err)
			}
			if _, err := s.groups.Delete(ctx, src.ID); err != nil {
				return fmt.Errorf("delete %s: %w", src.URL, err)
			}
			names = append(names, src.Name)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if len(names) > 0 {
		s.audit.GroupsMerged(ctx, actor.ProfileID, target.ID, names)
	}
	return Result{Kind: notify.GroupsMerged, Args: []any{target.Name}, Redirect: GroupPath(target.URL)}, nil
}

// ensureMember makes profileID a full member of groupID, reporting whether
// a row was inserted or a pending row was raised.
func (s *Service) ensureMember(ctx context.Context, groupID, profileID primitive.ObjectID) (added, raised bool, err error) {
	existing, err := s.members.Get(ctx, groupID, profileID)
	if err != nil {
		return false, false, fmt.Errorf("load membership: %w", err)
	}
	if existing != nil {
		if existing.Status != models.StatusPending {
			return false, false, nil
		}
		if err := s.members.SetStatus(ctx, groupID, profileID, models.StatusMember); err != nil {
			return false, false, fmt.Errorf("raise membership: %w", err)
		}
		return false, true, nil
	}
	if _, err := s.members.Add(ctx, groupID, profileID, models.StatusMember); err != nil {
		if !isDuplicate(err) {
			return false, false, fmt.Errorf("add membership: %w", err)
		}
		// Lost a race with another insert; make sure it is a full membership.
		if err := s.members.SetStatus(ctx, groupID, profileID, models.StatusMember); err != nil {
			return false, false, fmt.Errorf("raise membership: %w", err)
		}
		return false, false, nil
	}
	return true, false, nil
}

// undoCreate removes what a failed CreateGroup wrote. Inside a transaction
// the rollback already did this and every delete is a no-op.
func (s *Service) undoCreate(ctx context.Context, groupID primitive.ObjectID) {
	ctx = context.WithoutCancel(ctx)
	fields := []zap.Field{zap.String("group_id", groupID.Hex())}
	if _, err := s.members.DeleteByGroup(ctx, groupID); err != nil {
		s.log.Error("undo create: delete memberships", append(fields, zap.Error(err))...)
	}
	if _, err := s.aliases.DeleteByGroup(ctx, groupID); err != nil {
		s.log.Error("undo create: delete aliases", append(fields, zap.Error(err))...)
	}
	if _, err := s.groups.Delete(ctx, groupID); err != nil {
		s.log.Error("undo create: delete group", append(fields, zap.Error(err))...)
	}
}

// undoCurator reverts what ensureMember did for a curator change that
// failed to apply.
func (s *Service) undoCurator(ctx context.Context, groupID, profileID primitive.ObjectID, added, raised bool) {
	ctx = context.WithoutCancel(ctx)
	var err error
	switch {
	case added:
		_, err = s.members.Remove(ctx, groupID, profileID)
	case raised:
		err = s.members.SetStatus(ctx, groupID, profileID, models.StatusPending)
	}
	if err != nil && !isNotFound(err) {
		s.log.Error("undo curator membership", zap.Error(err),
			zap.String("group_id", groupID.Hex()), zap.String("profile_id", profileID.Hex()))
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, membershipstore.ErrDuplicateMembership)
}

func isNotFound(err error) bool {
	return errors.Is(err, membershipstore.ErrNotFound)
}
