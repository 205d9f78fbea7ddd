// Package notify names the user-visible outcomes of membership actions and
// delivers them as one-shot flash messages.
package notify

import "fmt"

// Kind identifies one outcome.
type Kind string

const (
	Joined         Kind = "joined"
	RequestSent    Kind = "request_sent"
	Left           Kind = "left"
	MemberRemoved  Kind = "member_removed"
	RemovedByOther Kind = "removed_by_other"
	Confirmed      Kind = "member_confirmed"
	GroupCreated   Kind = "group_created"
	GroupUpdated   Kind = "group_updated"
	GroupDeleted   Kind = "group_deleted"
	GroupsMerged   Kind = "groups_merged"
	SkillAdded     Kind = "skill_added"
	SkillRemoved   Kind = "skill_removed"

	// Denials.
	AlreadyInGroup    Kind = "already_in_group"
	RequestPending    Kind = "request_pending"
	JoiningClosed     Kind = "joining_closed"
	LeaveNotAllowed   Kind = "leave_not_allowed"
	CuratorProtected  Kind = "curator_protected"
	NoSuchRequest     Kind = "no_such_request"
	AlreadyConfirmed  Kind = "already_confirmed"
	ConfirmForbidden  Kind = "confirm_forbidden"
	EditForbidden     Kind = "edit_forbidden"
	DeleteForbidden   Kind = "delete_forbidden"
	DeleteNotSole     Kind = "delete_not_sole"
	DuplicateName     Kind = "duplicate_name"
	MemberNotFound    Kind = "member_not_found"
	InvalidGroupInput Kind = "invalid_group_input"
)

// Level is the flash category a Kind is shown under.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Error   Level = "error"
)

type entry struct {
	level  Level
	format string
}

var messages = map[Kind]entry{
	Joined:         {Success, "You have been added to this group."},
	RequestSent:    {Info, "Your membership request has been sent to the group curator."},
	Left:           {Success, "You have been removed from this group."},
	MemberRemoved:  {Success, "The group member has been removed."},
	RemovedByOther: {Info, "You have been removed from the group %s."},
	Confirmed:      {Success, "This user has been added as a member of this group."},
	GroupCreated:   {Success, "Group %s has been created."},
	GroupUpdated:   {Success, "Group %s has been updated."},
	GroupDeleted:   {Success, "Group %s has been deleted"},
	GroupsMerged:   {Success, "Groups have been merged into %s."},
	SkillAdded:     {Success, "Skill %s has been added to your profile."},
	SkillRemoved:   {Success, "Skill %s has been removed from your profile."},

	AlreadyInGroup:    {Error, "You are already in this group."},
	RequestPending:    {Error, "Your request to join this group is still pending."},
	JoiningClosed:     {Error, "This group is not accepting requests to join."},
	LeaveNotAllowed:   {Error, "This group does not allow members to remove themselves."},
	CuratorProtected:  {Error, "A curator cannot be removed from a group."},
	NoSuchRequest:     {Error, "This user has not requested membership in this group."},
	AlreadyConfirmed:  {Error, "This user is already a member of this group."},
	ConfirmForbidden:  {Error, "You must be a curator or an admin to confirm members."},
	EditForbidden:     {Error, "You must be a curator or an admin to edit a group"},
	DeleteForbidden:   {Error, "You must be a curator to delete a group"},
	DeleteNotSole:     {Error, "You cannot delete a group if anyone else is in it."},
	DuplicateName:     {Error, "A group with this name already exists."},
	MemberNotFound:    {Error, "This user is not a member of this group."},
	InvalidGroupInput: {Error, "The group could not be saved. Check the name and settings."},
}

// Message returns the text for k. Kinds that name a group or skill take it
// as the single argument.
func Message(k Kind, args ...any) string {
	e, ok := messages[k]
	if !ok {
		return string(k)
	}
	if len(args) == 0 {
		return e.format
	}
	return fmt.Sprintf(e.format, args...)
}

// LevelOf returns the flash category of k. Unknown kinds are Info.
func LevelOf(k Kind) Level {
	if e, ok := messages[k]; ok {
		return e.level
	}
	return Info
}

// notices are the texts shown to the profile a notice is about, who was not
// the one acting.
var notices = map[Kind]string{
	RemovedByOther: "You have been removed from the group %s.",
	Confirmed:      "Your request to join %s has been accepted.",
}

// NoticeMessage renders a recorded notice for its recipient. group is the
// group's current name, or "" when the group is gone.
func NoticeMessage(k Kind, group string) string {
	if group == "" {
		group = "(deleted group)"
	}
	if f, ok := notices[k]; ok {
		return fmt.Sprintf(f, group)
	}
	return Message(k, group)
}
