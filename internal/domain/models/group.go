// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accepting values for Group.AcceptingNewMembers.
const (
	AcceptingYes       = "yes"
	AcceptingNo        = "no"
	AcceptingByRequest = "by_request"
)

// Group is a named collection of profiles.
//
// NOTE:
//   - Members are not embedded on Group. All membership is stored in the
//     group_memberships collection.
//   - URL is the slug; it is unique and never changes once set.
//   - If CuratorID is set, the curator always has a membership row.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	URL         string             `bson:"url" json:"url"`
	Description string             `bson:"description" json:"description"`
	IRCChannel  string             `bson:"irc_channel" json:"irc_channel"`
	Website     string             `bson:"website" json:"website"`
	Wiki        string             `bson:"wiki" json:"wiki"`

	CuratorID *primitive.ObjectID `bson:"curator_id,omitempty" json:"curator_id,omitempty"`

	AcceptingNewMembers string `bson:"accepting_new_members" json:"accepting_new_members"` // yes | no | by_request
	MembersCanLeave     bool   `bson:"members_can_leave" json:"members_can_leave"`
	Visible             bool   `bson:"visible" json:"visible"`
	FunctionalArea      bool   `bson:"functional_area" json:"functional_area"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsCurator reports whether profileID is this group's curator.
func (g Group) IsCurator(profileID primitive.ObjectID) bool {
	return g.CuratorID != nil && *g.CuratorID == profileID
}

// ValidAccepting reports whether v is a known AcceptingNewMembers value.
func ValidAccepting(v string) bool {
	switch v {
	case AcceptingYes, AcceptingNo, AcceptingByRequest:
		return true
	}
	return false
}
