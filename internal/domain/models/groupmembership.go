// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipStatus is the state of a GroupMembership row.
type MembershipStatus string

const (
	StatusMember  MembershipStatus = "member"
	StatusPending MembershipStatus = "pending"
)

// Valid reports whether s is a known status.
func (s MembershipStatus) Valid() bool {
	return s == StatusMember || s == StatusPending
}

// GroupMembership is the authoritative join between profiles and groups.
// Exactly one document per (group_id, profile_id).
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	ProfileID primitive.ObjectID `bson:"profile_id" json:"profile_id"`
	Status    MembershipStatus   `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
