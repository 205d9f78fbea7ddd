// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile identifies a person in the directory.
//
// Profiles are created by registration (outside this app); here they are
// read-only apart from skill subscriptions.
type Profile struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FullName    string               `bson:"full_name" json:"full_name"`
	FullNameCI  string               `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email       string               `bson:"email" json:"email"`
	IsVouched   bool                 `bson:"is_vouched" json:"is_vouched"`
	IsSuperuser bool                 `bson:"is_superuser" json:"-"`
	SkillIDs    []primitive.ObjectID `bson:"skill_ids,omitempty" json:"skill_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
