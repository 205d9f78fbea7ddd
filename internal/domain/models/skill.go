package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Skill is a self-service tag. Profiles subscribe by adding the skill id to
// Profile.SkillIDs; there is no moderation.
type Skill struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	URL         string             `bson:"url" json:"url"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// SkillAlias mirrors GroupAlias for skills.
type SkillAlias struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	AliasOf primitive.ObjectID `bson:"alias_of" json:"alias_of"`
	Name    string             `bson:"name" json:"name"`
	URL     string             `bson:"url" json:"url"`
}
