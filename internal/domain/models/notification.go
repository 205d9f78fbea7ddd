package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an outbox record of something that happened to a profile
// while they were not the one acting (e.g. removed from a group by its curator).
type Notification struct {
	ID        string             `bson:"_id" json:"id"` // uuid
	ProfileID primitive.ObjectID `bson:"profile_id" json:"profile_id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	ActorID   primitive.ObjectID `bson:"actor_id" json:"actor_id"`
	Kind      string             `bson:"kind" json:"kind"`
	Delivered bool               `bson:"delivered" json:"delivered"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
