// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the outbox of notices addressed to profiles other than the actor.
// Delivery (email, on-site inbox) reads undelivered rows and marks them.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create records a notice for profileID.
func (s *Store) Create(ctx context.Context, profileID, groupID, actorID primitive.ObjectID, kind string) (models.Notification, error) {
	n := models.Notification{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		GroupID:   groupID,
		ActorID:   actorID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListUndelivered returns profileID's pending notices, oldest first.
func (s *Store) ListUndelivered(ctx context.Context, profileID primitive.ObjectID) ([]models.Notification, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"profile_id": profileID, "delivered": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDelivered flags the given notices as delivered.
func (s *Store) MarkDelivered(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"delivered": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// PurgeDelivered deletes delivered notices created before cutoff.
func (s *Store) PurgeDelivered(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"delivered": true, "created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
