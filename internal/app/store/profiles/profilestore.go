// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("profile not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// Create inserts a profile. Profiles normally arrive from registration; this
// is used by seeding and the identity-provider callback.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.ID = primitive.NewObjectID()
	p.FullName = normalize.Name(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = normalize.Email(p.Email)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, err
	}
	return p, nil
}

// ToggleSkill adds skillID to the profile's skills, or removes it when
// already present. Returns whether the profile has the skill afterwards.
func (s *Store) ToggleSkill(ctx context.Context, profileID, skillID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": profileID, "skill_ids": skillID},
		bson.M{"$pull": bson.M{"skill_ids": skillID}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return false, nil
	}
	res, err = s.c.UpdateOne(ctx,
		bson.M{"_id": profileID},
		bson.M{"$addToSet": bson.M{"skill_ids": skillID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

// HasSkill reports whether the profile subscribes to skillID.
func (s *Store) HasSkill(ctx context.Context, profileID, skillID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": profileID, "skill_ids": skillID}, options.Count().SetLimit(1))
	return n > 0, err
}

// CountVouchedBySkill counts vouched profiles subscribed to skillID.
func (s *Store) CountVouchedBySkill(ctx context.Context, skillID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"skill_ids": skillID, "is_vouched": true})
}

// ListVouchedBySkill returns a page of vouched subscribers ordered by name.
func (s *Store) ListVouchedBySkill(ctx context.Context, skillID primitive.ObjectID, skip, limit int64) ([]models.Profile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"skill_ids": skillID, "is_vouched": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SkillCount is a skill id with the number of profiles holding it.
type SkillCount struct {
	SkillID primitive.ObjectID `bson:"_id"`
	Count   int64              `bson:"n"`
}

// TopSkills counts skills across the given profiles, most common first.
// limit <= 0 returns every skill.
func (s *Store) TopSkills(ctx context.Context, profileIDs []primitive.ObjectID, limit int64) ([]SkillCount, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	pipeline := []bson.M{
		{"$match": bson.M{"_id": bson.M{"$in": profileIDs}}},
		{"$unwind": "$skill_ids"},
		{"$group": bson.M{"_id": "$skill_ids", "n": bson.M{"$sum": 1}}},
		{"$sort": bson.D{{Key: "n", Value: -1}, {Key: "_id", Value: 1}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": limit})
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []SkillCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NamesByIDs maps each found profile id to its full name.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"full_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = p.FullName
	}
	return out, cur.Err()
}
