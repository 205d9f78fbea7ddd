// internal/app/store/skills/skillstore.go
package skillstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("skill not found")
	ErrDuplicateURL = errors.New("a skill with this url already exists")
	ErrNoSlug       = errors.New("skill name does not produce a url")
)

type Store struct {
	skills   *mongo.Collection
	aliases  *mongo.Collection
	profiles *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		skills:   db.Collection("skills"),
		aliases:  db.Collection("skill_aliases"),
		profiles: db.Collection("profiles"),
	}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Skill, error) {
	var sk models.Skill
	if err := s.skills.FindOne(ctx, bson.M{"_id": id}).Decode(&sk); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Skill{}, ErrNotFound
		}
		return models.Skill{}, err
	}
	return sk, nil
}

// Resolve looks url up in skill_aliases and returns the skill it points to.
// An alias whose skill is gone resolves to ErrNotFound.
func (s *Store) Resolve(ctx context.Context, url string) (models.Skill, error) {
	var a models.SkillAlias
	if err := s.aliases.FindOne(ctx, bson.M{"url": url}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Skill{}, ErrNotFound
		}
		return models.Skill{}, err
	}
	return s.GetByID(ctx, a.AliasOf)
}

// Create inserts a skill and its canonical alias. The url is the slug of the
// name, suffixed with -2, -3 ... when taken.
func (s *Store) Create(ctx context.Context, name, description string) (models.Skill, error) {
	name = normalize.Name(name)
	base := normalize.Slug(name)
	if base == "" {
		return models.Skill{}, ErrNoSlug
	}

	url := base
	for i := 2; ; i++ {
		n, err := s.aliases.CountDocuments(ctx, bson.M{"url": url}, options.Count().SetLimit(1))
		if err != nil {
			return models.Skill{}, err
		}
		if n == 0 {
			break
		}
		if i > 100 {
			return models.Skill{}, ErrDuplicateURL
		}
		url = base + "-" + strconv.Itoa(i)
	}

	sk := models.Skill{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		URL:         url,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.skills.InsertOne(ctx, sk); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Skill{}, ErrDuplicateURL
		}
		return models.Skill{}, err
	}
	alias := models.SkillAlias{ID: primitive.NewObjectID(), AliasOf: sk.ID, Name: sk.Name, URL: sk.URL}
	if _, err := s.aliases.InsertOne(ctx, alias); err != nil {
		_, _ = s.skills.DeleteOne(ctx, bson.M{"_id": sk.ID})
		if wafflemongo.IsDup(err) {
			return models.Skill{}, ErrDuplicateURL
		}
		return models.Skill{}, err
	}
	return sk, nil
}

// ListByIDs returns the skills for ids keyed by id. Missing ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Skill, error) {
	out := make(map[primitive.ObjectID]models.Skill, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.skills.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var sk models.Skill
		if err := cur.Decode(&sk); err != nil {
			return nil, err
		}
		out[sk.ID] = sk
	}
	return out, cur.Err()
}

// IndexItem is one row of the skill index.
type IndexItem struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	URL         string             `bson:"url" json:"url"`
	MemberCount int64              `bson:"member_count" json:"member_count"`
}

// Index lists skills held by at least one vouched profile, with the number of
// vouched holders. Sorted by name, or by member count descending when
// byCount is set. The requested page is clamped to the available range.
func (s *Store) Index(ctx context.Context, byCount bool, requested, size int) ([]IndexItem, paging.Page, error) {
	base := []bson.M{
		{"$match": bson.M{"is_vouched": true}},
		{"$unwind": "$skill_ids"},
		{"$group": bson.M{"_id": "$skill_ids", "member_count": bson.M{"$sum": 1}}},
		{"$lookup": bson.M{
			"from":         "skills",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "skill",
		}},
		{"$unwind": "$skill"},
	}

	total, err := countPipeline(ctx, s.profiles, base)
	if err != nil {
		return nil, paging.Page{}, err
	}
	pg := paging.Compute(requested, total, size)

	sort := bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}
	if byCount {
		sort = bson.D{{Key: "member_count", Value: -1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}
	}
	pipe := append(append([]bson.M{}, base...),
		bson.M{"$project": bson.M{
			"_id":          1,
			"member_count": 1,
			"name":         "$skill.name",
			"name_ci":      "$skill.name_ci",
			"url":          "$skill.url",
		}},
		bson.M{"$sort": sort},
		bson.M{"$skip": pg.Skip()},
		bson.M{"$limit": pg.Limit()},
	)

	cur, err := s.profiles.Aggregate(ctx, pipe)
	if err != nil {
		return nil, paging.Page{}, err
	}
	defer cur.Close(ctx)

	var out []IndexItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Page{}, err
	}
	return out, pg, nil
}

func countPipeline(ctx context.Context, c *mongo.Collection, base []bson.M) (int64, error) {
	pipe := append(append([]bson.M{}, base...), bson.M{"$count": "count"})
	cur, err := c.Aggregate(ctx, pipe)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var row struct {
		Count int64 `bson:"count"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.Count, cur.Err()
}
