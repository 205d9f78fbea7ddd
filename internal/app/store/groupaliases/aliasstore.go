// internal/app/store/groupaliases/aliasstore.go
package groupaliasstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dalemusser/mozillians/internal/app/system/normalize"
	"github.com/dalemusser/mozillians/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxSlugAttempts bounds the "-2", "-3"... suffix search in UniqueURL.
const maxSlugAttempts = 100

var (
	ErrNotFound     = errors.New("group alias not found")
	ErrDuplicateURL = errors.New("a group alias with this url already exists")
	ErrNoSlug       = errors.New("name does not produce a usable url")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_aliases")}
}

// Create inserts an alias pointing at groupID.
func (s *Store) Create(ctx context.Context, groupID primitive.ObjectID, name, url string) (models.GroupAlias, error) {
	a := models.GroupAlias{
		ID:      primitive.NewObjectID(),
		AliasOf: groupID,
		Name:    name,
		NameCI:  text.Fold(name),
		URL:     url,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupAlias{}, ErrDuplicateURL
		}
		return models.GroupAlias{}, err
	}
	return a, nil
}

// Resolve finds the alias for url. The caller still loads the group: an
// alias left behind by a deleted group resolves to a missing group.
func (s *Store) Resolve(ctx context.Context, url string) (models.GroupAlias, error) {
	var a models.GroupAlias
	if err := s.c.FindOne(ctx, bson.M{"url": url}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupAlias{}, ErrNotFound
		}
		return models.GroupAlias{}, err
	}
	return a, nil
}

// UniqueURL derives a url from name that no alias uses yet: the slug itself,
// then slug-2, slug-3 and so on.
func (s *Store) UniqueURL(ctx context.Context, name string) (string, error) {
	base := normalize.Slug(name)
	if base == "" {
		return "", ErrNoSlug
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		n, err := s.c.CountDocuments(ctx, bson.M{"url": candidate}, options.Count().SetLimit(1))
		if err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free url for %q after %d attempts", base, maxSlugAttempts)
}

// Repoint moves every alias of from onto to (used when merging groups).
func (s *Store) Repoint(ctx context.Context, from, to primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"alias_of": from}, bson.M{"$set": bson.M{"alias_of": to}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteByGroup removes every alias of a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"alias_of": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByGroup returns a group's aliases ordered by url.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupAlias, error) {
	cur, err := s.c.Find(ctx, bson.M{"alias_of": groupID}, options.Find().SetSort(bson.D{{Key: "url", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupAlias
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchGroupIDs returns the distinct group ids whose alias name or url
// contains q (case-insensitive). Duplicates are collapsed here so callers
// never count a group twice.
func (s *Store) SearchGroupIDs(ctx context.Context, q string) ([]primitive.ObjectID, error) {
	if q == "" {
		return nil, nil
	}
	pat := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	raw, err := s.c.Distinct(ctx, "alias_of", bson.M{"$or": []bson.M{
		{"name": pat},
		{"url": pat},
	}})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
