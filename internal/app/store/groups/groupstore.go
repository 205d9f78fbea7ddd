// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/mozillians/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mozillians/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound       = errors.New("group not found")
	ErrDuplicateGroup = errors.New("a group with this name or url already exists")
	errNoURL          = errors.New("group url is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByURL(ctx context.Context, url string) (models.Group, error) {
	return s.findOne(ctx, bson.M{"url": url})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, filter).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}

// Exists reports whether a group with id is present.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts g. The caller chooses the url (see groupaliases.UniqueURL).
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	if strings.TrimSpace(g.URL) == "" {
		return models.Group{}, errNoURL
	}
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.Description = htmlsanitize.Sanitize(g.Description)
	if g.AcceptingNewMembers == "" {
		g.AcceptingNewMembers = models.AcceptingYes
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroup
		}
		return models.Group{}, err
	}
	return g, nil
}

// Update holds the mutable group fields. Nil pointers are left unchanged.
// URL is immutable and deliberately absent.
type Update struct {
	Name                *string
	Description         *string
	IRCChannel          *string
	Website             *string
	Wiki                *string
	AcceptingNewMembers *string
	MembersCanLeave     *bool
	Visible             *bool
	FunctionalArea      *bool
	CuratorID           *primitive.ObjectID
	ClearCurator        bool
}

// Update applies u to the group. Returns ErrNotFound when the group is gone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
		set["name_ci"] = text.Fold(*u.Name)
	}
	if u.Description != nil {
		set["description"] = htmlsanitize.Sanitize(*u.Description)
	}
	if u.IRCChannel != nil {
		set["irc_channel"] = *u.IRCChannel
	}
	if u.Website != nil {
		set["website"] = *u.Website
	}
	if u.Wiki != nil {
		set["wiki"] = *u.Wiki
	}
	if u.AcceptingNewMembers != nil {
		if !models.ValidAccepting(*u.AcceptingNewMembers) {
			return errors.New("accepting_new_members must be yes, no or by_request")
		}
		set["accepting_new_members"] = *u.AcceptingNewMembers
	}
	if u.MembersCanLeave != nil {
		set["members_can_leave"] = *u.MembersCanLeave
	}
	if u.Visible != nil {
		set["visible"] = *u.Visible
	}
	if u.FunctionalArea != nil {
		set["functional_area"] = *u.FunctionalArea
	}
	switch {
	case u.CuratorID != nil:
		set["curator_id"] = *u.CuratorID
	case u.ClearCurator:
		unset["curator_id"] = ""
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	res, err := s.c.UpdateByID(ctx, id, doc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateGroup
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns the groups matching filter ordered by name.
func (s *Store) Find(ctx context.Context, filter bson.M) ([]models.Group, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIDs returns the groups with the given ids, keyed by id.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Group, error) {
	out := make(map[primitive.ObjectID]models.Group, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	groups, err := s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		out[g.ID] = g
	}
	return out, nil
}
