// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	"github.com/dalemusser/mozillians/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c        *mongo.Collection
	profiles *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("group_memberships"),
		profiles: db.Collection("profiles"),
	}
}

var (
	ErrDuplicateMembership = errors.New("profile is already a member of this group")
	ErrNotFound            = errors.New("membership not found")
	errBadStatus           = errors.New(`status must be "member" or "pending"`)
)

// Get returns the (group, profile) row, or nil when there is none.
func (s *Store) Get(ctx context.Context, groupID, profileID primitive.ObjectID) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "profile_id": profileID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Add inserts a new row. A row that already exists (including one inserted
// concurrently) yields ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) (models.GroupMembership, error) {
	if !status.Valid() {
		return models.GroupMembership{}, errBadStatus
	}
	now := time.Now().UTC()
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		ProfileID: profileID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrDuplicateMembership
		}
		return models.GroupMembership{}, err
	}
	return m, nil
}

// Upsert sets the row's status, creating the row if needed.
func (s *Store) Upsert(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) error {
	if !status.Valid() {
		return errBadStatus
	}
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "profile_id": profileID},
		bson.M{
			"$set":         bson.M{"status": status, "updated_at": now},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
		},
		options.Update().SetUpsert(true))
	if err != nil && wafflemongo.IsDup(err) {
		// Lost an upsert race: the row now exists, so update it in place.
		_, err = s.c.UpdateOne(ctx,
			bson.M{"group_id": groupID, "profile_id": profileID},
			bson.M{"$set": bson.M{"status": status, "updated_at": now}})
	}
	return err
}

// SetStatus changes an existing row's status. Returns ErrNotFound when the
// row does not exist.
func (s *Store) SetStatus(ctx context.Context, groupID, profileID primitive.ObjectID, status models.MembershipStatus) error {
	if !status.Valid() {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "profile_id": profileID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the (group, profile) row. Removing a missing row is not an
// error; the returned count says whether anything was deleted.
func (s *Store) Remove(ctx context.Context, groupID, profileID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "profile_id": profileID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByGroup removes all memberships for a group.
// Returns the number of documents deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByStatus returns the number of rows per status for a group. Both
// statuses are always present in the map.
func (s *Store) CountByStatus(ctx context.Context, groupID primitive.ObjectID) (map[models.MembershipStatus]int64, error) {
	out := map[models.MembershipStatus]int64{
		models.StatusMember:  0,
		models.StatusPending: 0,
	}
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"group_id": groupID}},
		{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Status models.MembershipStatus `bson:"_id"`
			N      int64                   `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

// filterQuery expresses grouppolicy.Filter as a query on one group's rows.
func filterQuery(groupID primitive.ObjectID, f grouppolicy.Filter) bson.M {
	q := bson.M{"group_id": groupID}
	var byStatus bson.M
	if len(f.Statuses) > 0 {
		byStatus = bson.M{"status": bson.M{"$in": f.Statuses}}
	}
	switch {
	case byStatus != nil && f.OrProfileID != nil:
		q["$or"] = []bson.M{byStatus, {"profile_id": *f.OrProfileID}}
	case byStatus != nil:
		q["status"] = byStatus["status"]
	}
	return q
}

// ProfileIDs returns the profile ids of every row visible through f.
func (s *Store) ProfileIDs(ctx context.Context, groupID primitive.ObjectID, f grouppolicy.Filter) ([]primitive.ObjectID, error) {
	vals, err := s.c.Distinct(ctx, "profile_id", filterQuery(groupID, f))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MemberRow is a membership joined with the profile it belongs to.
type MemberRow struct {
	ProfileID primitive.ObjectID      `bson:"profile_id" json:"profile_id"`
	FullName  string                  `bson:"full_name" json:"full_name"`
	IsVouched bool                    `bson:"is_vouched" json:"is_vouched"`
	Status    models.MembershipStatus `bson:"status" json:"status"`
}

// Count returns the number of rows visible through f.
func (s *Store) Count(ctx context.Context, groupID primitive.ObjectID, f grouppolicy.Filter) (int64, error) {
	return s.c.CountDocuments(ctx, filterQuery(groupID, f))
}

// List returns the rows visible through f, joined with profile names and
// ordered by name. skip/limit page the result; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, groupID primitive.ObjectID, f grouppolicy.Filter, skip, limit int64) ([]MemberRow, error) {
	pipeline := []bson.M{
		{"$match": filterQuery(groupID, f)},
		{"$lookup": bson.M{
			"from":         s.profiles.Name(),
			"localField":   "profile_id",
			"foreignField": "_id",
			"as":           "p",
		}},
		{"$unwind": "$p"},
		{"$project": bson.M{
			"profile_id":   1,
			"status":       1,
			"full_name":    "$p.full_name",
			"full_name_ci": "$p.full_name_ci",
			"is_vouched":   "$p.is_vouched",
		}},
		{"$sort": bson.D{{Key: "full_name_ci", Value: 1}, {Key: "profile_id", Value: 1}}},
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.M{"$skip": skip})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": limit})
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []MemberRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByGroup returns the raw rows of a group, optionally restricted to one
// status (empty means all).
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, status models.MembershipStatus) ([]models.GroupMembership, error) {
	filter := bson.M{"group_id": groupID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListGroupIDsForProfile returns the groups the profile belongs to with the
// given status.
func (s *Store) ListGroupIDsForProfile(ctx context.Context, profileID primitive.ObjectID, status models.MembershipStatus) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"profile_id": profileID, "status": status},
		options.Find().SetProjection(bson.M{"group_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			GroupID primitive.ObjectID `bson:"group_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.GroupID)
	}
	return ids, cur.Err()
}

// GroupCounts holds per-group membership totals. Pending requests count,
// the same way DeleteGroup counts them toward the sole-member rule.
type GroupCounts struct {
	Members int64 `bson:"members" json:"member_count"`
	Vouched int64 `bson:"vouched" json:"vouched_member_count"`
}

// CountsByGroups computes member and vouched-member counts for every id in
// one grouped aggregation. Rows of every status are counted; every
// requested id is present in the result, zero-filled.
func (s *Store) CountsByGroups(ctx context.Context, groupIDs []primitive.ObjectID) (map[primitive.ObjectID]GroupCounts, error) {
	out := make(map[primitive.ObjectID]GroupCounts, len(groupIDs))
	if len(groupIDs) == 0 {
		return out, nil
	}
	for _, id := range groupIDs {
		out[id] = GroupCounts{}
	}

	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"group_id": bson.M{"$in": groupIDs}}},
		{"$lookup": bson.M{
			"from":         s.profiles.Name(),
			"localField":   "profile_id",
			"foreignField": "_id",
			"as":           "p",
		}},
		{"$group": bson.M{
			"_id":     "$group_id",
			"members": bson.M{"$sum": 1},
			"vouched": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$in": bson.A{true, "$p.is_vouched"}}, 1, 0},
			}},
		}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			GroupCounts `bson:",inline"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.GroupCounts
	}
	return out, cur.Err()
}

// MoveAll re-homes every row of from onto to. Where the profile already has
// a row in to, the stronger status wins (member beats pending). Rows of from
// are deleted.
func (s *Store) MoveAll(ctx context.Context, from, to primitive.ObjectID) error {
	rows, err := s.ListByGroup(ctx, from, "")
	if err != nil {
		return err
	}
	for _, m := range rows {
		existing, err := s.Get(ctx, to, m.ProfileID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			if err := s.Upsert(ctx, to, m.ProfileID, m.Status); err != nil {
				return err
			}
		case existing.Status == models.StatusPending && m.Status == models.StatusMember:
			if err := s.SetStatus(ctx, to, m.ProfileID, models.StatusMember); err != nil {
				return err
			}
		}
	}
	_, err = s.DeleteByGroup(ctx, from)
	return err
}
