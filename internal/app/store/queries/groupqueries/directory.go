// Package groupqueries provides read-only directory queries for groups.
package groupqueries

import (
	"context"

	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sort orders for directory listings.
const (
	SortName        = "name"
	SortMemberCount = "-member_count"
)

// ValidSort reports whether s is a known sort order.
func ValidSort(s string) bool {
	return s == SortName || s == SortMemberCount
}

// DirectoryItem is one group in a public listing.
type DirectoryItem struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	URL         string             `bson:"url" json:"url"`
	MemberCount int64              `bson:"member_count" json:"member_count"`
}

// DirectoryResult is one page of a listing.
type DirectoryResult struct {
	Items []DirectoryItem `json:"groups"`
	Page  paging.Page     `json:"page"`
}

// DirectoryFilter selects the listing.
//
// FunctionalArea picks the functional-area index instead of the ordinary group
// index. The ordinary index only shows groups with at least one vouched member;
// functional areas are listed regardless.
type DirectoryFilter struct {
	FunctionalArea bool
	Sort           string
}

// ListDirectory returns a page of visible groups with their vouched member
// counts. The requested page is clamped to the available range.
func ListDirectory(ctx context.Context, db *mongo.Database, filter DirectoryFilter, requested, size int) (DirectoryResult, error) {
	var result DirectoryResult
	c := db.Collection("groups")

	base := basePipeline(filter)

	total, err := count(ctx, c, base)
	if err != nil {
		return result, err
	}
	result.Page = paging.Compute(requested, total, size)

	sort := bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}
	if filter.Sort == SortMemberCount {
		sort = bson.D{{Key: "member_count", Value: -1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}
	}
	pipe := append(append([]bson.M{}, base...),
		bson.M{"$sort": sort},
		bson.M{"$skip": result.Page.Skip()},
		bson.M{"$limit": result.Page.Limit()},
		bson.M{"$project": bson.M{"_id": 1, "name": 1, "url": 1, "member_count": 1}},
	)

	cur, err := c.Aggregate(ctx, pipe)
	if err != nil {
		return result, err
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &result.Items); err != nil {
		return result, err
	}
	if result.Items == nil {
		result.Items = []DirectoryItem{}
	}
	return result, nil
}

// basePipeline matches the groups and computes member_count as the number of
// vouched profiles with a member (not pending) row.
func basePipeline(filter DirectoryFilter) []bson.M {
	pipeline := []bson.M{
		{"$match": bson.M{"visible": true, "functional_area": filter.FunctionalArea}},
		{"$lookup": bson.M{
			"from": "group_memberships",
			"let":  bson.M{"gid": "$_id"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$and": []bson.M{
					{"$eq": []string{"$group_id", "$$gid"}},
					{"$eq": []string{"$status", string(models.StatusMember)}},
				}}}},
				{"$lookup": bson.M{
					"from":         "profiles",
					"localField":   "profile_id",
					"foreignField": "_id",
					"as":           "p",
				}},
				{"$match": bson.M{"p.is_vouched": true}},
				{"$count": "count"},
			},
			"as": "vouched",
		}},
		{"$addFields": bson.M{
			"member_count": bson.M{"$ifNull": []interface{}{
				bson.M{"$arrayElemAt": []interface{}{"$vouched.count", 0}},
				0,
			}},
		}},
	}
	if !filter.FunctionalArea {
		pipeline = append(pipeline, bson.M{"$match": bson.M{"member_count": bson.M{"$gt": 0}}})
	}
	return pipeline
}

func count(ctx context.Context, c *mongo.Collection, base []bson.M) (int64, error) {
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
