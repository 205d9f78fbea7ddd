package groupqueries

import (
	"cmp"
	"context"
	"regexp"
	"sort"
	"strings"

	membershipstore "github.com/dalemusser/mozillians/internal/app/store/memberships"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Admin changelist predicates. Each takes a tri-state: unset, yes or no.
const (
	PredEmptyGroup     = "empty_group"
	PredCurated        = "curated"
	PredFunctionalArea = "functional_area"
	PredVisible        = "visible"
	PredEmptyURL       = "empty_url"
)

// Predicates lists the changelist predicates in display order.
var Predicates = []string{PredEmptyGroup, PredCurated, PredFunctionalArea, PredVisible, PredEmptyURL}

// Admin changelist orderings. A leading "-" reverses.
const (
	AdminSortName    = "name"
	AdminSortMembers = "member_count"
	AdminSortVouched = "vouched_member_count"
)

// AdminFilter selects and orders the changelist.
//
// Search matches group name or url, and AliasGroupIDs (from the alias
// search) are admitted as well. Flags maps a predicate to true (yes) or
// false (no); absent predicates do not filter.
type AdminFilter struct {
	Search        string
	AliasGroupIDs []primitive.ObjectID
	Flags         map[string]bool
	Sort          string
}

// AdminItem is one changelist row.
type AdminItem struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"-"`
	URL            string              `bson:"url" json:"url"`
	CuratorID      *primitive.ObjectID `bson:"curator_id" json:"curator_id,omitempty"`
	FunctionalArea bool                `bson:"functional_area" json:"functional_area"`
	Visible        bool                `bson:"visible" json:"visible"`
	MemberCount    int64               `bson:"-" json:"member_count"`
	VouchedCount   int64               `bson:"-" json:"vouched_member_count"`
}

// AdminResult is one page of the changelist.
type AdminResult struct {
	Items []AdminItem `json:"groups"`
	Page  paging.Page `json:"page"`
}

// ValidAdminSort reports whether s is a known changelist ordering.
func ValidAdminSort(s string) bool {
	switch s {
	case AdminSortName, "-" + AdminSortName,
		AdminSortMembers, "-" + AdminSortMembers,
		AdminSortVouched, "-" + AdminSortVouched:
		return true
	}
	return false
}

// ListAdmin runs the changelist in two phases: the field predicates and the
// search select the groups, then one grouped aggregation counts members and
// vouched members for all of them. empty_group and the count orderings are
// applied to that result before paging.
func ListAdmin(ctx context.Context, db *mongo.Database, f AdminFilter, requested, size int) (AdminResult, error) {
	var result AdminResult

	cur, err := db.Collection("groups").Find(ctx, adminMatch(f), options.Find().
		SetProjection(bson.M{"name": 1, "name_ci": 1, "url": 1, "curator_id": 1, "functional_area": 1, "visible": 1}))
	if err != nil {
		return result, err
	}
	var items []AdminItem
	if err := cur.All(ctx, &items); err != nil {
		return result, err
	}

	ids := make([]primitive.ObjectID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	counts, err := membershipstore.New(db).CountsByGroups(ctx, ids)
	if err != nil {
		return result, err
	}

	kept := items[:0]
	for _, it := range items {
		c := counts[it.ID]
		it.MemberCount, it.VouchedCount = c.Members, c.Vouched
		if want, ok := f.Flags[PredEmptyGroup]; ok && (it.MemberCount == 0) != want {
			continue
		}
		kept = append(kept, it)
	}
	SortAdmin(kept, f.Sort)

	result.Page = paging.Compute(requested, int64(len(kept)), size)
	lo := int(result.Page.Skip())
	hi := lo + int(result.Page.Limit())
	if lo > len(kept) {
		lo = len(kept)
	}
	if hi > len(kept) {
		hi = len(kept)
	}
	result.Items = append([]AdminItem{}, kept[lo:hi]...)
	return result, nil
}

// adminMatch builds the phase-one query from the search and the field predicates.
func adminMatch(f AdminFilter) bson.M {
	and := []bson.M{}
	if f.Search != "" {
		pat := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := []bson.M{{"name": pat}, {"url": pat}}
		if len(f.AliasGroupIDs) > 0 {
			or = append(or, bson.M{"_id": bson.M{"$in": f.AliasGroupIDs}})
		}
		and = append(and, bson.M{"$or": or})
	}
	if want, ok := f.Flags[PredCurated]; ok {
		if want {
			and = append(and, bson.M{"curator_id": bson.M{"$type": "objectId"}})
		} else {
			and = append(and, bson.M{"curator_id": bson.M{"$not": bson.M{"$type": "objectId"}}})
		}
	}
	if want, ok := f.Flags[PredFunctionalArea]; ok {
		and = append(and, bson.M{"functional_area": want})
	}
	if want, ok := f.Flags[PredVisible]; ok {
		and = append(and, bson.M{"visible": want})
	}
	if want, ok := f.Flags[PredEmptyURL]; ok {
		if want {
			and = append(and, bson.M{"url": bson.M{"$in": bson.A{"", nil}}})
		} else {
			and = append(and, bson.M{"url": bson.M{"$nin": bson.A{"", nil}}})
		}
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// SortAdmin orders items in place by the changelist ordering s. Ties fall
// back to the folded name, then the id. Unknown orderings sort by name.
func SortAdmin(items []AdminItem, s string) {
	if !ValidAdminSort(s) {
		s = AdminSortName
	}
	key, desc := strings.TrimPrefix(s, "-"), strings.HasPrefix(s, "-")
	name := func(it AdminItem) string {
		if it.NameCI != "" {
			return it.NameCI
		}
		return text.Fold(it.Name)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch key {
		case AdminSortMembers:
			c = cmp.Compare(a.MemberCount, b.MemberCount)
		case AdminSortVouched:
			c = cmp.Compare(a.VouchedCount, b.VouchedCount)
		default:
			c = cmp.Compare(name(a), name(b))
		}
		if c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		if c = cmp.Compare(name(a), name(b)); c != 0 {
			return c < 0
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}
