// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/mozillians/internal/app/store/audit"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit: the audit trail, newest first, with
// category, event type, group and date filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	startDate := strings.TrimSpace(q.Get("start_date"))
	endDate := strings.TrimSpace(q.Get("end_date"))

	filter := audit.QueryFilter{Category: category, EventType: eventType}
	if gid, err := primitive.ObjectIDFromHex(strings.TrimSpace(q.Get("group"))); err == nil {
		filter.GroupID = &gid
	}
	if startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit count failed", err, "A database error occurred.", "/groups/")
		return
	}
	page := paging.Compute(paging.ParsePage(r), total, pageSize)
	filter.Offset = page.Skip()
	filter.Limit = page.Limit()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit query failed", err, "A database error occurred.", "/groups/")
		return
	}

	profileNames, groupNames := h.resolveNames(ctx, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = nameOr(profileNames, *e.ActorID)
		}
		if e.ProfileID != nil {
			item.TargetName = nameOr(profileNames, *e.ProfileID)
		}
		if e.GroupID != nil {
			item.GroupName = nameOr(groupNames, *e.GroupID)
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(listData{
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
	})
}

// resolveNames batch-loads display names for the events' profiles and groups.
// Lookup failures degrade to showing ids.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) (profiles, groups map[primitive.ObjectID]string) {
	pset := make(map[primitive.ObjectID]struct{})
	gset := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			pset[*e.ActorID] = struct{}{}
		}
		if e.ProfileID != nil {
			pset[*e.ProfileID] = struct{}{}
		}
		if e.GroupID != nil {
			gset[*e.GroupID] = struct{}{}
		}
	}

	profiles, err := h.Profiles.NamesByIDs(ctx, keys(pset))
	if err != nil {
		h.Log.Warn("failed to fetch profile names for audit log", zap.Error(err))
		profiles = map[primitive.ObjectID]string{}
	}

	groups = make(map[primitive.ObjectID]string, len(gset))
	found, err := h.Groups.ListByIDs(ctx, keys(gset))
	if err != nil {
		h.Log.Warn("failed to fetch group names for audit log", zap.Error(err))
	}
	for id, g := range found {
		groups[id] = g.Name
	}
	return profiles, groups
}

func keys(set map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id.Hex()
}
