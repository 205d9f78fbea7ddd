// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/mozillians/internal/app/store/audit"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
)

// listItem is one audit event with names resolved for display.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorName  string            `json:"actor,omitempty"`
	TargetName string            `json:"profile,omitempty"`
	GroupName  string            `json:"group,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Details    map[string]string `json:"details,omitempty"`
}

type listData struct {
	Items []listItem `json:"items"`

	Category  string `json:"category,omitempty"`
	EventType string `json:"event_type,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	Categories []categoryOption `json:"categories"`
	EventTypes []string         `json:"event_types"`

	Page paging.Page `json:"page"`
}

type categoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryMembership, Label: "Membership"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
	}
}

// eventTypesForCategory returns the event types for category, or every
// event type when category is empty.
func eventTypesForCategory(category string) []string {
	membershipEvents := []string{
		audit.EventMemberAddedToGroup,
		audit.EventMemberRequested,
		audit.EventMemberRemovedFromGroup,
		audit.EventMemberConfirmed,
	}
	adminEvents := []string{
		audit.EventGroupCreated,
		audit.EventGroupUpdated,
		audit.EventGroupDeleted,
		audit.EventGroupsMerged,
	}

	switch category {
	case audit.CategoryMembership:
		return membershipEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(membershipEvents)+len(adminEvents))
		all = append(all, membershipEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
