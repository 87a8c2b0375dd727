package models

import (
	"strings"
	"time"
)

// User is a registered bot user tied to a city for targeted broadcasts
type User struct {
	ChatID        int64
	Username      string
	FirstName     string
	City          string
	IsActive      bool
	Notifications bool
	RegisteredAt  time.Time
}

// EntryKind distinguishes catalog entries
type EntryKind string

const (
	EntryChannel EntryKind = "channel"
	EntryGroup   EntryKind = "group"
)

// CatalogEntry is a channel or group submitted by a user for their city
type CatalogEntry struct {
	ID        int64
	Kind      EntryKind
	Name      string
	Link      string
	City      string
	AddedBy   int64
	IsActive  bool
	CreatedAt time.Time
}

// BroadcastTemplate is a reusable, named broadcast message.
// TargetCities is a comma-separated list of city keys; empty means all cities.
type BroadcastTemplate struct {
	ID           int64
	Name         string
	Title        string
	Message      string
	TargetCities string
	CreatedAt    time.Time
}

// CityFilter parses TargetCities into a filter slice.
// Returns nil when the template targets all cities.
func (t BroadcastTemplate) CityFilter() []string {
	if strings.TrimSpace(t.TargetCities) == "" {
		return nil
	}
	var cities []string
	for _, c := range strings.Split(t.TargetCities, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

// Rating is one user's 1-5 score for a broadcast template.
// At most one rating per (user, template) pair; later ratings replace earlier ones.
type Rating struct {
	UserChatID int64
	TemplateID int64
	Value      int
	CreatedAt  time.Time
}

// TargetLocation is an admin-curated external chat for manual outreach posting
type TargetLocation struct {
	ID        int64
	Name      string
	Link      string
	City      string
	IsActive  bool
	CreatedAt time.Time
}

// CommentTemplate is an admin-curated canned outreach message
type CommentTemplate struct {
	ID        int64
	Name      string
	Body      string
	CreatedAt time.Time
}

// CityCount is a per-city aggregate row
type CityCount struct {
	City  string
	Count int
}

// TemplateRatingStat aggregates ratings for one broadcast template
type TemplateRatingStat struct {
	Name     string
	Total    int
	Average  float64
	Positive int
}
