package stubs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"outreach/internal/models"
	"outreach/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
// and for running the bot without a database (USE_MOCK_DB mode).
type MockDB struct {
	mu        sync.RWMutex
	users     map[int64]models.User
	entries   map[int64]models.CatalogEntry
	templates map[int64]models.BroadcastTemplate
	ratings   map[[2]int64]models.Rating
	locations map[int64]models.TargetLocation
	comments  map[int64]models.CommentTemplate
	nextID    int64
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		users:     make(map[int64]models.User),
		entries:   make(map[int64]models.CatalogEntry),
		templates: make(map[int64]models.BroadcastTemplate),
		ratings:   make(map[[2]int64]models.Rating),
		locations: make(map[int64]models.TargetLocation),
		comments:  make(map[int64]models.CommentTemplate),
	}
}

// Initialize does nothing - the mock starts empty
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockDB) allocID() int64 {
	m.nextID++
	return m.nextID
}

// UpsertUser inserts or refreshes a user keyed by chat id
func (m *MockDB) UpsertUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[user.ChatID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.City = user.City
		m.users[user.ChatID] = existing
		return nil
	}

	user.IsActive = true
	user.Notifications = true
	user.RegisteredAt = time.Now()
	m.users[user.ChatID] = user
	return nil
}

// GetUser returns a user by chat id
func (m *MockDB) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[chatID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

// SetNotifications toggles notifications for a user
func (m *MockDB) SetNotifications(ctx context.Context, chatID int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[chatID]
	if !ok {
		return storage.ErrNotFound
	}
	user.Notifications = enabled
	m.users[chatID] = user
	return nil
}

// ListRecipients returns active users with notifications enabled, optionally
// filtered by city (case-insensitive)
func (m *MockDB) ListRecipients(ctx context.Context, cities []string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(cities))
	for _, c := range cities {
		wanted[strings.ToLower(c)] = true
	}

	var users []models.User
	for _, user := range m.users {
		if !user.IsActive || !user.Notifications {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(user.City)] {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ChatID < users[j].ChatID
	})
	return users, nil
}

// CountUsersByCity returns active user counts per city
func (m *MockDB) CountUsersByCity(ctx context.Context) ([]models.CityCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, user := range m.users {
		if user.IsActive {
			counts[user.City]++
		}
	}
	return sortedCityCounts(counts), nil
}

// CreateCatalogEntry stores a channel or group entry
func (m *MockDB) CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = m.allocID()
	entry.IsActive = true
	entry.CreatedAt = time.Now()
	m.entries[entry.ID] = entry
	return entry.ID, nil
}

// ListCatalogEntriesByOwner returns a user's own entries of one kind
func (m *MockDB) ListCatalogEntriesByOwner(ctx context.Context, kind models.EntryKind, ownerID int64) ([]models.CatalogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.CatalogEntry
	for _, entry := range m.entries {
		if entry.Kind == kind && entry.AddedBy == ownerID && entry.IsActive {
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries, nil
}

// ListCatalogEntriesByCity returns entries of one kind for a city
func (m *MockDB) ListCatalogEntriesByCity(ctx context.Context, kind models.EntryKind, city string) ([]models.CatalogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.CatalogEntry
	for _, entry := range m.entries {
		if entry.Kind == kind && entry.City == city && entry.IsActive {
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries, nil
}

// CountCatalogEntriesByCity returns entry counts of one kind per city
func (m *MockDB) CountCatalogEntriesByCity(ctx context.Context, kind models.EntryKind) ([]models.CityCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, entry := range m.entries {
		if entry.Kind == kind && entry.IsActive {
			counts[entry.City]++
		}
	}
	return sortedCityCounts(counts), nil
}

// DeleteCatalogEntry deletes an entry only when the owner matches
func (m *MockDB) DeleteCatalogEntry(ctx context.Context, id, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok || entry.AddedBy != ownerID {
		return storage.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// templateNameTaken reports whether another template already uses the name.
func (m *MockDB) templateNameTaken(name string, excludeID int64) bool {
	for id, tpl := range m.templates {
		if id != excludeID && tpl.Name == name {
			return true
		}
	}
	return false
}

// commentNameTaken reports whether another comment template already uses the name.
func (m *MockDB) commentNameTaken(name string, excludeID int64) bool {
	for id, ct := range m.comments {
		if id != excludeID && ct.Name == name {
			return true
		}
	}
	return false
}

// CreateTemplate stores a broadcast template; names are unique
func (m *MockDB) CreateTemplate(ctx context.Context, tpl models.BroadcastTemplate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.templateNameTaken(tpl.Name, 0) {
		return 0, storage.ErrDuplicateName
	}

	tpl.ID = m.allocID()
	tpl.CreatedAt = time.Now()
	m.templates[tpl.ID] = tpl
	return tpl.ID, nil
}

// UpdateTemplate rewrites a template by id
func (m *MockDB) UpdateTemplate(ctx context.Context, tpl models.BroadcastTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.templates[tpl.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if m.templateNameTaken(tpl.Name, tpl.ID) {
		return storage.ErrDuplicateName
	}
	tpl.CreatedAt = existing.CreatedAt
	m.templates[tpl.ID] = tpl
	return nil
}

// DeleteTemplate removes a template and its ratings
func (m *MockDB) DeleteTemplate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.templates, id)
	for key := range m.ratings {
		if key[1] == id {
			delete(m.ratings, key)
		}
	}
	return nil
}

// GetTemplate returns a template by id
func (m *MockDB) GetTemplate(ctx context.Context, id int64) (*models.BroadcastTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tpl, ok := m.templates[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &tpl, nil
}

// ListTemplates returns all templates, newest first
func (m *MockDB) ListTemplates(ctx context.Context) ([]models.BroadcastTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tpls []models.BroadcastTemplate
	for _, tpl := range m.templates {
		tpls = append(tpls, tpl)
	}
	sort.Slice(tpls, func(i, j int) bool {
		return tpls[i].ID > tpls[j].ID
	})
	return tpls, nil
}

// UpsertRating stores a rating, replacing a previous one for the same pair
func (m *MockDB) UpsertRating(ctx context.Context, rating models.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]int64{rating.UserChatID, rating.TemplateID}
	if existing, ok := m.ratings[key]; ok {
		existing.Value = rating.Value
		m.ratings[key] = existing
		return nil
	}
	rating.CreatedAt = time.Now()
	m.ratings[key] = rating
	return nil
}

// TemplateRatingStats aggregates ratings per template
func (m *MockDB) TemplateRatingStats(ctx context.Context) ([]models.TemplateRatingStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		total    int
		sum      int
		positive int
	}
	aggs := make(map[int64]*agg)
	for _, rating := range m.ratings {
		a, ok := aggs[rating.TemplateID]
		if !ok {
			a = &agg{}
			aggs[rating.TemplateID] = a
		}
		a.total++
		a.sum += rating.Value
		if rating.Value >= 4 {
			a.positive++
		}
	}

	var stats []models.TemplateRatingStat
	for id, tpl := range m.templates {
		stat := models.TemplateRatingStat{Name: tpl.Name}
		if a, ok := aggs[id]; ok {
			stat.Total = a.total
			stat.Average = float64(a.sum) / float64(a.total)
			stat.Positive = a.positive
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Average != stats[j].Average {
			return stats[i].Average > stats[j].Average
		}
		return stats[i].Name < stats[j].Name
	})
	return stats, nil
}

// CreateLocation stores a target location
func (m *MockDB) CreateLocation(ctx context.Context, loc models.TargetLocation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc.ID = m.allocID()
	loc.IsActive = true
	loc.CreatedAt = time.Now()
	m.locations[loc.ID] = loc
	return loc.ID, nil
}

// UpdateLocation rewrites a target location by id
func (m *MockDB) UpdateLocation(ctx context.Context, loc models.TargetLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locations[loc.ID]
	if !ok {
		return storage.ErrNotFound
	}
	loc.IsActive = existing.IsActive
	loc.CreatedAt = existing.CreatedAt
	m.locations[loc.ID] = loc
	return nil
}

// DeleteLocation removes a target location
func (m *MockDB) DeleteLocation(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.locations[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

// GetLocation returns a target location by id
func (m *MockDB) GetLocation(ctx context.Context, id int64) (*models.TargetLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loc, ok := m.locations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &loc, nil
}

// ListLocations returns all active target locations sorted by name
func (m *MockDB) ListLocations(ctx context.Context) ([]models.TargetLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var locs []models.TargetLocation
	for _, loc := range m.locations {
		if loc.IsActive {
			locs = append(locs, loc)
		}
	}
	sort.Slice(locs, func(i, j int) bool {
		return locs[i].Name < locs[j].Name
	})
	return locs, nil
}

// CreateCommentTemplate stores a comment template; names are unique
func (m *MockDB) CreateCommentTemplate(ctx context.Context, ct models.CommentTemplate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commentNameTaken(ct.Name, 0) {
		return 0, storage.ErrDuplicateName
	}

	ct.ID = m.allocID()
	ct.CreatedAt = time.Now()
	m.comments[ct.ID] = ct
	return ct.ID, nil
}

// UpdateCommentTemplate rewrites a comment template by id
func (m *MockDB) UpdateCommentTemplate(ctx context.Context, ct models.CommentTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.comments[ct.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if m.commentNameTaken(ct.Name, ct.ID) {
		return storage.ErrDuplicateName
	}
	ct.CreatedAt = existing.CreatedAt
	m.comments[ct.ID] = ct
	return nil
}

// DeleteCommentTemplate removes a comment template
func (m *MockDB) DeleteCommentTemplate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

// GetCommentTemplate returns a comment template by id
func (m *MockDB) GetCommentTemplate(ctx context.Context, id int64) (*models.CommentTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ct, ok := m.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &ct, nil
}

// ListCommentTemplates returns all comment templates, newest first
func (m *MockDB) ListCommentTemplates(ctx context.Context) ([]models.CommentTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cts []models.CommentTemplate
	for _, ct := range m.comments {
		cts = append(cts, ct)
	}
	sort.Slice(cts, func(i, j int) bool {
		return cts[i].ID > cts[j].ID
	})
	return cts, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func sortEntries(entries []models.CatalogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}

func sortedCityCounts(counts map[string]int) []models.CityCount {
	result := make([]models.CityCount, 0, len(counts))
	for city, count := range counts {
		result = append(result, models.CityCount{City: city, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].City < result[j].City
	})
	return result
}
