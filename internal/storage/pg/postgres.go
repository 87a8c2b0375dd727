package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"outreach/internal/models"
	"outreach/internal/storage"
)

// PostgresDB implements storage.Storage on top of PostgreSQL via lib/pq.
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB opens a connection pool and verifies it with a ping.
func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDB{db: db}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (p *PostgresDB) Initialize(ctx context.Context) error {
	// Tables are managed via goose migrations (see migrations/ directory)
	return nil
}

// UpsertUser inserts a user or refreshes username, first name and city
// for an already registered chat id.
func (p *PostgresDB) UpsertUser(ctx context.Context, user models.User) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, username, first_name, city)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			city = EXCLUDED.city`,
		user.ChatID, user.Username, user.FirstName, user.City)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser returns the user for a chat id, or storage.ErrNotFound.
func (p *PostgresDB) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT chat_id, username, first_name, city, is_active, notifications, registration_date
		FROM users WHERE chat_id = $1`, chatID).
		Scan(&user.ChatID, &user.Username, &user.FirstName, &user.City,
			&user.IsActive, &user.Notifications, &user.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetNotifications toggles broadcast notifications for a user.
func (p *PostgresDB) SetNotifications(ctx context.Context, chatID int64, enabled bool) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE users SET notifications = $1 WHERE chat_id = $2`, enabled, chatID)
	if err != nil {
		return fmt.Errorf("failed to set notifications: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListRecipients returns active users with notifications enabled, optionally
// restricted to a set of cities (matched case-insensitively).
func (p *PostgresDB) ListRecipients(ctx context.Context, cities []string) ([]models.User, error) {
	query := `
		SELECT chat_id, username, first_name, city, is_active, notifications, registration_date
		FROM users
		WHERE is_active = TRUE AND notifications = TRUE`
	args := []interface{}{}
	if len(cities) > 0 {
		lowered := make([]string, len(cities))
		for i, c := range cities {
			lowered[i] = strings.ToLower(c)
		}
		query += ` AND lower(city) = ANY($1)`
		args = append(args, pq.Array(lowered))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ChatID, &user.Username, &user.FirstName, &user.City,
			&user.IsActive, &user.Notifications, &user.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsersByCity returns active user counts grouped by city.
func (p *PostgresDB) CountUsersByCity(ctx context.Context) ([]models.CityCount, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT city, COUNT(*) FROM users
		WHERE is_active = TRUE
		GROUP BY city
		ORDER BY COUNT(*) DESC, city`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by city: %w", err)
	}
	defer rows.Close()
	return scanCityCounts(rows)
}

// CreateCatalogEntry stores a submitted channel or group and returns its id.
func (p *PostgresDB) CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO catalog_entries (kind, name, link, city, added_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		entry.Kind, entry.Name, entry.Link, entry.City, entry.AddedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create catalog entry: %w", err)
	}
	return id, nil
}

// ListCatalogEntriesByOwner returns a user's own active entries of one kind.
func (p *PostgresDB) ListCatalogEntriesByOwner(ctx context.Context, kind models.EntryKind, ownerID int64) ([]models.CatalogEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, kind, name, link, city, added_by, is_active, created_at
		FROM catalog_entries
		WHERE kind = $1 AND added_by = $2 AND is_active = TRUE
		ORDER BY created_at DESC`, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries by owner: %w", err)
	}
	defer rows.Close()
	return scanCatalogEntries(rows)
}

// ListCatalogEntriesByCity returns active entries of one kind for a city.
func (p *PostgresDB) ListCatalogEntriesByCity(ctx context.Context, kind models.EntryKind, city string) ([]models.CatalogEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, kind, name, link, city, added_by, is_active, created_at
		FROM catalog_entries
		WHERE kind = $1 AND city = $2 AND is_active = TRUE
		ORDER BY name`, kind, city)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries by city: %w", err)
	}
	defer rows.Close()
	return scanCatalogEntries(rows)
}

// CountCatalogEntriesByCity returns active entry counts of one kind per city.
func (p *PostgresDB) CountCatalogEntriesByCity(ctx context.Context, kind models.EntryKind) ([]models.CityCount, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT city, COUNT(*) FROM catalog_entries
		WHERE kind = $1 AND is_active = TRUE
		GROUP BY city
		ORDER BY COUNT(*) DESC, city`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog entries by city: %w", err)
	}
	defer rows.Close()
	return scanCityCounts(rows)
}

// DeleteCatalogEntry deletes an entry owned by ownerID; ErrNotFound when the
// entry does not exist or belongs to someone else.
func (p *PostgresDB) DeleteCatalogEntry(ctx context.Context, id, ownerID int64) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE id = $1 AND added_by = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateTemplate stores a broadcast template and returns its id.
func (p *PostgresDB) CreateTemplate(ctx context.Context, tpl models.BroadcastTemplate) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO broadcast_templates (name, title, message, target_cities)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		tpl.Name, tpl.Title, tpl.Message, tpl.TargetCities).Scan(&id)
	if isUniqueViolation(err) {
		return 0, storage.ErrDuplicateName
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create template: %w", err)
	}
	return id, nil
}

// UpdateTemplate rewrites a template by id.
func (p *PostgresDB) UpdateTemplate(ctx context.Context, tpl models.BroadcastTemplate) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE broadcast_templates
		SET name = $1, title = $2, message = $3, target_cities = $4
		WHERE id = $5`,
		tpl.Name, tpl.Title, tpl.Message, tpl.TargetCities, tpl.ID)
	if isUniqueViolation(err) {
		return storage.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template and its ratings.
func (p *PostgresDB) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM broadcast_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetTemplate returns a template by id, or storage.ErrNotFound.
func (p *PostgresDB) GetTemplate(ctx context.Context, id int64) (*models.BroadcastTemplate, error) {
	var tpl models.BroadcastTemplate
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, title, message, target_cities, created_at
		FROM broadcast_templates WHERE id = $1`, id).
		Scan(&tpl.ID, &tpl.Name, &tpl.Title, &tpl.Message, &tpl.TargetCities, &tpl.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &tpl, nil
}

// ListTemplates returns all templates, newest first.
func (p *PostgresDB) ListTemplates(ctx context.Context) ([]models.BroadcastTemplate, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, title, message, target_cities, created_at
		FROM broadcast_templates
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var tpls []models.BroadcastTemplate
	for rows.Next() {
		var tpl models.BroadcastTemplate
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.Title, &tpl.Message,
			&tpl.TargetCities, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		tpls = append(tpls, tpl)
	}
	return tpls, rows.Err()
}

// UpsertRating stores a rating, replacing any previous rating by the same
// user for the same template.
func (p *PostgresDB) UpsertRating(ctx context.Context, rating models.Rating) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO broadcast_ratings (user_chat_id, template_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_chat_id, template_id) DO UPDATE SET rating = EXCLUDED.rating`,
		rating.UserChatID, rating.TemplateID, rating.Value)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// TemplateRatingStats aggregates ratings per template, best rated first.
func (p *PostgresDB) TemplateRatingStats(ctx context.Context) ([]models.TemplateRatingStat, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT
			bt.name,
			COUNT(br.rating),
			COALESCE(AVG(br.rating), 0),
			COUNT(CASE WHEN br.rating >= 4 THEN 1 END)
		FROM broadcast_templates bt
		LEFT JOIN broadcast_ratings br ON bt.id = br.template_id
		GROUP BY bt.id, bt.name
		ORDER BY AVG(br.rating) DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating stats: %w", err)
	}
	defer rows.Close()

	var stats []models.TemplateRatingStat
	for rows.Next() {
		var stat models.TemplateRatingStat
		if err := rows.Scan(&stat.Name, &stat.Total, &stat.Average, &stat.Positive); err != nil {
			return nil, fmt.Errorf("failed to scan rating stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// CreateLocation stores a target location and returns its id.
func (p *PostgresDB) CreateLocation(ctx context.Context, loc models.TargetLocation) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO target_locations (name, link, city)
		VALUES ($1, $2, $3)
		RETURNING id`, loc.Name, loc.Link, loc.City).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create location: %w", err)
	}
	return id, nil
}

// UpdateLocation rewrites a target location by id.
func (p *PostgresDB) UpdateLocation(ctx context.Context, loc models.TargetLocation) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE target_locations SET name = $1, link = $2, city = $3 WHERE id = $4`,
		loc.Name, loc.Link, loc.City, loc.ID)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteLocation removes a target location.
func (p *PostgresDB) DeleteLocation(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM target_locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetLocation returns a target location by id, or storage.ErrNotFound.
func (p *PostgresDB) GetLocation(ctx context.Context, id int64) (*models.TargetLocation, error) {
	var loc models.TargetLocation
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, link, city, is_active, created_at
		FROM target_locations WHERE id = $1`, id).
		Scan(&loc.ID, &loc.Name, &loc.Link, &loc.City, &loc.IsActive, &loc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &loc, nil
}

// ListLocations returns all active target locations.
func (p *PostgresDB) ListLocations(ctx context.Context) ([]models.TargetLocation, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, link, city, is_active, created_at
		FROM target_locations
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locs []models.TargetLocation
	for rows.Next() {
		var loc models.TargetLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Link, &loc.City,
			&loc.IsActive, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// CreateCommentTemplate stores a comment template and returns its id.
func (p *PostgresDB) CreateCommentTemplate(ctx context.Context, ct models.CommentTemplate) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO comment_templates (name, body)
		VALUES ($1, $2)
		RETURNING id`, ct.Name, ct.Body).Scan(&id)
	if isUniqueViolation(err) {
		return 0, storage.ErrDuplicateName
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create comment template: %w", err)
	}
	return id, nil
}

// UpdateCommentTemplate rewrites a comment template by id.
func (p *PostgresDB) UpdateCommentTemplate(ctx context.Context, ct models.CommentTemplate) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE comment_templates SET name = $1, body = $2 WHERE id = $3`,
		ct.Name, ct.Body, ct.ID)
	if isUniqueViolation(err) {
		return storage.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("failed to update comment template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteCommentTemplate removes a comment template.
func (p *PostgresDB) DeleteCommentTemplate(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM comment_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetCommentTemplate returns a comment template by id, or storage.ErrNotFound.
func (p *PostgresDB) GetCommentTemplate(ctx context.Context, id int64) (*models.CommentTemplate, error) {
	var ct models.CommentTemplate
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, body, created_at FROM comment_templates WHERE id = $1`, id).
		Scan(&ct.ID, &ct.Name, &ct.Body, &ct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment template: %w", err)
	}
	return &ct, nil
}

// ListCommentTemplates returns all comment templates, newest first.
func (p *PostgresDB) ListCommentTemplates(ctx context.Context) ([]models.CommentTemplate, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, body, created_at
		FROM comment_templates
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list comment templates: %w", err)
	}
	defer rows.Close()

	var cts []models.CommentTemplate
	for rows.Next() {
		var ct models.CommentTemplate
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.Body, &ct.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment template: %w", err)
		}
		cts = append(cts, ct)
	}
	return cts, rows.Err()
}

// Close closes the connection pool.
func (p *PostgresDB) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func scanCatalogEntries(rows *sql.Rows) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry
	for rows.Next() {
		var entry models.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Name, &entry.Link,
			&entry.City, &entry.AddedBy, &entry.IsActive, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanCityCounts(rows *sql.Rows) ([]models.CityCount, error) {
	var counts []models.CityCount
	for rows.Next() {
		var count models.CityCount
		if err := rows.Scan(&count.City, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan city count: %w", err)
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}
