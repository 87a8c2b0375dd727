package storage

import (
	"context"
	"errors"

	"outreach/internal/models"
)

// ErrNotFound is returned when a keyed or owner-scoped operation matches no row.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicateName is returned when creating or renaming a template would
// violate the unique-name constraint.
var ErrDuplicateName = errors.New("storage: name already exists")

// Storage defines the interface for data storage operations
type Storage interface {
	// User operations
	UpsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, chatID int64) (*models.User, error)
	SetNotifications(ctx context.Context, chatID int64, enabled bool) error

	// ListRecipients returns users eligible for broadcasts (active with
	// notifications enabled). A non-empty cities slice restricts the result to
	// users whose city matches one of the entries, compared case-insensitively.
	ListRecipients(ctx context.Context, cities []string) ([]models.User, error)
	CountUsersByCity(ctx context.Context) ([]models.CityCount, error)

	// Catalog operations (channels and groups)
	CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) (int64, error)
	ListCatalogEntriesByOwner(ctx context.Context, kind models.EntryKind, ownerID int64) ([]models.CatalogEntry, error)
	ListCatalogEntriesByCity(ctx context.Context, kind models.EntryKind, city string) ([]models.CatalogEntry, error)
	CountCatalogEntriesByCity(ctx context.Context, kind models.EntryKind) ([]models.CityCount, error)

	// DeleteCatalogEntry removes an entry only when ownerID matches the user
	// who added it; otherwise ErrNotFound.
	DeleteCatalogEntry(ctx context.Context, id, ownerID int64) error

	// Broadcast template operations
	CreateTemplate(ctx context.Context, tpl models.BroadcastTemplate) (int64, error)
	UpdateTemplate(ctx context.Context, tpl models.BroadcastTemplate) error
	DeleteTemplate(ctx context.Context, id int64) error
	GetTemplate(ctx context.Context, id int64) (*models.BroadcastTemplate, error)
	ListTemplates(ctx context.Context) ([]models.BroadcastTemplate, error)

	// Rating operations

	// UpsertRating stores a rating, replacing any previous rating by the same
	// user for the same template.
	UpsertRating(ctx context.Context, rating models.Rating) error
	TemplateRatingStats(ctx context.Context) ([]models.TemplateRatingStat, error)

	// Target location operations
	CreateLocation(ctx context.Context, loc models.TargetLocation) (int64, error)
	UpdateLocation(ctx context.Context, loc models.TargetLocation) error
	DeleteLocation(ctx context.Context, id int64) error
	GetLocation(ctx context.Context, id int64) (*models.TargetLocation, error)
	ListLocations(ctx context.Context) ([]models.TargetLocation, error)

	// Comment template operations
	CreateCommentTemplate(ctx context.Context, ct models.CommentTemplate) (int64, error)
	UpdateCommentTemplate(ctx context.Context, ct models.CommentTemplate) error
	DeleteCommentTemplate(ctx context.Context, id int64) error
	GetCommentTemplate(ctx context.Context, id int64) (*models.CommentTemplate, error)
	ListCommentTemplates(ctx context.Context) ([]models.CommentTemplate, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
