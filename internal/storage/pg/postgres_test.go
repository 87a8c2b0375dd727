package pg

import (
	"context"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresTC "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"outreach/internal/models"
	"outreach/internal/storage"
)

// setupTestDB creates a test PostgreSQL instance using testcontainers
func setupTestDB(t *testing.T) (*PostgresDB, func()) {
	ctx := context.Background()

	container, err := postgresTC.Run(ctx,
		"postgres:16-alpine",
		postgresTC.WithDatabase("outreach_test"),
		postgresTC.WithUsername("test"),
		postgresTC.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewPostgresDB(dsn)
	require.NoError(t, err, "Failed to connect to PostgreSQL")

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db.db, "../../../migrations"), "Failed to run migrations")

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}
	return db, cleanup
}

func TestPostgresDB_UpsertUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := db.UpsertUser(ctx, models.User{ChatID: 1, Username: "alice", FirstName: "Alice", City: "київ"})
	require.NoError(t, err)

	user, err := db.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "київ", user.City)
	assert.True(t, user.IsActive)
	assert.True(t, user.Notifications)
	assert.False(t, user.RegisteredAt.IsZero())

	// Re-registering moves the user to a new city
	err = db.UpsertUser(ctx, models.User{ChatID: 1, Username: "alice", City: "львів"})
	require.NoError(t, err)

	user, err = db.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "львів", user.City)

	counts, err := db.CountUsersByCity(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Count)
}

func TestPostgresDB_GetUserNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostgresDB_ListRecipients(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, db.UpsertUser(ctx, models.User{ChatID: 1, City: "київ"}))
	require.NoError(t, db.UpsertUser(ctx, models.User{ChatID: 2, City: "львів"}))
	require.NoError(t, db.UpsertUser(ctx, models.User{ChatID: 3, City: "київ"}))
	require.NoError(t, db.SetNotifications(ctx, 3, false))

	all, err := db.ListRecipients(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2, "opted-out user must be excluded")

	kyiv, err := db.ListRecipients(ctx, []string{"київ"})
	require.NoError(t, err)
	require.Len(t, kyiv, 1)
	assert.Equal(t, int64(1), kyiv[0].ChatID)

	// Filter entries match case-insensitively regardless of the caller's casing
	upper, err := db.ListRecipients(ctx, []string{"КИЇВ"})
	require.NoError(t, err)
	require.Len(t, upper, 1)
	assert.Equal(t, int64(1), upper[0].ChatID)
}

func TestPostgresDB_CatalogEntries(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	id, err := db.CreateCatalogEntry(ctx, models.CatalogEntry{
		Kind: models.EntryChannel, Name: "news", Link: "https://t.me/news",
		City: "київ", AddedBy: 1,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = db.CreateCatalogEntry(ctx, models.CatalogEntry{
		Kind: models.EntryGroup, Name: "chat", Link: "https://t.me/chat",
		City: "київ", AddedBy: 1,
	})
	require.NoError(t, err)

	// Kind filters apply to every listing
	channels, err := db.ListCatalogEntriesByOwner(ctx, models.EntryChannel, 1)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "news", channels[0].Name)

	byCity, err := db.ListCatalogEntriesByCity(ctx, models.EntryGroup, "київ")
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, "chat", byCity[0].Name)

	counts, err := db.CountCatalogEntriesByCity(ctx, models.EntryChannel)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Count)

	// Deleting with the wrong owner fails
	err = db.DeleteCatalogEntry(ctx, id, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, db.DeleteCatalogEntry(ctx, id, 1))
	channels, err = db.ListCatalogEntriesByOwner(ctx, models.EntryChannel, 1)
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestPostgresDB_TemplatesAndRatings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	id, err := db.CreateTemplate(ctx, models.BroadcastTemplate{
		Name: "Промо", Title: "Заголовок", Message: "Текст", TargetCities: "київ",
	})
	require.NoError(t, err)

	tpl, err := db.GetTemplate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"київ"}, tpl.CityFilter())

	// Template names are unique
	_, err = db.CreateTemplate(ctx, models.BroadcastTemplate{Name: "Промо", Message: "Інший"})
	assert.ErrorIs(t, err, storage.ErrDuplicateName)

	require.NoError(t, db.UpdateTemplate(ctx, models.BroadcastTemplate{
		ID: id, Name: "Промо", Message: "Новий текст", TargetCities: "",
	}))
	tpl, err = db.GetTemplate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Новий текст", tpl.Message)
	assert.Nil(t, tpl.CityFilter())

	// A repeat rating by the same user replaces the previous value
	require.NoError(t, db.UpsertRating(ctx, models.Rating{UserChatID: 1, TemplateID: id, Value: 2}))
	require.NoError(t, db.UpsertRating(ctx, models.Rating{UserChatID: 1, TemplateID: id, Value: 5}))
	require.NoError(t, db.UpsertRating(ctx, models.Rating{UserChatID: 2, TemplateID: id, Value: 3}))

	stats, err := db.TemplateRatingStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Total)
	assert.InDelta(t, 4.0, stats[0].Average, 0.001)
	assert.Equal(t, 1, stats[0].Positive)

	// Ratings go away with the template
	require.NoError(t, db.DeleteTemplate(ctx, id))
	stats, err = db.TemplateRatingStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestPostgresDB_LocationsAndComments(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	locID, err := db.CreateLocation(ctx, models.TargetLocation{
		Name: "Чат Києва", Link: "https://t.me/kyivchat", City: "київ",
	})
	require.NoError(t, err)

	loc, err := db.GetLocation(ctx, locID)
	require.NoError(t, err)
	assert.True(t, loc.IsActive)

	require.NoError(t, db.UpdateLocation(ctx, models.TargetLocation{
		ID: locID, Name: "Чат Львова", Link: "https://t.me/lvivchat", City: "львів",
	}))
	locs, err := db.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Чат Львова", locs[0].Name)

	require.NoError(t, db.DeleteLocation(ctx, locID))
	assert.ErrorIs(t, db.DeleteLocation(ctx, locID), storage.ErrNotFound)

	cmtID, err := db.CreateCommentTemplate(ctx, models.CommentTemplate{
		Name: "Запрошення", Body: "Приєднуйтесь!",
	})
	require.NoError(t, err)

	_, err = db.CreateCommentTemplate(ctx, models.CommentTemplate{
		Name: "Запрошення", Body: "Інший текст",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateName)

	require.NoError(t, db.UpdateCommentTemplate(ctx, models.CommentTemplate{
		ID: cmtID, Name: "Запрошення", Body: "Оновлений текст",
	}))
	cmt, err := db.GetCommentTemplate(ctx, cmtID)
	require.NoError(t, err)
	assert.Equal(t, "Оновлений текст", cmt.Body)

	cmts, err := db.ListCommentTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, cmts, 1)

	require.NoError(t, db.DeleteCommentTemplate(ctx, cmtID))
	_, err = db.GetCommentTemplate(ctx, cmtID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
