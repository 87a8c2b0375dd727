package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/models"
	"outreach/internal/storage"
	"outreach/internal/storage/stubs"
)

// Note: tests focus on internal logic with a nil sender, so nothing is
// actually sent to Telegram.

func newTestBot(db *stubs.MockDB) *Bot {
	return &Bot{
		api:    nil,
		sender: nil,
		db:     db,
		admins: map[int64]bool{999: true},
		states: newStateStore(),
		logger: zap.NewNop(),
	}
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	msg := textMessage(chatID, text)
	msg.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(text)},
	}
	return msg
}

func TestBot_AddChannelConversation(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	bot := newTestBot(db)

	chatID := int64(123)
	if err := db.UpsertUser(ctx, models.User{ChatID: chatID, City: "львів"}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	bot.startFlow(chatID, FlowAddChannel, 0, nil)

	conv, ok := bot.states.Get(chatID)
	if !ok {
		t.Fatal("Expected conversation state to be created")
	}
	if conv.Kind != FlowAddChannel || conv.Step != 0 {
		t.Fatalf("Expected FlowAddChannel at step 0, got kind=%v step=%d", conv.Kind, conv.Step)
	}

	// Name with punctuation gets sanitized, not rejected
	bot.handleConversation(ctx, textMessage(chatID, "MyChannel!!"), conv)
	if conv.Step != 1 {
		t.Fatalf("Expected step 1 after name, got %d", conv.Step)
	}
	if conv.Fields["name"] != "MyChannel" {
		t.Errorf("Expected sanitized name 'MyChannel', got %q", conv.Fields["name"])
	}

	// Valid link completes the flow
	bot.handleConversation(ctx, textMessage(chatID, "https://t.me/mychannel"), conv)

	if _, ok := bot.states.Get(chatID); ok {
		t.Error("Expected conversation state to be cleared after completion")
	}

	entries, err := db.ListCatalogEntriesByOwner(ctx, models.EntryChannel, chatID)
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Name != "MyChannel" {
		t.Errorf("Expected entry name 'MyChannel', got %q", entry.Name)
	}
	if entry.Link != "https://t.me/mychannel" {
		t.Errorf("Expected link to be stored verbatim, got %q", entry.Link)
	}
	if entry.City != "львів" {
		t.Errorf("Expected entry to inherit the user's city, got %q", entry.City)
	}
}

func TestBot_InvalidLinkKeepsState(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	bot := newTestBot(db)

	chatID := int64(123)
	bot.startFlow(chatID, FlowAddGroup, 0, nil)
	conv, _ := bot.states.Get(chatID)

	bot.handleConversation(ctx, textMessage(chatID, "mygroup"), conv)
	if conv.Step != 1 {
		t.Fatalf("Expected step 1, got %d", conv.Step)
	}

	// Rejected input leaves the conversation untouched
	bot.handleConversation(ctx, textMessage(chatID, "not-a-link"), conv)
	if conv.Step != 1 {
		t.Errorf("Expected to stay on step 1 after invalid link, got %d", conv.Step)
	}
	if conv.Fields["name"] != "mygroup" {
		t.Errorf("Expected accumulated fields to be preserved, got %v", conv.Fields)
	}

	// Prefix alone is not a valid link either
	bot.handleConversation(ctx, textMessage(chatID, "https://t.me/"), conv)
	if conv.Step != 1 {
		t.Errorf("Expected to stay on step 1 after bare prefix, got %d", conv.Step)
	}

	entries, _ := db.ListCatalogEntriesByOwner(ctx, models.EntryGroup, chatID)
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestBot_UnregisteredUserDefaultCity(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	bot := newTestBot(db)

	chatID := int64(777)
	bot.startFlow(chatID, FlowAddChannel, 0, nil)
	conv, _ := bot.states.Get(chatID)

	bot.handleConversation(ctx, textMessage(chatID, "somechannel"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "https://t.me/somechannel"), conv)

	entries, _ := db.ListCatalogEntriesByOwner(ctx, models.EntryChannel, chatID)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].City != defaultCity {
		t.Errorf("Expected default city %q for unregistered user, got %q", defaultCity, entries[0].City)
	}
}

func TestBot_CommandInterruptsConversation(t *testing.T) {
	db := stubs.NewMockDB()
	bot := newTestBot(db)

	chatID := int64(123)
	bot.startFlow(chatID, FlowAddChannel, 0, nil)
	if _, ok := bot.states.Get(chatID); !ok {
		t.Fatal("Expected conversation state to be created")
	}

	bot.handleMessage(commandMessage(chatID, "/start"))

	if _, ok := bot.states.Get(chatID); ok {
		t.Error("Expected conversation to be cancelled by a command")
	}
}

func TestBot_OrphanInputLeavesNoState(t *testing.T) {
	db := stubs.NewMockDB()
	bot := newTestBot(db)

	chatID := int64(123)
	bot.handleMessage(textMessage(chatID, "random text"))

	if _, ok := bot.states.Get(chatID); ok {
		t.Error("Expected no conversation state for orphaned input")
	}
}

func TestBot_CorruptedStepTreatedAsOrphan(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	bot := newTestBot(db)

	chatID := int64(123)
	conv := &Conversation{Kind: FlowAddChannel, Step: 99, Fields: map[string]string{}}
	bot.states.Set(chatID, conv)

	bot.handleConversation(ctx, textMessage(chatID, "anything"), conv)

	if _, ok := bot.states.Get(chatID); ok {
		t.Error("Expected corrupted conversation to be cleared")
	}
}

func TestBot_CreateBroadcastDashDefaults(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	bot := newTestBot(db)

	chatID := int64(999)
	bot.startFlow(chatID, FlowCreateBroadcast, 0, nil)
	conv, _ := bot.states.Get(chatID)

	bot.handleConversation(ctx, textMessage(chatID, "Промо"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "-"), conv) // no title
	bot.handleConversation(ctx, textMessage(chatID, "Текст розсилки"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "-"), conv) // all cities

	tpls, err := db.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("Failed to list templates: %v", err)
	}
	if len(tpls) != 1 {
		t.Fatalf("Expected 1 template, got %d", len(tpls))
	}
	tpl := tpls[0]
	if tpl.Title != "" {
		t.Errorf("Expected empty title for '-', got %q", tpl.Title)
	}
	if tpl.TargetCities != "" {
		t.Errorf("Expected empty target cities for '-', got %q", tpl.TargetCities)
	}
	if tpl.CityFilter() != nil {
		t.Error("Expected nil city filter for all-cities template")
	}
}

func TestBot_EditTemplateKeepCurrent(t *testing.T) {
	db := stubs.NewMockDB()
	ctx := context.Background()
	bot := newTestBot(db)

	id, err := db.CreateTemplate(ctx, models.BroadcastTemplate{
		Name:         "Промо",
		Title:        "Заголовок",
		Message:      "Старий текст",
		TargetCities: "київ,львів",
	})
	if err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}

	chatID := int64(999)
	bot.startFlow(chatID, FlowEditBroadcast, id, map[string]string{
		"name":    "Промо",
		"title":   "Заголовок",
		"message": "Старий текст",
		"cities":  "київ,львів",
	})
	conv, _ := bot.states.Get(chatID)

	// Keep name and title, change the message, keep cities
	bot.handleConversation(ctx, textMessage(chatID, "-"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "-"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "Новий текст"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "-"), conv)

	tpl, err := db.GetTemplate(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get template: %v", err)
	}
	if tpl.Name != "Промо" || tpl.Title != "Заголовок" {
		t.Errorf("Expected '-' to keep current values, got name=%q title=%q", tpl.Name, tpl.Title)
	}
	if tpl.Message != "Новий текст" {
		t.Errorf("Expected updated message, got %q", tpl.Message)
	}
	if tpl.TargetCities != "київ,львів" {
		t.Errorf("Expected cities preserved, got %q", tpl.TargetCities)
	}
}

// failingStorage breaks catalog entry creation to exercise commit failures.
type failingStorage struct {
	storage.Storage
}

func (f *failingStorage) CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) (int64, error) {
	return 0, errors.New("storage unavailable")
}

func TestBot_CommitFailureClearsState(t *testing.T) {
	db := stubs.NewMockDB()
	sender := &fakeSender{}
	bot := &Bot{
		sender: sender,
		db:     &failingStorage{Storage: db},
		admins: map[int64]bool{999: true},
		states: newStateStore(),
		logger: zap.NewNop(),
	}

	ctx := context.Background()
	chatID := int64(123)
	bot.startFlow(chatID, FlowAddChannel, 0, nil)
	conv, _ := bot.states.Get(chatID)

	bot.handleConversation(ctx, textMessage(chatID, "mychannel"), conv)
	bot.handleConversation(ctx, textMessage(chatID, "https://t.me/mychannel"), conv)

	// A failed commit must not leave the conversation stuck
	if _, ok := bot.states.Get(chatID); ok {
		t.Error("Expected conversation to be cleared after a failed commit")
	}

	if len(sender.sent) == 0 {
		t.Fatal("Expected a failure notice to be sent")
	}
	last := sender.sent[len(sender.sent)-1]
	if !strings.Contains(last.Text, "❌") {
		t.Errorf("Expected a failure notice, got %q", last.Text)
	}

	entries, _ := db.ListCatalogEntriesByOwner(ctx, models.EntryChannel, chatID)
	if len(entries) != 0 {
		t.Errorf("Expected no entries after failed commit, got %d", len(entries))
	}
}

func callbackQuery(chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "q1",
		From: &tgbotapi.User{ID: chatID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}
}

func TestBot_AdminActionsGated(t *testing.T) {
	db := stubs.NewMockDB()
	bot := newTestBot(db)

	// Non-admin pressing an admin button starts nothing
	bot.handleCallbackQuery(callbackQuery(123, "tpl_new"))
	if _, ok := bot.states.Get(123); ok {
		t.Error("Expected no conversation for non-admin on admin action")
	}

	// Allow-listed chat gets the wizard
	bot.handleCallbackQuery(callbackQuery(999, "tpl_new"))
	conv, ok := bot.states.Get(999)
	if !ok {
		t.Fatal("Expected conversation for admin")
	}
	if conv.Kind != FlowCreateBroadcast {
		t.Errorf("Expected FlowCreateBroadcast, got %v", conv.Kind)
	}
}

func TestBot_MainMenuCancelsConversation(t *testing.T) {
	db := stubs.NewMockDB()
	bot := newTestBot(db)

	chatID := int64(123)
	bot.startFlow(chatID, FlowAddChannel, 0, nil)

	bot.handleCallbackQuery(callbackQuery(chatID, "main_menu"))

	if _, ok := bot.states.Get(chatID); ok {
		t.Error("Expected returning to the menu to cancel the flow")
	}
}

func TestBot_PanicRecovery(t *testing.T) {
	db := stubs.NewMockDB()
	bot := newTestBot(db)

	// nil From would panic inside command handling without recovery
	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 123},
		Text: "/start",
	}
	msg.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: 6},
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("handleMessage panicked: %v", r)
		}
	}()

	bot.handleMessage(msg)
}
