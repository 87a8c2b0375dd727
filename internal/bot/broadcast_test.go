package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/models"
	"outreach/internal/storage/stubs"
)

// fakeSender records outgoing messages and can simulate blocked chats.
type fakeSender struct {
	sent    []tgbotapi.MessageConfig
	failFor map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	if f.failFor[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newBroadcastBot(db *stubs.MockDB, sender *fakeSender) *Bot {
	return &Bot{
		sender: sender,
		db:     db,
		admins: map[int64]bool{999: true},
		states: newStateStore(),
		logger: zap.NewNop(),
	}
}

func seedUsers(t *testing.T, db *stubs.MockDB) {
	t.Helper()
	ctx := context.Background()
	users := []models.User{
		{ChatID: 1, City: "київ"},
		{ChatID: 2, City: "львів"},
		{ChatID: 3, City: "київ"},
	}
	for _, u := range users {
		if err := db.UpsertUser(ctx, u); err != nil {
			t.Fatalf("Failed to seed user %d: %v", u.ChatID, err)
		}
	}
	// User 3 opted out of broadcasts
	if err := db.SetNotifications(ctx, 3, false); err != nil {
		t.Fatalf("Failed to disable notifications: %v", err)
	}
}

func TestDispatch_CityFilter(t *testing.T) {
	db := stubs.NewMockDB()
	seedUsers(t, db)
	sender := &fakeSender{}
	bot := newBroadcastBot(db, sender)

	templateID := int64(7)
	sent := bot.Dispatch(context.Background(), "Текст", []string{" Київ "}, &templateID)

	if sent != 1 {
		t.Fatalf("Expected 1 delivery (user 2 is in another city, user 3 opted out), got %d", sent)
	}
	msg := sender.sent[0]
	if msg.ChatID != 1 {
		t.Errorf("Expected delivery to chat 1, got %d", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "#Київ") {
		t.Errorf("Expected city hashtag appended, got %q", msg.Text)
	}
	if msg.ReplyMarkup == nil {
		t.Error("Expected rating keyboard when template id is set")
	}
}

func TestDispatch_NilFilterTargetsEveryone(t *testing.T) {
	db := stubs.NewMockDB()
	seedUsers(t, db)
	sender := &fakeSender{}
	bot := newBroadcastBot(db, sender)

	sent := bot.Dispatch(context.Background(), "Текст", nil, nil)

	if sent != 2 {
		t.Fatalf("Expected 2 deliveries (user 3 opted out), got %d", sent)
	}
	for _, msg := range sender.sent {
		if msg.ReplyMarkup != nil {
			t.Error("Expected no rating keyboard without a template id")
		}
	}
}

func TestDispatch_EmptyFilterAfterTrim(t *testing.T) {
	db := stubs.NewMockDB()
	seedUsers(t, db)
	sender := &fakeSender{}
	bot := newBroadcastBot(db, sender)

	// A filter that trims to nothing means an empty segment, not "all"
	sent := bot.Dispatch(context.Background(), "Текст", []string{"  ", ""}, nil)

	if sent != 0 {
		t.Errorf("Expected 0 deliveries for empty filter, got %d", sent)
	}
	if len(sender.sent) != 0 {
		t.Errorf("Expected no messages sent, got %d", len(sender.sent))
	}
}

func TestDispatch_ContinuesAfterFailure(t *testing.T) {
	db := stubs.NewMockDB()
	seedUsers(t, db)
	sender := &fakeSender{failFor: map[int64]bool{1: true}}
	bot := newBroadcastBot(db, sender)

	sent := bot.Dispatch(context.Background(), "Текст", nil, nil)

	if sent != 1 {
		t.Errorf("Expected 1 delivery after one blocked chat, got %d", sent)
	}
	if len(sender.sent) != 1 || sender.sent[0].ChatID != 2 {
		t.Errorf("Expected delivery to chat 2 only, got %+v", sender.sent)
	}
}

func TestBot_TemplateSendComposesTitleAndBody(t *testing.T) {
	db := stubs.NewMockDB()
	seedUsers(t, db)
	sender := &fakeSender{}
	bot := newBroadcastBot(db, sender)
	ctx := context.Background()

	id, err := db.CreateTemplate(ctx, models.BroadcastTemplate{
		Name: "Промо", Title: "Заголовок", Message: "Текст",
	})
	if err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}

	bot.handleTemplateSend(ctx, callbackQuery(999, fmt.Sprintf("tpl_send_%d", id)))

	// Both opted-in users get the title joined with the body
	broadcasts := 0
	for _, msg := range sender.sent {
		if strings.HasPrefix(msg.Text, "Заголовок\n\nТекст") {
			broadcasts++
		}
	}
	if broadcasts != 2 {
		t.Errorf("Expected 2 composed broadcast deliveries, got %d", broadcasts)
	}

	bot.handleTemplateTest(ctx, callbackQuery(999, fmt.Sprintf("tpl_test_%d", id)))

	found := false
	for _, msg := range sender.sent {
		if msg.ChatID == 999 && strings.Contains(msg.Text, "Заголовок\n\nТекст") {
			found = true
		}
	}
	if !found {
		t.Error("Expected the composed body in the test delivery")
	}
}

func TestDispatchTest_SingleRecipientNoKeyboard(t *testing.T) {
	db := stubs.NewMockDB()
	seedUsers(t, db)
	sender := &fakeSender{}
	bot := newBroadcastBot(db, sender)

	if err := bot.DispatchTest(context.Background(), "Текст", 999); err != nil {
		t.Fatalf("DispatchTest failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("Expected exactly 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 999 {
		t.Errorf("Expected delivery to the requesting chat, got %d", msg.ChatID)
	}
	if !strings.HasPrefix(msg.Text, "🧪") {
		t.Errorf("Expected test marker prefix, got %q", msg.Text)
	}
	if msg.ReplyMarkup != nil {
		t.Error("Expected no rating keyboard in test mode")
	}
}
