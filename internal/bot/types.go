package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/storage"
)

// sender is the outbound half of the Telegram API used by the bot.
// *tgbotapi.BotAPI satisfies it; tests substitute a recording fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api             *tgbotapi.BotAPI
	sender          sender
	db              storage.Storage
	admins          map[int64]bool
	states          *stateStore
	logger          *zap.Logger
	inviteChannelID int64
}

// FlowKind identifies one multi-step conversation flow
type FlowKind int

const (
	FlowAddChannel FlowKind = iota
	FlowAddGroup
	FlowCreateBroadcast
	FlowEditBroadcast
	FlowCreateLocation
	FlowEditLocation
	FlowCreateComment
	FlowEditComment
)

// Conversation tracks one chat's in-progress multi-step flow.
// SubjectID is set for edit flows and selects update-instead-of-create on
// commit; Snapshot holds the pre-edit record used to pre-fill prompts.
type Conversation struct {
	Kind      FlowKind
	Step      int
	Fields    map[string]string
	SubjectID int64
	Snapshot  map[string]string
}

func (b *Bot) isAdmin(chatID int64) bool {
	return b.admins[chatID]
}
