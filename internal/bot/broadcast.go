package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/cities"
)

// Dispatch fans a broadcast out to the resolved recipient set and returns the
// number of successful deliveries.
//
// A nil cityFilter targets every active user with notifications enabled. A
// non-nil filter is trimmed and lower-cased per entry; if nothing survives
// trimming the recipient set is deliberately empty (no fallback to "all").
// Each recipient gets the body with their city hashtag appended and, when
// templateID is set, the 1-5 rating keyboard. Per-recipient delivery failures
// are logged and do not abort the loop. Best effort: no retry, no batching.
func (b *Bot) Dispatch(ctx context.Context, body string, cityFilter []string, templateID *int64) int {
	var filter []string
	if cityFilter != nil {
		for _, c := range cityFilter {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				filter = append(filter, c)
			}
		}
		if len(filter) == 0 {
			return 0
		}
	}

	recipients, err := b.db.ListRecipients(ctx, filter)
	if err != nil {
		b.logger.Error("Failed to resolve broadcast recipients", zap.Error(err))
		return 0
	}

	sent := 0
	for _, user := range recipients {
		msg := tgbotapi.NewMessage(user.ChatID, body+"\n\n🏙️ "+cities.Hashtag(user.City))
		if templateID != nil {
			msg.ReplyMarkup = ratingKeyboard(*templateID)
		}

		if _, err := b.sender.Send(msg); err != nil {
			b.logger.Warn("Broadcast delivery failed",
				zap.Int64("chat_id", user.ChatID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	b.logger.Info("Broadcast dispatched",
		zap.Int("recipients", len(recipients)),
		zap.Int("sent", sent),
	)
	return sent
}

// DispatchTest bypasses recipient resolution and sends the body to exactly
// one chat, with the rating keyboard suppressed.
func (b *Bot) DispatchTest(ctx context.Context, body string, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🧪 Тестова розсилка\n\n"+body)
	_, err := b.sender.Send(msg)
	return err
}
