package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/cities"
	"outreach/internal/models"
	"outreach/internal/storage"
)

// defaultCity is used when a user submits a channel/group before registering
const defaultCity = "київ"

// startFlow creates a fresh conversation for the chat, silently replacing any
// stale one, and sends the first step's prompt. Delivery failures do not undo
// the state change; the user may re-trigger the flow from the menu.
func (b *Bot) startFlow(chatID int64, kind FlowKind, subjectID int64, snapshot map[string]string) {
	conv := &Conversation{
		Kind:      kind,
		Fields:    make(map[string]string),
		SubjectID: subjectID,
		Snapshot:  snapshot,
	}
	b.states.Set(chatID, conv)
	b.sendMessage(tgbotapi.NewMessage(chatID, b.stepPrompt(conv)))
}

// stepPrompt renders the prompt for the conversation's current step. Edit
// flows embed the pre-edit value from the snapshot as a visible default.
func (b *Bot) stepPrompt(conv *Conversation) string {
	step := flowSteps[conv.Kind][conv.Step]
	prompt := step.prompt
	if conv.SubjectID != 0 && conv.Snapshot != nil {
		current, ok := conv.Snapshot[step.field]
		if ok {
			if current == "" {
				current = "(порожньо)"
			}
			prompt += fmt.Sprintf("\n\nПоточне значення: %s\nНадішліть «%s», щоб залишити без змін.", current, keepCurrent)
		}
	}
	return prompt
}

// handleConversation advances a multi-step flow with one text input.
// Invalid input re-prompts and leaves the conversation untouched; the
// terminal step commits and clears the conversation unconditionally.
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, conv *Conversation) {
	chatID := message.Chat.ID
	steps := flowSteps[conv.Kind]

	if conv.Step < 0 || conv.Step >= len(steps) {
		// corrupted state, treat as orphaned input
		b.states.Clear(chatID)
		b.sendOrphanNotice(chatID)
		return
	}

	value, rejection := resolveInput(conv, steps[conv.Step], strings.TrimSpace(message.Text))
	if rejection != "" {
		b.sendMessage(tgbotapi.NewMessage(chatID, rejection))
		return
	}

	conv.Fields[steps[conv.Step].field] = value
	conv.Step++
	if conv.Step < len(steps) {
		b.states.Set(chatID, conv)
		b.sendMessage(tgbotapi.NewMessage(chatID, b.stepPrompt(conv)))
		return
	}

	// Terminal step: commit and clear, success or failure alike
	b.commitConversation(ctx, chatID, conv)
	b.states.Clear(chatID)
}

// resolveInput validates one step's raw text per its input class. A non-empty
// rejection means the input was refused and the state must stay unchanged.
func resolveInput(conv *Conversation, step flowStep, text string) (value, rejection string) {
	if text == keepCurrent {
		if conv.SubjectID != 0 {
			return conv.Snapshot[step.field], ""
		}
		if step.class == inputFree {
			// create flows: "-" means default / apply to all
			return "", ""
		}
	}

	switch step.class {
	case inputName:
		clean := sanitizeName(text)
		if clean == "" {
			return "", "❌ Некоректна назва. Спробуйте ще раз:"
		}
		return clean, ""
	case inputLink:
		if !validLink(text) {
			return "", "❌ Посилання має починатися з https://t.me/\nСпробуйте ще раз:"
		}
		return text, ""
	default:
		return text, ""
	}
}

// commitConversation persists the accumulated fields. Storage failures are
// reported to the user; the caller clears the conversation either way.
func (b *Bot) commitConversation(ctx context.Context, chatID int64, conv *Conversation) {
	switch conv.Kind {
	case FlowAddChannel:
		b.commitCatalogEntry(ctx, chatID, conv, models.EntryChannel)
	case FlowAddGroup:
		b.commitCatalogEntry(ctx, chatID, conv, models.EntryGroup)
	case FlowCreateBroadcast, FlowEditBroadcast:
		b.commitTemplate(ctx, chatID, conv)
	case FlowCreateLocation, FlowEditLocation:
		b.commitLocation(ctx, chatID, conv)
	case FlowCreateComment, FlowEditComment:
		b.commitComment(ctx, chatID, conv)
	}
}

func (b *Bot) commitCatalogEntry(ctx context.Context, chatID int64, conv *Conversation, kind models.EntryKind) {
	city := defaultCity
	if user, err := b.db.GetUser(ctx, chatID); err == nil {
		city = user.City
	}

	entry := models.CatalogEntry{
		Kind:    kind,
		Name:    conv.Fields["name"],
		Link:    conv.Fields["link"],
		City:    city,
		AddedBy: chatID,
	}

	label, icon := "Канал", "📺"
	if kind == models.EntryGroup {
		label, icon = "Група", "👥"
	}

	if _, err := b.db.CreateCatalogEntry(ctx, entry); err != nil {
		b.logger.Error("Failed to create catalog entry",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("kind", string(kind)),
		)
		b.sendWithMainMenu(chatID, fmt.Sprintf("❌ Сталася помилка при додаванні. Спробуйте пізніше. (%s)", label))
		return
	}

	b.sendWithMainMenu(chatID, fmt.Sprintf(
		"✅ %s успішно додано!\n\n%s @%s\n🏙️ Місто: %s %s\n🔗 %s",
		label, icon, entry.Name, cities.Display(city), cities.Hashtag(city), entry.Link))
}

func (b *Bot) commitTemplate(ctx context.Context, chatID int64, conv *Conversation) {
	tpl := models.BroadcastTemplate{
		ID:           conv.SubjectID,
		Name:         conv.Fields["name"],
		Title:        conv.Fields["title"],
		Message:      conv.Fields["message"],
		TargetCities: conv.Fields["cities"],
	}

	var err error
	if conv.SubjectID != 0 {
		err = b.db.UpdateTemplate(ctx, tpl)
	} else {
		_, err = b.db.CreateTemplate(ctx, tpl)
	}
	if errors.Is(err, storage.ErrDuplicateName) {
		b.sendWithAdminMenu(chatID, "❌ Шаблон з такою назвою вже існує. Оберіть іншу назву.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to save broadcast template",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int64("template_id", conv.SubjectID),
		)
		b.sendWithAdminMenu(chatID, "❌ Не вдалося зберегти шаблон розсилки.")
		return
	}

	target := "всі міста"
	if tpl.TargetCities != "" {
		target = tpl.TargetCities
	}
	b.sendWithAdminMenu(chatID, fmt.Sprintf(
		"✅ Шаблон збережено!\n\n📝 %s\n🏙️ Міста: %s", tpl.Name, target))
}

func (b *Bot) commitLocation(ctx context.Context, chatID int64, conv *Conversation) {
	loc := models.TargetLocation{
		ID:   conv.SubjectID,
		Name: conv.Fields["name"],
		Link: conv.Fields["link"],
		City: conv.Fields["city"],
	}

	var err error
	if conv.SubjectID != 0 {
		err = b.db.UpdateLocation(ctx, loc)
	} else {
		_, err = b.db.CreateLocation(ctx, loc)
	}
	if err != nil {
		b.logger.Error("Failed to save target location",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int64("location_id", conv.SubjectID),
		)
		b.sendWithAdminMenu(chatID, "❌ Не вдалося зберегти локацію.")
		return
	}

	b.sendWithAdminMenu(chatID, fmt.Sprintf(
		"✅ Локацію збережено!\n\n📍 %s\n🔗 %s", loc.Name, loc.Link))
}

func (b *Bot) commitComment(ctx context.Context, chatID int64, conv *Conversation) {
	ct := models.CommentTemplate{
		ID:   conv.SubjectID,
		Name: conv.Fields["name"],
		Body: conv.Fields["body"],
	}

	var err error
	if conv.SubjectID != 0 {
		err = b.db.UpdateCommentTemplate(ctx, ct)
	} else {
		_, err = b.db.CreateCommentTemplate(ctx, ct)
	}
	if errors.Is(err, storage.ErrDuplicateName) {
		b.sendWithAdminMenu(chatID, "❌ Шаблон коментаря з такою назвою вже існує. Оберіть іншу назву.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to save comment template",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int64("comment_id", conv.SubjectID),
		)
		b.sendWithAdminMenu(chatID, "❌ Не вдалося зберегти шаблон коментаря.")
		return
	}

	b.sendWithAdminMenu(chatID, fmt.Sprintf("✅ Шаблон коментаря «%s» збережено!", ct.Name))
}

// sendOrphanNotice handles input that matches no conversation: reset plus a
// pointer back to the menu.
func (b *Bot) sendOrphanNotice(chatID int64) {
	b.sendWithMainMenu(chatID, "Неочікуване введення. Будь ласка, спробуйте знову з головного меню.")
}
