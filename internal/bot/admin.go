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

// showTemplateList renders saved broadcast templates with per-template actions
func (b *Bot) showTemplateList(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	templates, err := b.db.ListTemplates(ctx)
	if err != nil {
		b.logger.Error("Failed to list broadcast templates", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати список шаблонів."))
		return
	}

	var text strings.Builder
	text.WriteString("📤 Шаблони розсилок:\n\n")
	if len(templates) == 0 {
		text.WriteString("Поки що немає збережених шаблонів.")
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, tpl := range templates {
		target := "всі міста"
		if tpl.TargetCities != "" {
			target = tpl.TargetCities
		}
		text.WriteString(fmt.Sprintf("%d. %s (🏙️ %s)\n", i+1, tpl.Name, target))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 "+tpl.Name, fmt.Sprintf("tpl_send_%d", tpl.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🧪", fmt.Sprintf("tpl_test_%d", tpl.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️", fmt.Sprintf("tpl_edit_%d", tpl.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("tpl_del_%d", tpl.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Новий шаблон", "tpl_new")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "admin_menu")),
	)

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(),
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// startTemplateEdit snapshots the template and enters the edit flow
func (b *Bot) startTemplateEdit(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "tpl_edit_")
	if !ok {
		return
	}
	tpl, err := b.db.GetTemplate(ctx, id)
	if err != nil {
		b.reportAdminLoadError(err, chatID, "шаблон", id)
		return
	}

	b.startFlow(chatID, FlowEditBroadcast, tpl.ID, map[string]string{
		"name":    tpl.Name,
		"title":   tpl.Title,
		"message": tpl.Message,
		"cities":  tpl.TargetCities,
	})
}

func (b *Bot) handleTemplateDelete(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "tpl_del_")
	if !ok {
		return
	}
	if err := b.db.DeleteTemplate(ctx, id); err != nil {
		b.reportAdminLoadError(err, chatID, "шаблон", id)
		return
	}
	b.sendWithAdminMenu(chatID, "✅ Шаблон видалено.")
}

// handleTemplateSend dispatches a template to its target segment
func (b *Bot) handleTemplateSend(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "tpl_send_")
	if !ok {
		return
	}
	tpl, err := b.db.GetTemplate(ctx, id)
	if err != nil {
		b.reportAdminLoadError(err, chatID, "шаблон", id)
		return
	}

	sent := b.Dispatch(ctx, composeTemplateBody(*tpl), tpl.CityFilter(), &tpl.ID)
	b.sendWithAdminMenu(chatID, fmt.Sprintf(
		"✅ Розсилку «%s» надіслано.\n📬 Отримувачів: %d", tpl.Name, sent))
}

// handleTemplateTest sends the template to the admin only, without the rating keyboard
func (b *Bot) handleTemplateTest(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "tpl_test_")
	if !ok {
		return
	}
	tpl, err := b.db.GetTemplate(ctx, id)
	if err != nil {
		b.reportAdminLoadError(err, chatID, "шаблон", id)
		return
	}

	if err := b.DispatchTest(ctx, composeTemplateBody(*tpl), chatID); err != nil {
		b.logger.Error("Test broadcast delivery failed",
			zap.Error(err),
			zap.Int64("template_id", id),
			zap.Int64("chat_id", chatID),
		)
		b.sendWithAdminMenu(chatID, "❌ Не вдалося надіслати тестову розсилку.")
		return
	}
	b.sendWithAdminMenu(chatID, "✅ Тестову розсилку надіслано вам у чат.")
}

// composeTemplateBody joins the optional title with the message text.
func composeTemplateBody(tpl models.BroadcastTemplate) string {
	if tpl.Title == "" {
		return tpl.Message
	}
	return tpl.Title + "\n\n" + tpl.Message
}

// showUserStatsByCity is the admin view of registered user counts
func (b *Bot) showUserStatsByCity(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	counts, err := b.db.CountUsersByCity(ctx)
	if err != nil {
		b.logger.Error("Failed to count users by city", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати статистику."))
		return
	}

	var text strings.Builder
	text.WriteString("👥 Користувачі по містах:\n\n")
	total := 0
	for _, count := range counts {
		text.WriteString(fmt.Sprintf("%s: %d\n", cities.Display(count.City), count.Count))
		total += count.Count
	}
	text.WriteString(fmt.Sprintf("\nЗагалом: %d", total))

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(), backKeyboard("admin_menu"))
}

// showCatalogStats is the admin view of the channel/group catalog
func (b *Bot) showCatalogStats(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	text, err := b.renderCatalogStats(ctx)
	if err != nil {
		b.logger.Error("Failed to count catalog entries", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати статистику."))
		return
	}
	b.editWithKeyboard(chatID, query.Message.MessageID, text, backKeyboard("admin_menu"))
}

// showRatingStats aggregates feedback per broadcast template
func (b *Bot) showRatingStats(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	stats, err := b.db.TemplateRatingStats(ctx)
	if err != nil {
		b.logger.Error("Failed to load rating stats", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати рейтинги."))
		return
	}

	var text strings.Builder
	text.WriteString("📈 Рейтинги розсилок:\n\n")
	if len(stats) == 0 {
		text.WriteString("Поки що немає оцінок.")
	}
	for _, stat := range stats {
		if stat.Total == 0 {
			text.WriteString(fmt.Sprintf("📤 %s — оцінок немає\n\n", stat.Name))
			continue
		}
		text.WriteString(fmt.Sprintf(
			"📤 %s\n⭐ Середня: %.1f | Оцінок: %d | 👍 (4-5): %d\n\n",
			stat.Name, stat.Average, stat.Total, stat.Positive))
	}

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(), backKeyboard("admin_menu"))
}

// showLocationList renders curated outreach targets with per-location actions
func (b *Bot) showLocationList(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	locations, err := b.db.ListLocations(ctx)
	if err != nil {
		b.logger.Error("Failed to list target locations", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати локації."))
		return
	}

	var text strings.Builder
	text.WriteString("📍 Локації для розміщення:\n\n")
	if len(locations) == 0 {
		text.WriteString("Поки що немає доданих локацій.")
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, loc := range locations {
		text.WriteString(fmt.Sprintf("%d. %s (%s)\n%s\n", i+1, loc.Name,
			cities.Display(loc.City), loc.Link))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 "+loc.Name, fmt.Sprintf("loc_post_%d", loc.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️", fmt.Sprintf("loc_edit_%d", loc.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("loc_del_%d", loc.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Нова локація", "loc_new")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "admin_menu")),
	)

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(),
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) startLocationEdit(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "loc_edit_")
	if !ok {
		return
	}
	loc, err := b.db.GetLocation(ctx, id)
	if err != nil {
		b.reportAdminLoadError(err, chatID, "локацію", id)
		return
	}

	b.startFlow(chatID, FlowEditLocation, loc.ID, map[string]string{
		"name": loc.Name,
		"link": loc.Link,
		"city": loc.City,
	})
}

func (b *Bot) handleLocationDelete(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "loc_del_")
	if !ok {
		return
	}
	if err := b.db.DeleteLocation(ctx, id); err != nil {
		b.reportAdminLoadError(err, chatID, "локацію", id)
		return
	}
	b.sendWithAdminMenu(chatID, "✅ Локацію видалено.")
}

// handleLocationPost posts the newest comment template into a target chat.
// The bot must be a member of the target chat for the send to succeed.
func (b *Bot) handleLocationPost(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "loc_post_")
	if !ok {
		return
	}
	loc, err := b.db.GetLocation(ctx, id)
	if err != nil {
		b.reportAdminLoadError(err, chatID, "локацію", id)
		return
	}

	comments, err := b.db.ListCommentTemplates(ctx)
	if err != nil {
		b.logger.Error("Failed to list comment templates", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати шаблони коментарів."))
		return
	}
	if len(comments) == 0 {
		b.sendWithAdminMenu(chatID, "❌ Немає жодного шаблону коментаря. Спочатку створіть його.")
		return
	}

	username := "@" + strings.TrimPrefix(loc.Link, linkPrefix)
	if b.sender == nil {
		return
	}
	if _, err := b.sender.Send(tgbotapi.NewMessageToChannel(username, comments[0].Body)); err != nil {
		b.logger.Error("Failed to post to target location",
			zap.Error(err),
			zap.Int64("location_id", loc.ID),
			zap.String("target", username),
		)
		b.sendWithAdminMenu(chatID, fmt.Sprintf("❌ Не вдалося розмістити повідомлення в %s.", username))
		return
	}
	b.sendWithAdminMenu(chatID, fmt.Sprintf("✅ Повідомлення розміщено в %s.", username))
}

// showCommentList renders canned outreach messages with edit/delete actions
func (b *Bot) showCommentList(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	comments, err := b.db.ListCommentTemplates(ctx)
	if err != nil {
		b.logger.Error("Failed to list comment templates", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати шаблони коментарів."))
		return
	}

	var text strings.Builder
	text.WriteString("💬 Шаблони коментарів:\n\n")
	if len(comments) == 0 {
		text.WriteString("Поки що немає збережених шаблонів.")
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, ct := range comments {
		preview := ct.Body
		if len([]rune(preview)) > 60 {
			preview = string([]rune(preview)[:60]) + "…"
		}
		text.WriteString(fmt.Sprintf("%d. %s\n%s\n\n", i+1, ct.Name, preview))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ "+ct.Name, fmt.Sprintf("cmt_edit_%d", ct.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("cmt_del_%d", ct.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Новий шаблон", "cmt_new")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "admin_menu")),
	)

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(),
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) startCommentEdit(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "cmt_edit_")
	if !ok {
		return
	}
	ct, err := b.db.GetCommentTemplate(ctx, id)
	if err != nil {
		b.reportAdminLoadError(err, chatID, "шаблон коментаря", id)
		return
	}

	b.startFlow(chatID, FlowEditComment, ct.ID, map[string]string{
		"name": ct.Name,
		"body": ct.Body,
	})
}

func (b *Bot) handleCommentDelete(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "cmt_del_")
	if !ok {
		return
	}
	if err := b.db.DeleteCommentTemplate(ctx, id); err != nil {
		b.reportAdminLoadError(err, chatID, "шаблон коментаря", id)
		return
	}
	b.sendWithAdminMenu(chatID, "✅ Шаблон коментаря видалено.")
}

// reportAdminLoadError turns a storage error into a user-visible notice.
func (b *Bot) reportAdminLoadError(err error, chatID int64, what string, id int64) {
	if errors.Is(err, storage.ErrNotFound) {
		b.sendWithAdminMenu(chatID, fmt.Sprintf("❌ Не знайдено %s (id %d).", what, id))
		return
	}
	b.logger.Error("Admin storage operation failed",
		zap.Error(err),
		zap.String("what", what),
		zap.Int64("id", id),
	)
	b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Сталася помилка. Спробуйте пізніше."))
}
