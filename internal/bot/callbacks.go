package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/cities"
	"outreach/internal/models"
	"outreach/internal/storage"
)

// showCitySelection displays the city keyboard for registration or city change
func (b *Bot) showCitySelection(query *tgbotapi.CallbackQuery) {
	text := "📝 Реєстрація\n\nОберіть ваше місто для таргетованих розсилок:"
	if query.Data == "my_cities" {
		text = "🏙️ Оберіть місто для налаштування таргетованих розсилок:"
	}
	b.editWithKeyboard(query.Message.Chat.ID, query.Message.MessageID, text, citiesKeyboard())
}

// handleCitySelection upserts the user with the picked city
func (b *Bot) handleCitySelection(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID
	cityKey := strings.TrimPrefix(query.Data, "select_city_")

	user := models.User{
		ChatID:    chatID,
		Username:  query.From.UserName,
		FirstName: query.From.FirstName,
		City:      cityKey,
	}
	if err := b.db.UpsertUser(ctx, user); err != nil {
		b.logger.Error("Failed to register user",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("city", cityKey),
		)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Сталася помилка при реєстрації. Спробуйте ще раз."))
		return
	}

	display := cities.Display(cityKey)
	b.editWithKeyboard(chatID, query.Message.MessageID, fmt.Sprintf(
		"✅ Вітаємо в %s! %s\n\n"+
			"Тепер ви будете отримувати таргетовані розсилки для вашого міста.\n"+
			"Ви також можете додавати канали та групи для %s.",
		display, cities.Hashtag(cityKey), display), mainMenuKeyboard())
}

// sendInviteInfo explains how to obtain an invite link
func (b *Bot) sendInviteInfo(chatID int64) {
	text := "🔗 Щоб отримати посилання-запрошення, будь ласка, зверніться до адміністратора каналу."
	if b.inviteChannelID != 0 {
		text += fmt.Sprintf(" (Channel ID: %d)", b.inviteChannelID)
	}
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// handleRating upserts a 1-5 rating for a broadcast template
func (b *Bot) handleRating(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	parts := strings.Split(query.Data, "_")
	if len(parts) != 3 {
		return
	}
	templateID, err1 := strconv.ParseInt(parts[1], 10, 64)
	value, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || value < 1 || value > 5 {
		return
	}

	rating := models.Rating{
		UserChatID: query.From.ID,
		TemplateID: templateID,
		Value:      value,
	}
	if err := b.db.UpsertRating(ctx, rating); err != nil {
		b.logger.Error("Failed to save rating",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID),
			zap.Int64("template_id", templateID),
		)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Помилка при збереженні оцінки."))
		return
	}

	b.editWithKeyboard(chatID, query.Message.MessageID, fmt.Sprintf(
		"✅ Дякуємо за оцінку: %d⭐\n\nВаша думка допоможе нам покращити якість розсилок!",
		value), mainMenuKeyboard())
}

// showOverviewStats shows community user counts and opens the catalog views
func (b *Bot) showOverviewStats(ctx context.Context, query *tgbotapi.CallbackQuery) {
	counts, err := b.db.CountUsersByCity(ctx)
	if err != nil {
		b.logger.Error("Failed to count users by city", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(query.Message.Chat.ID, "❌ Не вдалося отримати статистику."))
		return
	}

	var text strings.Builder
	text.WriteString("📊 Статистика спільноти:\n\n")
	total := 0
	for _, count := range counts {
		text.WriteString(fmt.Sprintf("🏙️ %s %s: %d\n",
			cities.Display(count.City), cities.Hashtag(count.City), count.Count))
		total += count.Count
	}
	text.WriteString(fmt.Sprintf("\nЗагалом: %d користувачів", total))

	b.editWithKeyboard(query.Message.Chat.ID, query.Message.MessageID,
		text.String(), channelManagementKeyboard())
}

// showOwnEntries lists the caller's channels or groups with delete buttons
func (b *Bot) showOwnEntries(ctx context.Context, query *tgbotapi.CallbackQuery, kind models.EntryKind) {
	chatID := query.Message.Chat.ID

	entries, err := b.db.ListCatalogEntriesByOwner(ctx, kind, query.From.ID)
	if err != nil {
		b.logger.Error("Failed to list own catalog entries", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати список."))
		return
	}

	title := "📺 Мої канали:"
	if kind == models.EntryGroup {
		title = "👥 Мої групи:"
	}
	if len(entries) == 0 {
		b.editWithKeyboard(chatID, query.Message.MessageID,
			title+"\n\nПоки що порожньо.", backKeyboard("stats"))
		return
	}

	var text strings.Builder
	text.WriteString(title + "\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, entry := range entries {
		text.WriteString(fmt.Sprintf("%d. @%s — %s\n%s\n", i+1, entry.Name,
			cities.Display(entry.City), entry.Link))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"🗑 "+entry.Name, fmt.Sprintf("del_entry_%d", entry.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "stats")))

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(),
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleEntryDelete removes a catalog entry if the caller owns it
func (b *Bot) handleEntryDelete(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	id, ok := parseID(query.Data, "del_entry_")
	if !ok {
		return
	}

	err := b.db.DeleteCatalogEntry(ctx, id, query.From.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Запис не знайдено або він доданий не вами."))
		return
	}
	if err != nil {
		b.logger.Error("Failed to delete catalog entry",
			zap.Error(err),
			zap.Int64("entry_id", id),
			zap.Int64("user_id", query.From.ID),
		)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося видалити запис."))
		return
	}

	b.editWithKeyboard(chatID, query.Message.MessageID, "✅ Запис видалено.", channelManagementKeyboard())
}

// showEntriesForUserCity lists channels and groups for the caller's city
func (b *Bot) showEntriesForUserCity(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	city := defaultCity
	if user, err := b.db.GetUser(ctx, chatID); err == nil {
		city = user.City
	}

	channels, err := b.db.ListCatalogEntriesByCity(ctx, models.EntryChannel, city)
	if err != nil {
		b.logger.Error("Failed to list channels by city", zap.Error(err), zap.String("city", city))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати список."))
		return
	}
	groups, err := b.db.ListCatalogEntriesByCity(ctx, models.EntryGroup, city)
	if err != nil {
		b.logger.Error("Failed to list groups by city", zap.Error(err), zap.String("city", city))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати список."))
		return
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("🏙️ %s %s\n\n📺 Канали:\n",
		cities.Display(city), cities.Hashtag(city)))
	if len(channels) == 0 {
		text.WriteString("  Немає доданих каналів.\n")
	}
	for _, entry := range channels {
		text.WriteString(fmt.Sprintf("  @%s — %s\n", entry.Name, entry.Link))
	}
	text.WriteString("\n👥 Групи:\n")
	if len(groups) == 0 {
		text.WriteString("  Немає доданих груп.\n")
	}
	for _, entry := range groups {
		text.WriteString(fmt.Sprintf("  @%s — %s\n", entry.Name, entry.Link))
	}

	b.editWithKeyboard(chatID, query.Message.MessageID, text.String(), backKeyboard("stats"))
}

// showEntryCityCounts renders per-city channel and group counts
func (b *Bot) showEntryCityCounts(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	text, err := b.renderCatalogStats(ctx)
	if err != nil {
		b.logger.Error("Failed to count catalog entries", zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати статистику."))
		return
	}
	b.editWithKeyboard(chatID, query.Message.MessageID, text, backKeyboard("stats"))
}

// renderCatalogStats builds the per-city channel/group counts view
func (b *Bot) renderCatalogStats(ctx context.Context) (string, error) {
	channelCounts, err := b.db.CountCatalogEntriesByCity(ctx, models.EntryChannel)
	if err != nil {
		return "", err
	}
	groupCounts, err := b.db.CountCatalogEntriesByCity(ctx, models.EntryGroup)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	text.WriteString("📊 Статистика каналів та груп:\n\n📺 Канали по містах:\n")
	totalChannels := 0
	if len(channelCounts) == 0 {
		text.WriteString("  Немає доданих каналів.\n")
	}
	for _, count := range channelCounts {
		text.WriteString(fmt.Sprintf("  %s: %d\n", cities.Display(count.City), count.Count))
		totalChannels += count.Count
	}
	text.WriteString(fmt.Sprintf("Всього каналів: %d\n\n👥 Групи по містах:\n", totalChannels))

	totalGroups := 0
	if len(groupCounts) == 0 {
		text.WriteString("  Немає доданих груп.\n")
	}
	for _, count := range groupCounts {
		text.WriteString(fmt.Sprintf("  %s: %d\n", cities.Display(count.City), count.Count))
		totalGroups += count.Count
	}
	text.WriteString(fmt.Sprintf("Всього груп: %d", totalGroups))
	return text.String(), nil
}

// showSettings displays the caller's city and notification toggle
func (b *Bot) showSettings(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	user, err := b.db.GetUser(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		b.editWithKeyboard(chatID, query.Message.MessageID,
			"⚙️ Ви ще не зареєстровані. Оберіть «Реєстрація» в головному меню.",
			backKeyboard("main_menu"))
		return
	}
	if err != nil {
		b.logger.Error("Failed to load user settings", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося отримати налаштування."))
		return
	}

	status := "вимкнені"
	if user.Notifications {
		status = "увімкнені"
	}
	text := fmt.Sprintf("⚙️ Налаштування\n\n🏙️ Місто: %s %s\n🔔 Сповіщення: %s",
		cities.Display(user.City), cities.Hashtag(user.City), status)
	b.editWithKeyboard(chatID, query.Message.MessageID, text, settingsKeyboard(user.Notifications))
}

// handleNotificationsToggle flips broadcast notifications for the caller
func (b *Bot) handleNotificationsToggle(ctx context.Context, query *tgbotapi.CallbackQuery, enable bool) {
	chatID := query.Message.Chat.ID

	if err := b.db.SetNotifications(ctx, chatID, enable); err != nil {
		b.logger.Error("Failed to toggle notifications",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Bool("enable", enable),
		)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Не вдалося змінити налаштування."))
		return
	}

	text := "🔕 Сповіщення вимкнено."
	if enable {
		text = "🔔 Сповіщення увімкнено."
	}
	b.editWithKeyboard(chatID, query.Message.MessageID, text, settingsKeyboard(enable))
}

// showHelp renders the static help view
func (b *Bot) showHelp(query *tgbotapi.CallbackQuery) {
	text := "❓ Допомога\n\n" +
		"• «Реєстрація» — оберіть місто, щоб отримувати таргетовані розсилки\n" +
		"• «Додати канал/групу» — додайте посилання для вашого міста\n" +
		"• «Статистика» — перегляд каналів та груп по містах\n" +
		"• «Налаштування» — керування сповіщеннями"
	b.editWithKeyboard(query.Message.Chat.ID, query.Message.MessageID, text, backKeyboard("main_menu"))
}

// parseID extracts the numeric suffix of callback data after a prefix.
func parseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
