package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/models"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
				"Сталася помилка при обробці запиту. Спробуйте ще раз."))
		}
	}()

	chatID := message.Chat.ID
	unlock := b.states.Acquire(chatID)
	defer unlock()

	ctx := context.Background()

	if message.IsCommand() {
		// Any command interrupts an in-flight conversation
		b.states.Clear(chatID)
		switch message.Command() {
		case "start":
			b.handleStart(message)
		case "admin":
			b.handleAdmin(message)
		default:
			b.sendMessage(tgbotapi.NewMessage(chatID,
				"Невідома команда. Використайте /start, щоб відкрити меню."))
		}
		return
	}

	if conv, ok := b.states.Get(chatID); ok {
		b.handleConversation(ctx, message, conv)
		return
	}

	// No conversation expects free text right now
	b.sendOrphanNotice(chatID)
}

// handleCallbackQuery processes inline keyboard button presses
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	unlock := b.states.Acquire(chatID)
	defer unlock()

	ctx := context.Background()

	// Answer the callback query to remove the loading state on the button
	if b.sender != nil {
		if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	data := query.Data

	if isAdminAction(data) && !b.isAdmin(query.From.ID) {
		b.logger.Warn("Unauthorized admin action attempt",
			zap.Int64("user_id", query.From.ID),
			zap.String("callback_data", data),
		)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ У вас немає прав доступу до адмін-панелі."))
		return
	}

	switch {
	case data == "main_menu":
		// Returning to the menu cancels any in-flight flow
		b.states.Clear(chatID)
		b.editWithKeyboard(chatID, query.Message.MessageID, "Головне меню:", mainMenuKeyboard())

	case data == "register", data == "my_cities":
		b.showCitySelection(query)
	case strings.HasPrefix(data, "select_city_"):
		b.handleCitySelection(ctx, query)
	case data == "get_invite":
		b.sendInviteInfo(chatID)

	case data == "add_channel":
		b.startFlow(chatID, FlowAddChannel, 0, nil)
	case data == "add_group":
		b.startFlow(chatID, FlowAddGroup, 0, nil)

	case strings.HasPrefix(data, "rate_"):
		b.handleRating(ctx, query)
	case data == "skip_rating":
		b.editWithKeyboard(chatID, query.Message.MessageID,
			"Добре, ви пропустили оцінку.", mainMenuKeyboard())

	case data == "stats":
		b.showOverviewStats(ctx, query)
	case data == "my_channels":
		b.showOwnEntries(ctx, query, models.EntryChannel)
	case data == "my_groups":
		b.showOwnEntries(ctx, query, models.EntryGroup)
	case strings.HasPrefix(data, "del_entry_"):
		b.handleEntryDelete(ctx, query)
	case data == "channels_by_city":
		b.showEntriesForUserCity(ctx, query)
	case data == "channels_stats":
		b.showEntryCityCounts(ctx, query)

	case data == "settings":
		b.showSettings(ctx, query)
	case data == "notif_on", data == "notif_off":
		b.handleNotificationsToggle(ctx, query, data == "notif_on")
	case data == "help":
		b.showHelp(query)

	case data == "admin_menu":
		b.editWithKeyboard(chatID, query.Message.MessageID, "🔧 Панель адміністратора", adminKeyboard())
	case data == "admin_broadcast":
		b.showTemplateList(ctx, query)
	case data == "admin_users":
		b.showUserStatsByCity(ctx, query)
	case data == "admin_channels":
		b.showCatalogStats(ctx, query)
	case data == "admin_ratings":
		b.showRatingStats(ctx, query)
	case data == "admin_locations":
		b.showLocationList(ctx, query)
	case data == "admin_comments":
		b.showCommentList(ctx, query)

	case data == "tpl_new":
		b.startFlow(chatID, FlowCreateBroadcast, 0, nil)
	case strings.HasPrefix(data, "tpl_edit_"):
		b.startTemplateEdit(ctx, query)
	case strings.HasPrefix(data, "tpl_del_"):
		b.handleTemplateDelete(ctx, query)
	case strings.HasPrefix(data, "tpl_send_"):
		b.handleTemplateSend(ctx, query)
	case strings.HasPrefix(data, "tpl_test_"):
		b.handleTemplateTest(ctx, query)

	case data == "loc_new":
		b.startFlow(chatID, FlowCreateLocation, 0, nil)
	case strings.HasPrefix(data, "loc_edit_"):
		b.startLocationEdit(ctx, query)
	case strings.HasPrefix(data, "loc_del_"):
		b.handleLocationDelete(ctx, query)
	case strings.HasPrefix(data, "loc_post_"):
		b.handleLocationPost(ctx, query)

	case data == "cmt_new":
		b.startFlow(chatID, FlowCreateComment, 0, nil)
	case strings.HasPrefix(data, "cmt_edit_"):
		b.startCommentEdit(ctx, query)
	case strings.HasPrefix(data, "cmt_del_"):
		b.handleCommentDelete(ctx, query)

	default:
		b.logger.Debug("Unhandled callback data", zap.String("data", data))
	}
}

// isAdminAction reports whether callback data belongs to the admin surface.
func isAdminAction(data string) bool {
	for _, prefix := range []string{"admin_", "tpl_", "loc_", "cmt_"} {
		if strings.HasPrefix(data, prefix) {
			return true
		}
	}
	return false
}
