package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"outreach/internal/cities"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Реєстрація", "register"),
			tgbotapi.NewInlineKeyboardButtonData("🔗 Отримати інвайт", "get_invite"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📺 Додати канал", "add_channel"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Додати групу", "add_group"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏙️ Мої міста", "my_cities"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "stats"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Налаштування", "settings"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Допомога", "help"),
		),
	)
}

// citiesKeyboard lays the sorted city list out in two columns
func citiesKeyboard() tgbotapi.InlineKeyboardMarkup {
	keys := cities.Keys()

	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, key := range keys {
		currentRow = append(currentRow, tgbotapi.NewInlineKeyboardButtonData(
			cities.Display(key), "select_city_"+key))
		if len(currentRow) == 2 || i == len(keys)-1 {
			rows = append(rows, currentRow)
			currentRow = nil
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "main_menu")))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func channelManagementKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📺 Мої канали", "my_channels"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Мої групи", "my_groups"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏙️ За містами", "channels_by_city"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Статистика", "channels_stats"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "main_menu"),
		),
	)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Розсилка", "admin_broadcast"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Користувачі", "admin_users"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📺 Канали", "admin_channels"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Рейтинги", "admin_ratings"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 Локації", "admin_locations"),
			tgbotapi.NewInlineKeyboardButtonData("💬 Коментарі", "admin_comments"),
		),
	)
}

// ratingKeyboard renders the 1-5 feedback row for a broadcast template
func ratingKeyboard(templateID int64) tgbotapi.InlineKeyboardMarkup {
	var stars []tgbotapi.InlineKeyboardButton
	for i := 1; i <= 5; i++ {
		stars = append(stars, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d⭐", i),
			fmt.Sprintf("rate_%d_%d", templateID, i)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		stars,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пропустити", "skip_rating")),
	)
}

func settingsKeyboard(notificationsEnabled bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData("🔔 Увімкнути сповіщення", "notif_on")
	if notificationsEnabled {
		toggle = tgbotapi.NewInlineKeyboardButtonData("🔕 Вимкнути сповіщення", "notif_off")
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(toggle),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "main_menu")),
	)
}

func backKeyboard(target string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", target)))
}

// sendMessage delivers a message, logging failures without retrying
func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.sender == nil {
		return // nil in unit tests
	}
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendWithMainMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) sendWithAdminMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = adminKeyboard()
	b.sendMessage(msg)
}

// editWithKeyboard swaps the text and keyboard of an existing menu message
func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	b.sendMessage(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard))
}
