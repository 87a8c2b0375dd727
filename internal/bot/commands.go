package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleStart shows the welcome message and the main menu
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := "Привіт, " + message.From.FirstName + "! 👋\n\n" +
		"Я бот для роботи з каналами та групами України.\n" +
		"Можу допомогти:\n" +
		"• Додавати канали та групи по містах\n" +
		"• Розсилати запрошення сегментовано\n" +
		"• Знаходити цільову аудиторію з хештегами\n\n" +
		"Оберіть дію з меню:"

	b.sendWithMainMenu(message.Chat.ID, text)
}

// handleAdmin opens the admin panel for allow-listed chats only
func (b *Bot) handleAdmin(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !b.isAdmin(message.From.ID) {
		b.logger.Warn("Unauthorized /admin attempt",
			zap.Int64("user_id", message.From.ID),
			zap.String("username", message.From.UserName),
		)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ У вас немає прав доступу до адмін-панелі."))
		return
	}

	msg := tgbotapi.NewMessage(chatID, "🔧 Панель адміністратора")
	msg.ReplyMarkup = adminKeyboard()
	b.sendMessage(msg)
}
