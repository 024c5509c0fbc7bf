package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🎓 Quiz bot commands:
/quiz [count] [category] — start a quiz
/stopquiz — stop the running quiz
/categories — list question categories
/rating — chat leaderboard
/globalrating — leaderboard across all chats
/dailyquiz on|off|time HH:MM — recurring morning quiz (admins)
/help — this message`

// HandleStartCommand greets on /start
func (h *HandlerManager) HandleStartCommand(message *tgbotapi.Message, bot BotInterface) {
	bot.SendMessage(message.Chat.ID, "👋 Ready for a quiz? Try /quiz, or /help for all commands.")
}

// HandleHelpCommand lists commands on /help
func (h *HandlerManager) HandleHelpCommand(message *tgbotapi.Message, bot BotInterface) {
	bot.SendMessage(message.Chat.ID, helpText)
}
