package handlers

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/utils"
)

const leaderboardSize = 10

// HandleRatingCommand shows the chat leaderboard: /rating
func (h *HandlerManager) HandleRatingCommand(message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID

	top, err := h.Tracker.ChatTop(chatID, leaderboardSize)
	if err != nil {
		logger.Error("Failed to load chat rating", "chatID", chatID, "error", err)
		bot.SendMessage(chatID, "Could not load the rating, please try again.")
		return
	}
	if len(top) == 0 {
		bot.SendMessage(chatID, "Nobody has scored in this chat yet. Start with /quiz!")
		return
	}

	var b strings.Builder
	b.WriteString("🏆 Chat rating:\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, entry := range top {
		marker := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			marker = medals[i]
		}
		b.WriteString(fmt.Sprintf("%s %s — %s (best streak %d)\n",
			marker, entry.UserName,
			utils.Pluralize(entry.Score, "point", "points"),
			entry.BestStreak))
	}
	bot.SendMessage(chatID, b.String())
}

// HandleGlobalRatingCommand shows the cross-chat leaderboard: /globalrating
func (h *HandlerManager) HandleGlobalRatingCommand(message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID

	top, err := h.Tracker.GlobalTop(leaderboardSize)
	if err != nil {
		logger.Error("Failed to load global rating", "chatID", chatID, "error", err)
		bot.SendMessage(chatID, "Could not load the rating, please try again.")
		return
	}
	if len(top) == 0 {
		bot.SendMessage(chatID, "Nobody has scored anywhere yet.")
		return
	}

	var b strings.Builder
	b.WriteString("🌍 Global rating:\n")
	for i, score := range top {
		b.WriteString(fmt.Sprintf("%d. %s — %s\n",
			i+1, score.UserName,
			utils.Pluralize(score.Score, "point", "points")))
	}
	bot.SendMessage(chatID, b.String())
}
