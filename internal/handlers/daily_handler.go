package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

// HandleDailyQuizCommand manages the recurring quiz (admin-only):
//
//	/dailyquiz on
//	/dailyquiz off
//	/dailyquiz time HH:MM
//	/dailyquiz status
func (h *HandlerManager) HandleDailyQuizCommand(message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID
	userID := message.From.ID

	args := strings.Fields(strings.ToLower(message.CommandArguments()))
	if len(args) == 0 || args[0] == "status" {
		h.sendDailyStatus(chatID, bot)
		return
	}

	if !h.isPrivileged(chatID, userID, bot) {
		bot.SendMessage(chatID, "Only chat admins can change the daily quiz.")
		return
	}

	switch args[0] {
	case "on":
		h.setDailyEnabled(chatID, true, bot)
	case "off":
		h.setDailyEnabled(chatID, false, bot)
	case "time":
		if len(args) < 2 {
			bot.SendMessage(chatID, "Usage: /dailyquiz time HH:MM")
			return
		}
		h.setDailyTime(chatID, args[1], bot)
	default:
		bot.SendMessage(chatID, "Usage: /dailyquiz on|off|time HH:MM|status")
	}
}

func (h *HandlerManager) sendDailyStatus(chatID int64, bot BotInterface) {
	daily, err := h.SettingsRepo.DailyForChat(chatID)
	if err != nil {
		logger.Error("Failed to load daily settings", "chatID", chatID, "error", err)
		bot.SendMessage(chatID, "Could not load the daily quiz settings.")
		return
	}

	if !daily.Enabled {
		bot.SendMessage(chatID, "Daily quiz is off. Admins can enable it with /dailyquiz on.")
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf(
		"Daily quiz is on: %02d:%02d (%s), %d questions.",
		daily.Hour, daily.Minute, h.Config.Timezone, daily.QuestionCount))
}

func (h *HandlerManager) setDailyEnabled(chatID int64, enabled bool, bot BotInterface) {
	if err := h.SettingsRepo.SetDailyEnabled(chatID, enabled); err != nil {
		logger.Error("Failed to toggle daily quiz", "chatID", chatID, "error", err)
		bot.SendMessage(chatID, "Could not update the daily quiz settings.")
		return
	}
	if err := h.Daily.RescheduleForChat(chatID); err != nil {
		logger.Error("Failed to reschedule daily quiz", "chatID", chatID, "error", err)
	}

	if enabled {
		daily, err := h.SettingsRepo.DailyForChat(chatID)
		if err == nil {
			bot.SendMessage(chatID, fmt.Sprintf(
				"Daily quiz enabled, next one at %02d:%02d (%s).",
				daily.Hour, daily.Minute, h.Config.Timezone))
			return
		}
		bot.SendMessage(chatID, "Daily quiz enabled.")
		return
	}
	bot.SendMessage(chatID, "Daily quiz disabled.")
}

func (h *HandlerManager) setDailyTime(chatID int64, arg string, bot BotInterface) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		bot.SendMessage(chatID, "Time must look like 07:30.")
		return
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		bot.SendMessage(chatID, "Time must look like 07:30.")
		return
	}

	if err := h.SettingsRepo.SetDailyTime(chatID, hour, minute); err != nil {
		bot.SendMessage(chatID, "Time must be between 00:00 and 23:59.")
		return
	}
	if err := h.Daily.RescheduleForChat(chatID); err != nil {
		logger.Error("Failed to reschedule daily quiz", "chatID", chatID, "error", err)
	}

	bot.SendMessage(chatID, fmt.Sprintf(
		"Daily quiz time set to %02d:%02d (%s).", hour, minute, h.Config.Timezone))
}
