package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	apperrors "github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

// HandleQuizCommand starts a quiz: /quiz [count] [category...]
// A bare /quiz uses the chat's effective settings.
func (h *HandlerManager) HandleQuizCommand(message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID

	eff, err := h.SettingsRepo.GetEffective(chatID)
	if err != nil {
		logger.Error("Failed to load chat settings", "chatID", chatID, "error", err)
		bot.SendMessage(chatID, "Something went wrong, please try again.")
		return
	}

	count := eff.QuestionCount
	var categories []string

	args := strings.Fields(message.CommandArguments())
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			count = n
			args = args[1:]
		}
		if len(args) > 0 {
			categories = []string{strings.Join(args, " ")}
		}
	}

	if count < 1 || count > h.Config.MaxQuestionCount {
		h.replyQuizError(chatID, apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("question count %d out of bounds", count)), bot)
		return
	}
	if len(categories) == 0 && len(eff.EnabledCategories) > 0 {
		categories = eff.EnabledCategories
	}

	cfg := quiz.SessionConfig{
		Kind:               quiz.KindManual,
		QuestionCount:      count,
		OpenPeriod:         eff.OpenPeriod,
		Categories:         categories,
		ExcludedCategories: eff.DisabledCategories,
		CategoryCount:      eff.CategoriesPerQuiz,
		Announce:           eff.Announce,
		AnnounceDelay:      eff.AnnounceDelay,
	}

	_, err = h.Orchestrator.CreateAndStart(chatID, message.From.ID, cfg)
	if err != nil {
		h.replyQuizError(chatID, err, bot)
	}
}

func (h *HandlerManager) replyQuizError(chatID int64, err error, bot BotInterface) {
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid):
		bot.SendMessage(chatID, fmt.Sprintf(
			"Question count must be between 1 and %d.", h.Config.MaxQuestionCount))
	case apperrors.HasCode(err, apperrors.ErrCodeSessionActive):
		bot.SendMessage(chatID, "A quiz is already running here. Finish it or use /stopquiz.")
	case apperrors.HasCode(err, apperrors.ErrCodeNoQuestions):
		bot.SendMessage(chatID, "No questions found for that selection. Try /categories to see what's available.")
	case apperrors.HasCode(err, apperrors.ErrCodePlatformIO):
		// CreateAndStart already told the chat about the send failure.
	default:
		logger.Error("Failed to start quiz", "chatID", chatID, "error", err)
		bot.SendMessage(chatID, "Could not start the quiz, please try again.")
	}
}

// HandleStopCommand aborts the running quiz: /stopquiz
// Chat admins can always stop; the initiator can stop their own manual quiz.
func (h *HandlerManager) HandleStopCommand(message *tgbotapi.Message, bot BotInterface) {
	chatID := message.Chat.ID
	userID := message.From.ID

	info, running := h.Orchestrator.ActiveSession(chatID)
	if !running {
		bot.SendMessage(chatID, "No quiz is running right now.")
		return
	}

	allowed := h.isPrivileged(chatID, userID, bot)
	if !allowed && info.Kind == quiz.KindManual && info.InitiatorID == userID {
		allowed = true
	}
	if !allowed {
		bot.SendMessage(chatID, "Only chat admins or the quiz starter can stop it.")
		return
	}

	if err := h.Orchestrator.Stop(chatID); err != nil {
		if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			logger.Error("Failed to stop quiz", "chatID", chatID, "error", err)
		}
	}
}

// HandleCategoriesCommand lists playable categories: /categories
func (h *HandlerManager) HandleCategoriesCommand(message *tgbotapi.Message, bot BotInterface) {
	categories, err := h.QuestionRepo.Categories()
	if err != nil {
		logger.Error("Failed to list categories", "chatID", message.Chat.ID, "error", err)
		bot.SendMessage(message.Chat.ID, "Could not load the category list.")
		return
	}
	if len(categories) == 0 {
		bot.SendMessage(message.Chat.ID, "No questions are loaded yet.")
		return
	}

	var b strings.Builder
	b.WriteString("📚 Available categories:\n")
	for _, c := range categories {
		b.WriteString(fmt.Sprintf("• %s (%d)\n", c.Name, c.QuestionCount))
	}
	bot.SendMessage(message.Chat.ID, b.String())
}
