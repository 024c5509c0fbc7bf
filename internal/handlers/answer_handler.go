package handlers

import (
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
)

// HandlePollAnswer routes a poll vote into the quiz core. Retracted votes
// (empty option list) are ignored; Telegram quiz polls do not allow
// changing an answer anyway.
func (h *HandlerManager) HandlePollAnswer(answer *tgbotapi.PollAnswer) {
	if answer.User.ID == 0 || len(answer.OptionIDs) == 0 {
		return
	}

	h.Orchestrator.OnAnswer(quiz.Answer{
		PromptID:   answer.PollID,
		UserID:     answer.User.ID,
		UserName:   displayName(&answer.User),
		OptionIdx:  answer.OptionIDs[0],
		AnsweredAt: time.Now(),
	})
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	if name == "" {
		name = "Anonymous"
	}
	return name
}
