package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/utils"
)

// platform adapts the Telegram API to quiz.Platform. Questions go out as
// native quiz polls, so Telegram collects answers and renders the correct
// option without any bot-side UI.
type platform struct {
	api *tgbotapi.BotAPI
}

func (p *platform) EmitPrompt(chatID int64, question string, options []string, correctIndex int, explanation string, openPeriod time.Duration) (string, int, error) {
	poll := tgbotapi.NewPoll(chatID, question, options...)
	poll.Type = "quiz"
	poll.CorrectOptionID = int64(correctIndex)
	poll.IsAnonymous = false
	poll.OpenPeriod = int(openPeriod.Seconds())
	if explanation != "" {
		// Telegram caps quiz explanations at 200 characters.
		poll.Explanation = utils.Truncate(explanation, 200)
	}

	msg, err := p.send(poll)
	if err != nil {
		return "", 0, fmt.Errorf("failed to send quiz poll: %w", err)
	}
	if msg.Poll == nil {
		return "", 0, fmt.Errorf("poll message came back without poll data")
	}
	return msg.Poll.ID, msg.MessageID, nil
}

func (p *platform) ClosePrompt(chatID int64, messageID int) error {
	stop := tgbotapi.NewStopPoll(chatID, messageID)
	if _, err := p.api.StopPoll(stop); err != nil {
		return fmt.Errorf("failed to stop poll: %w", err)
	}
	return nil
}

func (p *platform) SendMessage(chatID int64, text string) (int, error) {
	msg, err := p.send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (p *platform) DeleteMessage(chatID int64, messageID int) error {
	if messageID == 0 {
		return nil
	}
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := p.api.Request(deleteMsg); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (p *platform) IsAdmin(chatID, userID int64) (bool, error) {
	member, err := p.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return member.IsAdministrator() || member.IsCreator(), nil
}

// send delivers with retries on transient network errors.
func (p *platform) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	maxRetries := 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		msg, err := p.api.Send(c)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		logger.Error("Failed to send to Telegram", "error", err, "attempt", i+1)

		if strings.Contains(err.Error(), "connection reset") ||
			strings.Contains(err.Error(), "timeout") ||
			strings.Contains(err.Error(), "network is unreachable") {
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		break
	}
	return tgbotapi.Message{}, lastErr
}
