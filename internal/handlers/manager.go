package handlers

import (
	"github.com/lizardjazz1/morning-quiz-bot/internal/config"
	"github.com/lizardjazz1/morning-quiz-bot/internal/middleware"
	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	"github.com/lizardjazz1/morning-quiz-bot/internal/repositories"
	apperrors "github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
)

// Bot interface to avoid circular dependency
type BotInterface interface {
	SendMessage(chatID int64, text string) int
	DeleteMessage(chatID int64, messageID int)
	IsChatAdmin(chatID, userID int64) bool
}

type HandlerManager struct {
	Config       *config.Config
	QuestionRepo *repositories.QuestionRepository
	SettingsRepo *repositories.ChatSettingsRepository
	Orchestrator *quiz.Orchestrator
	Tracker      *quiz.ScoreTracker
	Daily        *quiz.DailyScheduler
	Limiter      *middleware.RateLimiter
}

func NewHandlerManager(
	cfg *config.Config,
	questionRepo *repositories.QuestionRepository,
	settingsRepo *repositories.ChatSettingsRepository,
	orch *quiz.Orchestrator,
	tracker *quiz.ScoreTracker,
	daily *quiz.DailyScheduler,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:       cfg,
		QuestionRepo: questionRepo,
		SettingsRepo: settingsRepo,
		Orchestrator: orch,
		Tracker:      tracker,
		Daily:        daily,
		Limiter:      limiter,
	}
}

// AllowCommand applies the per-user rate limit to one command. A non-nil
// error means the user is over budget; the caller drops the command silently.
func (h *HandlerManager) AllowCommand(userID int64) error {
	if !h.Limiter.Allow(userID) {
		return apperrors.New(apperrors.ErrCodeRateLimitExceeded, "command budget exhausted")
	}
	return nil
}

// isPrivileged reports whether the user may manage quizzes in the chat.
func (h *HandlerManager) isPrivileged(chatID, userID int64, bot BotInterface) bool {
	if userID == h.Config.SuperAdminTgID {
		return true
	}
	return bot.IsChatAdmin(chatID, userID)
}
