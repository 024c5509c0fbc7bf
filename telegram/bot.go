package telegram

import (
	"fmt"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"github.com/lizardjazz1/morning-quiz-bot/internal/config"
	"github.com/lizardjazz1/morning-quiz-bot/internal/handlers"
	"github.com/lizardjazz1/morning-quiz-bot/internal/middleware"
	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	"github.com/lizardjazz1/morning-quiz-bot/internal/repositories"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

const workerCount = 10

type Bot struct {
	api      *tgbotapi.BotAPI
	platform *platform
	config   *config.Config
	db       *gorm.DB
	handlers *handlers.HandlerManager

	scheduler    *quiz.Scheduler
	orchestrator *quiz.Orchestrator
	daily        *quiz.DailyScheduler

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update
}

func InitBot(cfg *config.Config, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	// Initialize repositories
	questionRepo := repositories.NewQuestionRepository(db)
	scoreRepo := repositories.NewScoreRepository(db)
	statRepo := repositories.NewCategoryStatRepository(db)
	settingsRepo := repositories.NewChatSettingsRepository(db, cfg)

	// Initialize quiz core
	plat := &platform{api: api}
	scheduler := quiz.NewScheduler()
	selector := quiz.NewSelector(rand.NewSource(time.Now().UnixNano()))
	tracker := quiz.NewScoreTracker(scoreRepo)

	cleanup := quiz.CleanupTTLs{
		Status:  cfg.CleanupStatusTTL(),
		Prompts: cfg.CleanupPromptTTL(),
		Results: cfg.CleanupResultsTTL(),
	}
	grace := time.Duration(cfg.PromptTimeoutGraceSec) * time.Second
	orchestrator := quiz.NewOrchestrator(plat, scheduler, selector, tracker,
		questionRepo, statRepo, cleanup, grace)

	daily := quiz.NewDailyScheduler(scheduler, orchestrator, settingsRepo, cfg.Location())

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitWindow())

	handlerMgr := handlers.NewHandlerManager(cfg, questionRepo, settingsRepo,
		orchestrator, tracker, daily, limiter)

	bot := &Bot{
		api:          api,
		platform:     plat,
		config:       cfg,
		db:           db,
		handlers:     handlerMgr,
		scheduler:    scheduler,
		orchestrator: orchestrator,
		daily:        daily,
		workerChans:  make([]chan tgbotapi.Update, workerCount),
	}

	// Start workers
	for i := 0; i < workerCount; i++ {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		go bot.startWorker(bot.workerChans[i])
	}

	// Start update listener
	go bot.startUpdateListener()

	// Arm recurring quizzes
	daily.ScheduleAllOnStartup()

	return bot, nil
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "poll_answer"}

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			// Hashed dispatch to workers keeps per-user ordering
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.PollAnswer != nil {
				userID = update.PollAnswer.User.ID
			}

			if userID != 0 {
				workerIdx := userID % int64(len(b.workerChans))
				if workerIdx < 0 {
					workerIdx = -workerIdx
				}
				b.workerChans[workerIdx] <- update
			} else {
				go b.handleUpdate(update)
			}
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.PollAnswer != nil {
		b.handlers.HandlePollAnswer(update.PollAnswer)
		return
	}
	if update.Message != nil && update.Message.IsCommand() {
		b.handleCommand(update.Message)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	if err := b.handlers.AllowCommand(message.From.ID); err != nil {
		logger.Debug("Command rate limited",
			"user_id", message.From.ID,
			"command", message.Command(),
			"error", err)
		return
	}

	logger.Debug("Received command",
		"user_id", message.From.ID,
		"chat_id", message.Chat.ID,
		"command", message.Command(),
		"budget_left", b.handlers.Limiter.Remaining(message.From.ID))

	switch message.Command() {
	case "start":
		b.handlers.HandleStartCommand(message, b)
	case "help":
		b.handlers.HandleHelpCommand(message, b)
	case "quiz":
		b.handlers.HandleQuizCommand(message, b)
	case "stopquiz":
		b.handlers.HandleStopCommand(message, b)
	case "categories":
		b.handlers.HandleCategoriesCommand(message, b)
	case "rating":
		b.handlers.HandleRatingCommand(message, b)
	case "globalrating":
		b.handlers.HandleGlobalRatingCommand(message, b)
	case "dailyquiz":
		b.handlers.HandleDailyQuizCommand(message, b)
	}
}

// SendMessage implements handlers.BotInterface
func (b *Bot) SendMessage(chatID int64, text string) int {
	msgID, err := b.platform.SendMessage(chatID, text)
	if err != nil {
		return 0
	}
	return msgID
}

// DeleteMessage implements handlers.BotInterface
func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	if err := b.platform.DeleteMessage(chatID, messageID); err != nil {
		logger.Error("Failed to delete message", "chat_id", chatID, "msg_id", messageID, "error", err)
	}
}

// IsChatAdmin implements handlers.BotInterface
func (b *Bot) IsChatAdmin(chatID, userID int64) bool {
	isAdmin, err := b.platform.IsAdmin(chatID, userID)
	if err != nil {
		logger.Warn("Failed to check chat admin", "chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	return isAdmin
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.orchestrator.StopAll()
	b.scheduler.Stop()
	logger.Info("Bot stopped")
}
