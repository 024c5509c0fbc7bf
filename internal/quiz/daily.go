package quiz

import (
	"fmt"
	"time"

	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

// DailySettings is the per-chat daily quiz configuration, already merged
// with the global defaults.
type DailySettings struct {
	Enabled            bool
	Hour               int
	Minute             int
	QuestionCount      int
	OpenPeriod         time.Duration
	Interval           time.Duration
	Categories         []string
	ExcludedCategories []string
	CategoryCount      int
}

// DailySettingsSource supplies daily configuration. Backed by the chat
// settings repository.
type DailySettingsSource interface {
	DailyForChat(chatID int64) (DailySettings, error)
	ChatsWithDaily() ([]int64, error)
}

// DailyScheduler arms one recurring quiz per subscribed chat. Each firing
// starts a session and re-arms itself for the next day, so a chat never has
// more than one pending daily task.
type DailyScheduler struct {
	sched *Scheduler
	orch  *Orchestrator
	src   DailySettingsSource
	loc   *time.Location

	// now is swappable for tests.
	now func() time.Time
}

func NewDailyScheduler(sched *Scheduler, orch *Orchestrator, src DailySettingsSource, loc *time.Location) *DailyScheduler {
	return &DailyScheduler{
		sched: sched,
		orch:  orch,
		src:   src,
		loc:   loc,
		now:   time.Now,
	}
}

func dailyTask(chatID int64) string {
	return fmt.Sprintf("daily-quiz:%d", chatID)
}

// ScheduleAllOnStartup arms the daily task for every subscribed chat.
func (d *DailyScheduler) ScheduleAllOnStartup() {
	chatIDs, err := d.src.ChatsWithDaily()
	if err != nil {
		logger.Error("Failed to list daily quiz chats", "error", err)
		return
	}
	for _, chatID := range chatIDs {
		if err := d.RescheduleForChat(chatID); err != nil {
			logger.Warn("Failed to schedule daily quiz", "chatID", chatID, "error", err)
		}
	}
	logger.Info("Daily quizzes scheduled", "chats", len(chatIDs))
}

// RescheduleForChat re-arms (or disarms) the chat's daily task from its
// current settings. Call after any settings change.
func (d *DailyScheduler) RescheduleForChat(chatID int64) error {
	settings, err := d.src.DailyForChat(chatID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to load daily settings")
	}

	if !settings.Enabled {
		if d.sched.Cancel(dailyTask(chatID)) {
			logger.Info("Daily quiz disarmed", "chatID", chatID)
		}
		return nil
	}

	fireAt := d.nextFire(settings.Hour, settings.Minute)
	d.sched.Schedule(dailyTask(chatID), fireAt.Sub(d.now()), func() {
		d.fire(chatID)
	})

	logger.Info("Daily quiz armed",
		"chatID", chatID,
		"at", fireAt.Format("2006-01-02 15:04 MST"))
	return nil
}

// nextFire returns the next occurrence of HH:MM in the configured location.
func (d *DailyScheduler) nextFire(hour, minute int) time.Time {
	now := d.now().In(d.loc)
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, d.loc)
	if !fireAt.After(now) {
		fireAt = fireAt.Add(24 * time.Hour)
	}
	return fireAt
}

// fire runs one daily quiz and re-arms for tomorrow. A chat with a quiz
// already running skips today's run rather than queueing behind it.
func (d *DailyScheduler) fire(chatID int64) {
	defer func() {
		if err := d.RescheduleForChat(chatID); err != nil {
			logger.Error("Failed to re-arm daily quiz", "chatID", chatID, "error", err)
		}
	}()

	settings, err := d.src.DailyForChat(chatID)
	if err != nil {
		logger.Error("Failed to load settings for daily quiz", "chatID", chatID, "error", err)
		return
	}
	if !settings.Enabled {
		return
	}

	cfg := SessionConfig{
		Kind:               KindDaily,
		QuestionCount:      settings.QuestionCount,
		OpenPeriod:         settings.OpenPeriod,
		Interval:           settings.Interval,
		Categories:         settings.Categories,
		ExcludedCategories: settings.ExcludedCategories,
		CategoryCount:      settings.CategoryCount,
	}

	if _, err := d.orch.CreateAndStart(chatID, 0, cfg); err != nil {
		if errors.HasCode(err, errors.ErrCodeSessionActive) {
			logger.Info("Daily quiz skipped, session already active", "chatID", chatID)
			if _, serr := d.orch.platform.SendMessage(chatID, "Daily quiz skipped, a quiz is already running here."); serr != nil {
				logger.Warn("Failed to notify chat about skipped daily quiz", "chatID", chatID, "error", serr)
			}
			return
		}
		logger.Error("Failed to start daily quiz", "chatID", chatID, "error", err)
	}
}
