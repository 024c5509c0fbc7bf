package repositories

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/lizardjazz1/morning-quiz-bot/internal/config"
	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
)

// EffectiveSettings is a chat's configuration with global defaults already
// merged in. What the quiz actually runs with.
type EffectiveSettings struct {
	QuestionCount      int
	OpenPeriod         time.Duration
	Announce           bool
	AnnounceDelay      time.Duration
	CategoriesPerQuiz  int
	EnabledCategories  []string
	DisabledCategories []string
}

// ChatSettingsRepository stores per-chat overrides and resolves them against
// the global defaults. Implements quiz.DailySettingsSource.
type ChatSettingsRepository struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewChatSettingsRepository(db *gorm.DB, cfg *config.Config) *ChatSettingsRepository {
	return &ChatSettingsRepository{db: db, cfg: cfg}
}

// GetOrCreate returns the chat's settings row, creating a defaults row on
// first contact.
func (r *ChatSettingsRepository) GetOrCreate(chatID int64) (*models.ChatSettings, error) {
	var settings models.ChatSettings
	result := r.db.Where("chat_id = ?", chatID).First(&settings)

	if result.Error == gorm.ErrRecordNotFound {
		settings = models.ChatSettings{
			ChatID:             chatID,
			DailyHour:          -1,
			DailyMinute:        -1,
			EnabledCategories:  "[]",
			DisabledCategories: "[]",
		}
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create chat settings")
		}
		return &settings, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get chat settings")
	}
	return &settings, nil
}

// Save persists modified settings
func (r *ChatSettingsRepository) Save(settings *models.ChatSettings) error {
	result := r.db.Save(settings)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to save chat settings")
	}
	return nil
}

// SetDailyEnabled toggles the daily quiz for a chat
func (r *ChatSettingsRepository) SetDailyEnabled(chatID int64, enabled bool) error {
	settings, err := r.GetOrCreate(chatID)
	if err != nil {
		return err
	}
	settings.DailyEnabled = enabled
	return r.Save(settings)
}

// SetDailyTime overrides the chat's daily quiz time
func (r *ChatSettingsRepository) SetDailyTime(chatID int64, hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return errors.New(errors.ErrCodeValidation, "daily time must be HH:MM within 00:00-23:59")
	}
	settings, err := r.GetOrCreate(chatID)
	if err != nil {
		return err
	}
	settings.DailyHour = hour
	settings.DailyMinute = minute
	return r.Save(settings)
}

// SetEnabledCategories restricts the chat's category pool. An empty list
// means all categories are allowed again.
func (r *ChatSettingsRepository) SetEnabledCategories(chatID int64, names []string) error {
	settings, err := r.GetOrCreate(chatID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode categories")
	}
	settings.EnabledCategories = string(raw)
	return r.Save(settings)
}

// GetEffective resolves the chat's manual-quiz settings over the global
// defaults. Zero overrides fall through to config values.
func (r *ChatSettingsRepository) GetEffective(chatID int64) (*EffectiveSettings, error) {
	settings, err := r.GetOrCreate(chatID)
	if err != nil {
		return nil, err
	}

	eff := &EffectiveSettings{
		QuestionCount:      r.cfg.DefaultQuestionCount,
		OpenPeriod:         time.Duration(r.cfg.DefaultOpenPeriodSec) * time.Second,
		Announce:           settings.AnnounceQuiz,
		AnnounceDelay:      time.Duration(r.cfg.DefaultAnnounceDelay) * time.Second,
		CategoriesPerQuiz:  r.cfg.CategoriesPerQuiz,
		EnabledCategories:  settings.ParseEnabledCategories(),
		DisabledCategories: settings.ParseDisabledCategories(),
	}
	if settings.QuestionCount > 0 {
		eff.QuestionCount = settings.QuestionCount
	}
	if settings.OpenPeriodSec > 0 {
		eff.OpenPeriod = time.Duration(settings.OpenPeriodSec) * time.Second
	}
	if settings.AnnounceDelaySec > 0 {
		eff.AnnounceDelay = time.Duration(settings.AnnounceDelaySec) * time.Second
	}
	if settings.CategoriesPerQuiz > 0 {
		eff.CategoriesPerQuiz = settings.CategoriesPerQuiz
	}
	return eff, nil
}

// DailyForChat resolves the chat's daily quiz configuration over the global
// defaults.
func (r *ChatSettingsRepository) DailyForChat(chatID int64) (quiz.DailySettings, error) {
	settings, err := r.GetOrCreate(chatID)
	if err != nil {
		return quiz.DailySettings{}, err
	}

	daily := quiz.DailySettings{
		Enabled:            settings.DailyEnabled,
		Hour:               r.cfg.DailyHour,
		Minute:             r.cfg.DailyMinute,
		QuestionCount:      r.cfg.DailyQuestionCount,
		OpenPeriod:         time.Duration(r.cfg.DailyOpenPeriodSec) * time.Second,
		Interval:           time.Duration(r.cfg.DailyIntervalSec) * time.Second,
		Categories:         settings.ParseEnabledCategories(),
		ExcludedCategories: settings.ParseDisabledCategories(),
		CategoryCount:      r.cfg.CategoriesPerQuiz,
	}
	if settings.DailyHour >= 0 {
		daily.Hour = settings.DailyHour
	}
	if settings.DailyMinute >= 0 {
		daily.Minute = settings.DailyMinute
	}
	if settings.DailyQuestionCount > 0 {
		daily.QuestionCount = settings.DailyQuestionCount
	}
	if settings.DailyOpenPeriodSec > 0 {
		daily.OpenPeriod = time.Duration(settings.DailyOpenPeriodSec) * time.Second
	}
	if settings.DailyIntervalSec > 0 {
		daily.Interval = time.Duration(settings.DailyIntervalSec) * time.Second
	}
	if settings.CategoriesPerQuiz > 0 {
		daily.CategoryCount = settings.CategoriesPerQuiz
	}
	return daily, nil
}

// ChatsWithDaily lists every chat that has the daily quiz enabled
func (r *ChatSettingsRepository) ChatsWithDaily() ([]int64, error) {
	var chatIDs []int64
	result := r.db.Model(&models.ChatSettings{}).
		Where("daily_enabled = ?", true).
		Pluck("chat_id", &chatIDs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list daily chats")
	}
	return chatIDs, nil
}
