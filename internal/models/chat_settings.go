package models

import (
	"encoding/json"
	"time"
)

// ChatSettings holds per-chat quiz preferences. Zero values mean "use the
// global default"; the repository merges them when resolving the effective
// configuration. DailyHour/DailyMinute use -1 as "unset" because 0 is a
// valid hour.
type ChatSettings struct {
	ID     uint  `gorm:"primaryKey"`
	ChatID int64 `gorm:"uniqueIndex;not null"`

	QuestionCount     int    `gorm:"default:0"`
	OpenPeriodSec     int    `gorm:"default:0"`
	AnnounceQuiz      bool   `gorm:"default:false"`
	AnnounceDelaySec  int    `gorm:"default:0"`
	CategoriesPerQuiz int    `gorm:"default:0"`
	EnabledCategories  string `gorm:"type:text;default:'[]'"` // JSON; empty = all allowed
	DisabledCategories string `gorm:"type:text;default:'[]'"`

	DailyEnabled       bool `gorm:"default:false"`
	DailyHour          int  `gorm:"default:-1"`
	DailyMinute        int  `gorm:"default:-1"`
	DailyQuestionCount int  `gorm:"default:0"`
	DailyOpenPeriodSec int  `gorm:"default:0"`
	DailyIntervalSec   int  `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (s *ChatSettings) ParseEnabledCategories() []string {
	return parseCategoryList(s.EnabledCategories)
}

func (s *ChatSettings) ParseDisabledCategories() []string {
	return parseCategoryList(s.DisabledCategories)
}

func parseCategoryList(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil
	}
	return names
}

func (ChatSettings) TableName() string {
	return "chat_settings"
}
