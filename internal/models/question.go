package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Question is one multiple-choice trivia question. Options are stored as a
// JSON array; CorrectIndex points into that array.
type Question struct {
	ID           uint      `gorm:"primaryKey"`
	Text         string    `gorm:"type:text;not null"`
	Options      string    `gorm:"type:text;not null"` // JSON: ["Paris", "London", ...]
	CorrectIndex int       `gorm:"not null"`
	Category     string    `gorm:"type:varchar(100);not null;index"`
	Explanation  string    `gorm:"type:text"` // optional, shown after the prompt closes
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Telegram quiz polls accept between 2 and 10 options.
const (
	MinPromptOptions = 2
	MaxPromptOptions = 10
)

// ParseOptions decodes the JSON options column.
func (q *Question) ParseOptions() ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return nil, err
	}
	return options, nil
}

// BeforeSave validates that the option list and correct index are coherent.
func (q *Question) BeforeSave(tx *gorm.DB) error {
	options, err := q.ParseOptions()
	if err != nil {
		return gorm.ErrInvalidData
	}
	if len(options) < MinPromptOptions || len(options) > MaxPromptOptions {
		return gorm.ErrInvalidData
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(options) {
		return gorm.ErrInvalidData
	}
	if q.Text == "" || q.Category == "" {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Question) TableName() string {
	return "questions"
}
