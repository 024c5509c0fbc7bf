package models

import (
	"encoding/json"
	"time"
)

// ScoreEntry is the cumulative record for one user in one chat. Correct
// answers add 1 point, incorrect ones subtract 0.5. AchievedMilestones is a
// JSON array of milestone keys ("score:10", "streak:5") so a threshold is
// announced at most once.
type ScoreEntry struct {
	ID                 uint    `gorm:"primaryKey"`
	ChatID             int64   `gorm:"not null;uniqueIndex:idx_score_chat_user"`
	UserID             int64   `gorm:"not null;uniqueIndex:idx_score_chat_user"`
	UserName           string  `gorm:"type:varchar(255)"`
	Score              float64 `gorm:"default:0;not null"`
	CorrectCount       int     `gorm:"default:0;not null"`
	Streak             int     `gorm:"default:0;not null"`
	BestStreak         int     `gorm:"default:0;not null"`
	AchievedMilestones string  `gorm:"type:text;default:'[]'"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ParseAchieved decodes the achieved-milestone set.
func (e *ScoreEntry) ParseAchieved() map[string]bool {
	achieved := make(map[string]bool)
	if e.AchievedMilestones == "" {
		return achieved
	}
	var keys []string
	if err := json.Unmarshal([]byte(e.AchievedMilestones), &keys); err != nil {
		return achieved
	}
	for _, k := range keys {
		achieved[k] = true
	}
	return achieved
}

// SetAchieved re-encodes the achieved-milestone set.
func (e *ScoreEntry) SetAchieved(achieved map[string]bool) {
	keys := make([]string, 0, len(achieved))
	for k := range achieved {
		keys = append(keys, k)
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return
	}
	e.AchievedMilestones = string(raw)
}

func (ScoreEntry) TableName() string {
	return "score_entries"
}

// AnswerRecord is the replay-protection ledger: at most one scored answer per
// (chat, user, question, calendar day). Day is formatted as YYYY-MM-DD.
type AnswerRecord struct {
	ID         uint      `gorm:"primaryKey"`
	ChatID     int64     `gorm:"not null;uniqueIndex:idx_answer_replay"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_answer_replay"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_answer_replay"`
	Day        string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_answer_replay"`
	IsCorrect  bool      `gorm:"not null"`
	AnsweredAt time.Time `gorm:"autoCreateTime"`
}

func (AnswerRecord) TableName() string {
	return "answer_records"
}
