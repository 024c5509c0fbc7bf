package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
)

// ScoreRepository persists score entries and the answer ledger. Implements
// quiz.ScoreStore.
type ScoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// RecordAnswer appends to the answer ledger. The unique index on
// (chat, user, question, day) makes replays insert nothing; the caller
// learns that from the false return.
func (r *ScoreRepository) RecordAnswer(record *models.AnswerRecord) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to record answer")
	}
	return result.RowsAffected > 0, nil
}

// GetOrCreateEntry returns the user's score entry in the chat, creating a
// zeroed one on first contact.
func (r *ScoreRepository) GetOrCreateEntry(chatID, userID int64, userName string) (*models.ScoreEntry, error) {
	var entry models.ScoreEntry
	result := r.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&entry)

	if result.Error == gorm.ErrRecordNotFound {
		entry = models.ScoreEntry{
			ChatID:             chatID,
			UserID:             userID,
			UserName:           userName,
			AchievedMilestones: "[]",
		}
		if err := r.db.Create(&entry).Error; err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create score entry")
		}
		return &entry, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get score entry")
	}
	return &entry, nil
}

// SaveEntry persists a modified score entry
func (r *ScoreRepository) SaveEntry(entry *models.ScoreEntry) error {
	result := r.db.Save(entry)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to save score entry")
	}
	return nil
}

// ChatTop returns the chat leaderboard, highest score first
func (r *ScoreRepository) ChatTop(chatID int64, limit int) ([]models.ScoreEntry, error) {
	var entries []models.ScoreEntry
	result := r.db.Where("chat_id = ?", chatID).
		Order("score DESC").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load chat leaderboard")
	}
	return entries, nil
}

// GlobalTop sums every user's score across chats and returns the best
func (r *ScoreRepository) GlobalTop(limit int) ([]quiz.GlobalScore, error) {
	var rows []struct {
		UserID   int64
		UserName string
		Total    float64
	}
	result := r.db.Model(&models.ScoreEntry{}).
		Select("user_id, MAX(user_name) as user_name, SUM(score) as total").
		Group("user_id").
		Order("total DESC").
		Limit(limit).
		Scan(&rows)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load global leaderboard")
	}

	scores := make([]quiz.GlobalScore, len(rows))
	for i, row := range rows {
		scores[i] = quiz.GlobalScore{UserID: row.UserID, UserName: row.UserName, Score: row.Total}
	}
	return scores, nil
}
