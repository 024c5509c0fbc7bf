package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
)

// CategoryStatRepository tracks category usage for weighted selection.
// Implements quiz.CategoryUsageStore.
type CategoryStatRepository struct {
	db *gorm.DB
}

func NewCategoryStatRepository(db *gorm.DB) *CategoryStatRepository {
	return &CategoryStatRepository{db: db}
}

// Usage returns global and per-chat usage counters for the named categories.
// Categories never played simply get zero values.
func (r *CategoryStatRepository) Usage(names []string, chatID int64) (map[string]quiz.CategoryUsage, error) {
	usage := make(map[string]quiz.CategoryUsage, len(names))
	if len(names) == 0 {
		return usage, nil
	}

	var globals []models.CategoryStat
	if err := r.db.Where("name IN ?", names).Find(&globals).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load category stats")
	}
	for _, g := range globals {
		usage[g.Name] = quiz.CategoryUsage{TotalUses: g.TotalUses, LastUsedAt: g.LastUsedAt}
	}

	var chats []models.CategoryChatStat
	if err := r.db.Where("name IN ? AND chat_id = ?", names, chatID).Find(&chats).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load chat category stats")
	}
	for _, c := range chats {
		u := usage[c.Name]
		u.ChatUses = c.Uses
		usage[c.Name] = u
	}
	return usage, nil
}

// RecordUse bumps the counters for every named category, once per session
// start.
func (r *CategoryStatRepository) RecordUse(names []string, chatID int64, at time.Time) error {
	if len(names) == 0 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			stat := models.CategoryStat{Name: name, TotalUses: 1, LastUsedAt: &at}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "name"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"total_uses":   gorm.Expr("category_stats.total_uses + 1"),
					"last_used_at": at,
				}),
			}).Create(&stat).Error
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record category use")
			}

			chatStat := models.CategoryChatStat{Name: name, ChatID: chatID, Uses: 1, LastUsedAt: &at}
			err = tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "name"}, {Name: "chat_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"uses":         gorm.Expr("category_chat_stats.uses + 1"),
					"last_used_at": at,
				}),
			}).Create(&chatStat).Error
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record chat category use")
			}
		}
		return nil
	})
}
