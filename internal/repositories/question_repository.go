package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/internal/quiz"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// CreateQuestion inserts a single question
func (r *QuestionRepository) CreateQuestion(question *models.Question) error {
	result := r.db.Create(question)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to create question")
	}
	return nil
}

// ImportQuestions inserts questions in bulk, skipping rows that collide
// with an existing unique key. Returns how many rows were inserted.
func (r *QuestionRepository) ImportQuestions(questions []models.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(questions, 100)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to import questions")
	}
	return int(result.RowsAffected), nil
}

// GetQuestionByID retrieves one question
func (r *QuestionRepository) GetQuestionByID(id uint) (*models.Question, error) {
	var question models.Question
	result := r.db.First(&question, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "question not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get question")
	}
	return &question, nil
}

// Categories lists every category that has at least one question, with its
// question count.
func (r *QuestionRepository) Categories() ([]quiz.CategoryInfo, error) {
	var rows []struct {
		Category string
		Count    int
	}
	result := r.db.Model(&models.Question{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Order("category").
		Scan(&rows)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list categories")
	}

	categories := make([]quiz.CategoryInfo, len(rows))
	for i, row := range rows {
		categories[i] = quiz.CategoryInfo{Name: row.Category, QuestionCount: row.Count}
	}
	return categories, nil
}

// PickQuestions returns up to limit random questions from the given
// categories, or from the whole pool when categories is empty.
func (r *QuestionRepository) PickQuestions(categories []string, limit int) ([]models.Question, error) {
	query := r.db.Model(&models.Question{})
	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}

	var questions []models.Question
	result := query.Order("RANDOM()").Limit(limit).Find(&questions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to pick questions")
	}
	return questions, nil
}

// CountQuestions returns the total pool size
func (r *QuestionRepository) CountQuestions() (int64, error) {
	var count int64
	result := r.db.Model(&models.Question{}).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to count questions")
	}
	return count, nil
}
