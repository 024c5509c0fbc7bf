package quiz

import (
	"fmt"
	"sort"
	"time"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

// Reward and penalty applied to a participant's persistent score.
const (
	CorrectReward = 1.0
	WrongPenalty  = 0.5
)

// Milestone thresholds, checked in ascending order. The highest newly
// crossed threshold wins for a single answer.
var (
	ScoreMilestones  = []int{5, 10, 25, 50, 100, 250}
	StreakMilestones = []int{3, 5, 10, 20}
)

// GlobalScore is one row of the cross-chat leaderboard.
type GlobalScore struct {
	UserID   int64
	UserName string
	Score    float64
}

// ScoreStore persists score entries and the answer ledger used for replay
// protection.
type ScoreStore interface {
	// RecordAnswer inserts the answer into the ledger. Returns false when an
	// identical (chat, user, question, day) record already exists.
	RecordAnswer(record *models.AnswerRecord) (bool, error)
	GetOrCreateEntry(chatID, userID int64, userName string) (*models.ScoreEntry, error)
	SaveEntry(entry *models.ScoreEntry) error
	ChatTop(chatID int64, limit int) ([]models.ScoreEntry, error)
	GlobalTop(limit int) ([]GlobalScore, error)
}

// MilestoneKind distinguishes the two achievement families. Score milestones
// persist in chat, streak milestones are transient congratulations.
type MilestoneKind string

const (
	MilestoneScore  MilestoneKind = "score"
	MilestoneStreak MilestoneKind = "streak"
)

// Milestone is an achievement threshold a participant just crossed.
type Milestone struct {
	Kind      MilestoneKind
	Threshold int
}

func (m Milestone) key() string {
	return fmt.Sprintf("%s:%d", m.Kind, m.Threshold)
}

// AnswerOutcome describes what recording one answer did to the score state.
type AnswerOutcome struct {
	Applied         bool
	AlreadyRecorded bool
	ScoreDelta      float64
	NewScore        float64
	Streak          int
	Milestone       *Milestone
}

// ScoreTracker applies answers to persistent per-chat scores and detects
// milestone crossings.
type ScoreTracker struct {
	store ScoreStore
}

func NewScoreTracker(store ScoreStore) *ScoreTracker {
	return &ScoreTracker{store: store}
}

// RecordAnswer scores one answer. The ledger enforces at most one scored
// answer per user per question per day, so a replayed event (duplicate
// delivery, scroll-back vote on an old poll) is a no-op.
func (t *ScoreTracker) RecordAnswer(chatID, userID int64, userName string, questionID uint, answeredAt time.Time, correct bool) (*AnswerOutcome, error) {
	record := &models.AnswerRecord{
		ChatID:     chatID,
		UserID:     userID,
		QuestionID: questionID,
		Day:        answeredAt.Format("2006-01-02"),
		IsCorrect:  correct,
		AnsweredAt: answeredAt,
	}

	applied, err := t.store.RecordAnswer(record)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to record answer")
	}
	if !applied {
		logger.Debug("Duplicate answer ignored",
			"chatID", chatID, "userID", userID, "questionID", questionID)
		return &AnswerOutcome{AlreadyRecorded: true}, nil
	}

	entry, err := t.store.GetOrCreateEntry(chatID, userID, userName)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load score entry")
	}

	prevScore := entry.Score
	prevStreak := entry.Streak
	outcome := &AnswerOutcome{Applied: true}

	if correct {
		outcome.ScoreDelta = CorrectReward
		entry.Score += CorrectReward
		entry.CorrectCount++
		entry.Streak++
		if entry.Streak > entry.BestStreak {
			entry.BestStreak = entry.Streak
		}
	} else {
		outcome.ScoreDelta = -WrongPenalty
		entry.Score -= WrongPenalty
		entry.Streak = 0
	}
	entry.UserName = userName

	outcome.Milestone = detectMilestone(entry, prevScore, prevStreak)
	if outcome.Milestone != nil {
		achieved := entry.ParseAchieved()
		achieved[outcome.Milestone.key()] = true
		entry.SetAchieved(achieved)
	}

	if err := t.store.SaveEntry(entry); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to save score entry")
	}

	outcome.NewScore = entry.Score
	outcome.Streak = entry.Streak
	return outcome, nil
}

// detectMilestone returns the highest threshold this answer newly crossed
// that the participant has not been congratulated for yet. Score thresholds
// take precedence over streak thresholds.
func detectMilestone(entry *models.ScoreEntry, prevScore float64, prevStreak int) *Milestone {
	achieved := entry.ParseAchieved()

	var best *Milestone
	for _, th := range ScoreMilestones {
		m := Milestone{Kind: MilestoneScore, Threshold: th}
		if prevScore < float64(th) && entry.Score >= float64(th) && !achieved[m.key()] {
			mm := m
			best = &mm
		}
	}
	if best != nil {
		return best
	}
	for _, th := range StreakMilestones {
		m := Milestone{Kind: MilestoneStreak, Threshold: th}
		if prevStreak < th && entry.Streak == th && !achieved[m.key()] {
			mm := m
			best = &mm
		}
	}
	return best
}

// ChatTop returns the chat leaderboard, best score first.
func (t *ScoreTracker) ChatTop(chatID int64, limit int) ([]models.ScoreEntry, error) {
	entries, err := t.store.ChatTop(chatID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load chat leaderboard")
	}
	return entries, nil
}

// GlobalTop returns the cross-chat leaderboard, summed per user.
func (t *ScoreTracker) GlobalTop(limit int) ([]GlobalScore, error) {
	scores, err := t.store.GlobalTop(limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load global leaderboard")
	}
	return scores, nil
}

// SortSessionScores orders per-session results best first, name as
// tiebreaker for stable output.
func SortSessionScores(scores []ParticipantScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].UserName < scores[j].UserName
	})
}
