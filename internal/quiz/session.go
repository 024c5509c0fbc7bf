package quiz

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
)

// Mode controls how a session advances from one question to the next.
type Mode string

const (
	// ModeSingle: one question, the session ends when it closes.
	ModeSingle Mode = "single"
	// ModeImmediate: the next question goes out as soon as the current one
	// is answered or times out.
	ModeImmediate Mode = "immediate"
	// ModeInterval: a fixed pause separates consecutive questions.
	ModeInterval Mode = "interval"
)

// Kind tells a manually started session from a daily recurring one.
type Kind string

const (
	KindManual Kind = "manual"
	KindDaily  Kind = "daily"
)

// SessionConfig is the resolved configuration a session runs with.
type SessionConfig struct {
	Kind          Kind
	QuestionCount int
	OpenPeriod    time.Duration
	Interval      time.Duration
	Categories    []string
	// ExcludedCategories are dropped from the random-selection pool. Ignored
	// when Categories names the pool explicitly.
	ExcludedCategories []string
	CategoryCount      int
	Announce           bool
	AnnounceDelay      time.Duration
}

// DeriveMode maps a config to its advancement mode.
func (c SessionConfig) DeriveMode() Mode {
	if c.QuestionCount == 1 {
		return ModeSingle
	}
	if c.Interval > 0 {
		return ModeInterval
	}
	return ModeImmediate
}

// Prompt is one emitted question waiting for answers or timeout.
type Prompt struct {
	ID            string
	ChatID        int64
	MessageID     int
	Index         int
	CorrectOption int
	OpenedAt      time.Time
	TimeoutTask   string

	// progressed guards at-most-once advancement past this prompt. Both the
	// answer path and the timeout path check and set it under the session
	// mutex; whoever sets it first owns the transition.
	progressed bool
}

// ParticipantScore tracks one user's results within a single session.
type ParticipantScore struct {
	UserID       int64
	UserName     string
	Score        float64
	CorrectCount int
}

// Session is the in-memory state of one running quiz in one chat.
type Session struct {
	ChatID       int64
	RunID        string
	Kind         Kind
	Mode         Mode
	Config       SessionConfig
	Questions    []models.Question
	CurrentIndex int
	Target       int
	InitiatorID  int64
	StartedAt    time.Time

	Scores  map[int64]*ParticipantScore
	prompts map[string]*Prompt

	// Cleanup tiers. Status messages go fast, question prompts linger a
	// while, the final results stay the longest.
	statusMsgIDs []int
	promptMsgIDs []int
	resultsMsgID int

	stopping  bool
	finalized bool

	mu sync.Mutex
}

func newSession(chatID, initiatorID int64, cfg SessionConfig, questions []models.Question) *Session {
	return &Session{
		ChatID:      chatID,
		RunID:       uuid.NewString(),
		Kind:        cfg.Kind,
		Mode:        cfg.DeriveMode(),
		Config:      cfg,
		Questions:   questions,
		Target:      len(questions),
		InitiatorID: initiatorID,
		StartedAt:   time.Now(),
		Scores:      make(map[int64]*ParticipantScore),
		prompts:     make(map[string]*Prompt),
	}
}

// taskPrefix namespaces every scheduler task this session owns, so one
// CancelPrefix sweep tears them all down.
func (s *Session) taskPrefix() string {
	return fmt.Sprintf("quiz:%d:", s.ChatID)
}

func (s *Session) promptTimeoutTask(promptID string) string {
	return fmt.Sprintf("quiz:%d:prompt-timeout:%s", s.ChatID, promptID)
}

func (s *Session) nextQuestionTask(index int) string {
	return fmt.Sprintf("quiz:%d:next-question:%s:%d", s.ChatID, s.RunID, index)
}

func (s *Session) announceTask() string {
	return fmt.Sprintf("quiz:%d:announce:%s", s.ChatID, s.RunID)
}

// addSessionScore applies one answer to the session-local tally. Caller
// holds s.mu.
func (s *Session) addSessionScore(userID int64, userName string, delta float64, correct bool) {
	ps, ok := s.Scores[userID]
	if !ok {
		ps = &ParticipantScore{UserID: userID, UserName: userName}
		s.Scores[userID] = ps
	}
	ps.UserName = userName
	ps.Score += delta
	if correct {
		ps.CorrectCount++
	}
}

// sessionRanking returns the session scores sorted best first. Caller holds
// s.mu.
func (s *Session) sessionRanking() []ParticipantScore {
	ranking := make([]ParticipantScore, 0, len(s.Scores))
	for _, ps := range s.Scores {
		ranking = append(ranking, *ps)
	}
	SortSessionScores(ranking)
	return ranking
}
