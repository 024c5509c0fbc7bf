package quiz

import (
	"fmt"
	"sync"
	"time"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
)

// fakeScoreStore is an in-memory ScoreStore for tests.
type fakeScoreStore struct {
	mu      sync.Mutex
	entries map[string]*models.ScoreEntry
	ledger  map[string]bool
	failAll bool
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{
		entries: make(map[string]*models.ScoreEntry),
		ledger:  make(map[string]bool),
	}
}

func (f *fakeScoreStore) RecordAnswer(record *models.AnswerRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return false, fmt.Errorf("store down")
	}
	key := fmt.Sprintf("%d:%d:%d:%s", record.ChatID, record.UserID, record.QuestionID, record.Day)
	if f.ledger[key] {
		return false, nil
	}
	f.ledger[key] = true
	return true, nil
}

func (f *fakeScoreStore) GetOrCreateEntry(chatID, userID int64, userName string) (*models.ScoreEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	key := fmt.Sprintf("%d:%d", chatID, userID)
	if e, ok := f.entries[key]; ok {
		return e, nil
	}
	e := &models.ScoreEntry{ChatID: chatID, UserID: userID, UserName: userName, AchievedMilestones: "[]"}
	f.entries[key] = e
	return e, nil
}

func (f *fakeScoreStore) SaveEntry(entry *models.ScoreEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return fmt.Errorf("store down")
	}
	f.entries[fmt.Sprintf("%d:%d", entry.ChatID, entry.UserID)] = entry
	return nil
}

func (f *fakeScoreStore) ChatTop(chatID int64, limit int) ([]models.ScoreEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var top []models.ScoreEntry
	for _, e := range f.entries {
		if e.ChatID == chatID {
			top = append(top, *e)
		}
	}
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			if top[j].Score > top[i].Score {
				top[i], top[j] = top[j], top[i]
			}
		}
	}
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (f *fakeScoreStore) GlobalTop(limit int) ([]GlobalScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sums := make(map[int64]*GlobalScore)
	for _, e := range f.entries {
		gs, ok := sums[e.UserID]
		if !ok {
			gs = &GlobalScore{UserID: e.UserID, UserName: e.UserName}
			sums[e.UserID] = gs
		}
		gs.Score += e.Score
	}
	var top []GlobalScore
	for _, gs := range sums {
		top = append(top, *gs)
	}
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			if top[j].Score > top[i].Score {
				top[i], top[j] = top[j], top[i]
			}
		}
	}
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// sentMessage is one message the fake platform delivered.
type sentMessage struct {
	ChatID int64
	Text   string
	MsgID  int
}

// emittedPrompt is one prompt the fake platform published.
type emittedPrompt struct {
	PromptID     string
	ChatID       int64
	MsgID        int
	Question     string
	Options      []string
	CorrectIndex int
	OpenPeriod   time.Duration
	Closed       bool
}

// fakePlatform records everything the orchestrator asks it to do.
type fakePlatform struct {
	mu         sync.Mutex
	nextMsgID  int
	nextPrompt int
	prompts    []*emittedPrompt
	messages   []sentMessage
	deleted    []int
	admins     map[int64]bool
	failEmit   bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{admins: make(map[int64]bool)}
}

func (f *fakePlatform) EmitPrompt(chatID int64, question string, options []string, correctIndex int, explanation string, openPeriod time.Duration) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEmit {
		return "", 0, fmt.Errorf("send failed")
	}
	f.nextPrompt++
	f.nextMsgID++
	p := &emittedPrompt{
		PromptID:     fmt.Sprintf("poll-%d", f.nextPrompt),
		ChatID:       chatID,
		MsgID:        f.nextMsgID,
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
		OpenPeriod:   openPeriod,
	}
	f.prompts = append(f.prompts, p)
	return p.PromptID, p.MsgID, nil
}

func (f *fakePlatform) ClosePrompt(chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if p.ChatID == chatID && p.MsgID == messageID {
			p.Closed = true
		}
	}
	return nil
}

func (f *fakePlatform) SendMessage(chatID int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text, MsgID: f.nextMsgID})
	return f.nextMsgID, nil
}

func (f *fakePlatform) DeleteMessage(chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakePlatform) IsAdmin(chatID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[userID], nil
}

func (f *fakePlatform) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakePlatform) prompt(i int) emittedPrompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.prompts[i]
}

func (f *fakePlatform) lastMessage() (sentMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return sentMessage{}, false
	}
	return f.messages[len(f.messages)-1], true
}

func (f *fakePlatform) deletedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.deleted...)
}

// fakeQuestionSource serves a fixed question list.
type fakeQuestionSource struct {
	categories []CategoryInfo
	questions  []models.Question
}

func (f *fakeQuestionSource) Categories() ([]CategoryInfo, error) {
	return f.categories, nil
}

func (f *fakeQuestionSource) PickQuestions(categories []string, limit int) ([]models.Question, error) {
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	var out []models.Question
	for _, q := range f.questions {
		if len(wanted) > 0 && !wanted[q.Category] {
			continue
		}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeUsageStore records category uses in memory.
type fakeUsageStore struct {
	mu       sync.Mutex
	usage    map[string]CategoryUsage
	recorded [][]string
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{usage: make(map[string]CategoryUsage)}
}

func (f *fakeUsageStore) Usage(names []string, chatID int64) (map[string]CategoryUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]CategoryUsage, len(names))
	for _, n := range names {
		out[n] = f.usage[n]
	}
	return out, nil
}

func (f *fakeUsageStore) RecordUse(names []string, chatID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, append([]string(nil), names...))
	for _, n := range names {
		u := f.usage[n]
		u.TotalUses++
		u.ChatUses++
		t := at
		u.LastUsedAt = &t
		f.usage[n] = u
	}
	return nil
}
