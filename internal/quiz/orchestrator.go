package quiz

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/errors"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/utils"
)

// Platform abstracts the messaging surface the orchestrator runs on. The
// Telegram adapter lives in the telegram package; tests substitute a fake.
type Platform interface {
	// EmitPrompt publishes one question as an answerable prompt and returns
	// the platform's prompt identifier plus the message id carrying it. The
	// explanation, when present, is revealed to a user after they answer.
	EmitPrompt(chatID int64, question string, options []string, correctIndex int, explanation string, openPeriod time.Duration) (promptID string, messageID int, err error)
	// ClosePrompt stops further answers on an open prompt.
	ClosePrompt(chatID int64, messageID int) error
	SendMessage(chatID int64, text string) (messageID int, err error)
	DeleteMessage(chatID int64, messageID int) error
	IsAdmin(chatID, userID int64) (bool, error)
}

// CategoryInfo is a playable category with its question count.
type CategoryInfo struct {
	Name          string
	QuestionCount int
}

// QuestionSource supplies questions. Backed by the question repository.
type QuestionSource interface {
	Categories() ([]CategoryInfo, error)
	// PickQuestions returns up to limit random questions drawn from the
	// given categories, or from all categories when the list is empty.
	PickQuestions(categories []string, limit int) ([]models.Question, error)
}

// CategoryUsageStore tracks which categories each chat has played.
type CategoryUsageStore interface {
	Usage(names []string, chatID int64) (map[string]CategoryUsage, error)
	RecordUse(names []string, chatID int64, at time.Time) error
}

// CleanupTTLs are the three retention tiers for session messages.
type CleanupTTLs struct {
	Status  time.Duration
	Prompts time.Duration
	Results time.Duration
}

// Answer is one incoming answer event, already resolved to a prompt.
type Answer struct {
	PromptID   string
	UserID     int64
	UserName   string
	OptionIdx  int
	AnsweredAt time.Time
}

// Orchestrator owns every running session and drives their full lifecycle:
// creation, prompt emission, answer and timeout handling, advancement,
// finalization and cleanup.
type Orchestrator struct {
	platform Platform
	sched    *Scheduler
	selector *Selector
	scores   *ScoreTracker
	source   QuestionSource
	usage    CategoryUsageStore

	cleanup CleanupTTLs
	grace   time.Duration

	mu         sync.RWMutex
	sessions   map[int64]*Session
	promptChat map[string]int64
}

func NewOrchestrator(platform Platform, sched *Scheduler, selector *Selector, scores *ScoreTracker, source QuestionSource, usage CategoryUsageStore, cleanup CleanupTTLs, grace time.Duration) *Orchestrator {
	return &Orchestrator{
		platform:   platform,
		sched:      sched,
		selector:   selector,
		scores:     scores,
		source:     source,
		usage:      usage,
		cleanup:    cleanup,
		grace:      grace,
		sessions:   make(map[int64]*Session),
		promptChat: make(map[string]int64),
	}
}

// SessionInfo is a read-only snapshot of the chat's running session.
type SessionInfo struct {
	RunID        string
	Kind         Kind
	Mode         Mode
	InitiatorID  int64
	CurrentIndex int
	Target       int
}

// ActiveSession returns a snapshot of the chat's running session, if any.
func (o *Orchestrator) ActiveSession(chatID int64) (SessionInfo, bool) {
	session := o.sessionForChat(chatID)
	if session == nil {
		return SessionInfo{}, false
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.finalized {
		return SessionInfo{}, false
	}
	return SessionInfo{
		RunID:        session.RunID,
		Kind:         session.Kind,
		Mode:         session.Mode,
		InitiatorID:  session.InitiatorID,
		CurrentIndex: session.CurrentIndex,
		Target:       session.Target,
	}, true
}

// HasActiveSession reports whether the chat currently has a quiz running.
func (o *Orchestrator) HasActiveSession(chatID int64) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, exists := o.sessions[chatID]
	return exists
}

// CreateAndStart starts a new session in the chat. Exactly one session may
// run per chat, enforced by inserting a placeholder into the session map
// before any slow work happens.
func (o *Orchestrator) CreateAndStart(chatID, initiatorID int64, cfg SessionConfig) (*Session, error) {
	categories, err := o.resolveCategories(chatID, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Categories = categories

	questions, err := o.source.PickQuestions(categories, cfg.QuestionCount)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to pick questions")
	}
	if len(questions) == 0 {
		return nil, errors.New(errors.ErrCodeNoQuestions, "no questions available for the requested categories")
	}

	session := newSession(chatID, initiatorID, cfg, questions)

	o.mu.Lock()
	if existing, exists := o.sessions[chatID]; exists {
		o.mu.Unlock()
		existing.mu.Lock()
		stopping := existing.stopping
		existing.mu.Unlock()
		if stopping {
			return nil, errors.New(errors.ErrCodeSessionActive, "previous quiz is still shutting down")
		}
		return nil, errors.New(errors.ErrCodeSessionActive, "a quiz is already running in this chat")
	}
	o.sessions[chatID] = session
	o.mu.Unlock()

	if err := o.usage.RecordUse(categories, chatID, time.Now()); err != nil {
		logger.Warn("Failed to record category usage", "chatID", chatID, "error", err)
	}

	logger.Info("Quiz session starting",
		"chatID", chatID,
		"runID", session.RunID,
		"kind", session.Kind,
		"mode", session.Mode,
		"questions", len(questions),
		"categories", strings.Join(categories, ","))

	if cfg.Announce {
		if cfg.AnnounceDelay > 0 {
			o.announceAndDefer(session)
			return session, nil
		}
		o.announce(session, fmt.Sprintf("Quiz time! %d questions, categories: %s",
			session.Target, strings.Join(session.Config.Categories, ", ")))
	}

	if err := o.emitFirstPrompt(session); err != nil {
		return nil, err
	}
	return session, nil
}

// resolveCategories returns the categories this session plays. Explicit
// categories pass through after an existence check; otherwise the weighted
// selector draws CategoryCount of them.
func (o *Orchestrator) resolveCategories(chatID int64, cfg SessionConfig) ([]string, error) {
	available, err := o.source.Categories()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list categories")
	}
	if len(available) == 0 {
		return nil, errors.New(errors.ErrCodeNoQuestions, "no categories have questions")
	}

	if len(cfg.Categories) > 0 {
		known := make(map[string]bool, len(available))
		for _, c := range available {
			known[strings.ToLower(c.Name)] = true
		}
		resolved := make([]string, 0, len(cfg.Categories))
		for _, name := range cfg.Categories {
			if !known[strings.ToLower(name)] {
				return nil, errors.New(errors.ErrCodeNoQuestions,
					fmt.Sprintf("unknown category: %s", name))
			}
			resolved = append(resolved, name)
		}
		return resolved, nil
	}

	if len(cfg.ExcludedCategories) > 0 {
		excluded := make(map[string]bool, len(cfg.ExcludedCategories))
		for _, name := range cfg.ExcludedCategories {
			excluded[strings.ToLower(name)] = true
		}
		kept := available[:0]
		for _, c := range available {
			if !excluded[strings.ToLower(c.Name)] {
				kept = append(kept, c)
			}
		}
		available = kept
		if len(available) == 0 {
			return nil, errors.New(errors.ErrCodeNoQuestions, "every category is disabled in this chat")
		}
	}

	names := make([]string, len(available))
	for i, c := range available {
		names[i] = c.Name
	}
	usage, err := o.usage.Usage(names, chatID)
	if err != nil {
		logger.Warn("Failed to load category usage, selecting unweighted", "chatID", chatID, "error", err)
		usage = make(map[string]CategoryUsage)
	}

	candidates := make([]WeightedCategory, len(available))
	for i, c := range available {
		candidates[i] = WeightedCategory{Name: c.Name, Usage: usage[c.Name]}
	}

	target := cfg.CategoryCount
	if target <= 0 {
		target = 1
	}
	return o.selector.Pick(candidates, target), nil
}

// announce posts a session announcement and files it in the status tier.
// Sending is best-effort; a failed announcement never blocks the quiz.
func (o *Orchestrator) announce(session *Session, text string) {
	msgID, err := o.platform.SendMessage(session.ChatID, text)
	if err != nil {
		logger.Warn("Failed to send quiz announcement", "chatID", session.ChatID, "error", err)
		return
	}
	session.mu.Lock()
	session.statusMsgIDs = append(session.statusMsgIDs, msgID)
	session.mu.Unlock()
}

// announceAndDefer posts the announcement and schedules the first prompt.
func (o *Orchestrator) announceAndDefer(session *Session) {
	o.announce(session, fmt.Sprintf("Quiz starts in %d seconds! %d questions, categories: %s",
		int(session.Config.AnnounceDelay.Seconds()),
		session.Target,
		strings.Join(session.Config.Categories, ", ")))

	chatID, runID := session.ChatID, session.RunID
	o.sched.Schedule(session.announceTask(), session.Config.AnnounceDelay, func() {
		s := o.lookupSession(chatID, runID)
		if s == nil {
			return
		}
		if err := o.emitFirstPrompt(s); err != nil {
			logger.Error("Failed to start announced quiz", "chatID", chatID, "error", err)
		}
	})
}

// emitFirstPrompt sends question zero. On failure the session is removed so
// the chat is not left locked by a quiz that never started.
func (o *Orchestrator) emitFirstPrompt(session *Session) error {
	session.mu.Lock()
	err := o.emitPromptLocked(session)
	session.mu.Unlock()

	if err != nil {
		o.removeSession(session)
		if _, serr := o.platform.SendMessage(session.ChatID, "Could not start the quiz, please try again later."); serr != nil {
			logger.Warn("Failed to notify chat about start failure", "chatID", session.ChatID, "error", serr)
		}
		return errors.Wrap(err, errors.ErrCodePlatformIO, "failed to emit first prompt")
	}
	return nil
}

// emitPromptLocked publishes Questions[CurrentIndex] and arms its timeout
// task. Caller holds session.mu.
func (o *Orchestrator) emitPromptLocked(session *Session) error {
	question := session.Questions[session.CurrentIndex]
	options, err := question.ParseOptions()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError,
			fmt.Sprintf("question %d has malformed options", question.ID))
	}

	text := fmt.Sprintf("[%d/%d] %s", session.CurrentIndex+1, session.Target,
		utils.Truncate(question.Text, 290))

	promptID, messageID, err := o.platform.EmitPrompt(
		session.ChatID, text, options, question.CorrectIndex, question.Explanation,
		session.Config.OpenPeriod)
	if err != nil {
		return err
	}

	prompt := &Prompt{
		ID:            promptID,
		ChatID:        session.ChatID,
		MessageID:     messageID,
		Index:         session.CurrentIndex,
		CorrectOption: question.CorrectIndex,
		OpenedAt:      time.Now(),
		TimeoutTask:   session.promptTimeoutTask(promptID),
	}
	session.prompts[promptID] = prompt

	o.mu.Lock()
	o.promptChat[promptID] = session.ChatID
	o.mu.Unlock()

	// The platform auto-closes the prompt after OpenPeriod. The timeout task
	// fires a grace interval later so a close event arriving from the
	// platform wins the race in the common case.
	chatID, runID := session.ChatID, session.RunID
	o.sched.Schedule(prompt.TimeoutTask, session.Config.OpenPeriod+o.grace, func() {
		o.OnPromptTimeout(chatID, runID, promptID)
	})

	logger.Debug("Prompt emitted",
		"chatID", session.ChatID, "promptID", promptID,
		"index", session.CurrentIndex, "questionID", question.ID)
	return nil
}

// OnAnswer handles one incoming answer event. Scoring happens for every
// answer on a known open prompt; advancement happens at most once per
// prompt, mode permitting.
func (o *Orchestrator) OnAnswer(a Answer) {
	o.mu.RLock()
	chatID, known := o.promptChat[a.PromptID]
	o.mu.RUnlock()
	if !known {
		logger.Debug("Answer for unknown prompt ignored", "promptID", a.PromptID)
		return
	}

	session := o.sessionForChat(chatID)
	if session == nil {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	prompt, open := session.prompts[a.PromptID]
	if !open || session.finalized {
		return
	}

	correct := a.OptionIdx == prompt.CorrectOption
	question := session.Questions[prompt.Index]

	outcome, err := o.scores.RecordAnswer(
		session.ChatID, a.UserID, a.UserName, question.ID, a.AnsweredAt, correct)
	if err != nil {
		logger.Error("Failed to score answer",
			"chatID", session.ChatID, "userID", a.UserID, "error", err)
	} else if outcome.Applied {
		session.addSessionScore(a.UserID, a.UserName, outcome.ScoreDelta, correct)
		if outcome.Milestone != nil {
			o.announceMilestoneLocked(session, a.UserName, outcome)
		}
	}

	if prompt.progressed || session.Mode == ModeSingle {
		return
	}
	prompt.progressed = true

	switch session.Mode {
	case ModeImmediate:
		o.advanceLocked(session)
	case ModeInterval:
		o.scheduleAdvance(session, time.Now())
	}
}

// announceMilestoneLocked congratulates a participant. Streak messages are
// transient and join the mid-tier cleanup; score milestones stay in chat.
// Caller holds session.mu.
func (o *Orchestrator) announceMilestoneLocked(session *Session, userName string, outcome *AnswerOutcome) {
	var text string
	switch outcome.Milestone.Kind {
	case MilestoneStreak:
		text = fmt.Sprintf("🔥 %s is on a %d answer streak!", userName, outcome.Milestone.Threshold)
	default:
		text = fmt.Sprintf("🏆 %s reached %d points!", userName, outcome.Milestone.Threshold)
	}

	msgID, err := o.platform.SendMessage(session.ChatID, text)
	if err != nil {
		logger.Warn("Failed to announce milestone", "chatID", session.ChatID, "error", err)
		return
	}
	if outcome.Milestone.Kind == MilestoneStreak {
		session.promptMsgIDs = append(session.promptMsgIDs, msgID)
	}
}

// OnPromptTimeout fires when a prompt's open period (plus grace) elapsed.
// It closes the prompt's bookkeeping and, when no answer already advanced
// the session, performs the advancement itself.
func (o *Orchestrator) OnPromptTimeout(chatID int64, runID, promptID string) {
	session := o.lookupSession(chatID, runID)
	if session == nil {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	prompt, open := session.prompts[promptID]
	if !open || session.finalized {
		return
	}

	if err := o.platform.ClosePrompt(chatID, prompt.MessageID); err != nil {
		logger.Debug("Failed to close prompt, likely already closed",
			"chatID", chatID, "promptID", promptID, "error", err)
	}
	o.retirePromptLocked(session, prompt)

	if prompt.progressed {
		return
	}
	prompt.progressed = true

	switch session.Mode {
	case ModeSingle:
		o.finalizeLocked(session, "")
	case ModeImmediate:
		o.advanceLocked(session)
	case ModeInterval:
		o.scheduleAdvance(session, time.Now())
	}
}

// retirePromptLocked removes the prompt from lookup maps and queues its
// message for mid-tier cleanup. Caller holds session.mu.
func (o *Orchestrator) retirePromptLocked(session *Session, prompt *Prompt) {
	delete(session.prompts, prompt.ID)
	session.promptMsgIDs = append(session.promptMsgIDs, prompt.MessageID)

	o.mu.Lock()
	delete(o.promptChat, prompt.ID)
	o.mu.Unlock()
}

// scheduleAdvance arms the interval-mode next-question task. Measured from
// the moment the current question closed, so a late answer still buys the
// full pause before the next prompt.
func (o *Orchestrator) scheduleAdvance(session *Session, closedAt time.Time) {
	nextIndex := session.CurrentIndex + 1
	chatID, runID := session.ChatID, session.RunID

	if nextIndex >= session.Target {
		o.advanceLocked(session)
		return
	}

	delay := session.Config.Interval - time.Since(closedAt)
	if delay < 0 {
		delay = 0
	}
	o.sched.Schedule(session.nextQuestionTask(nextIndex), delay, func() {
		s := o.lookupSession(chatID, runID)
		if s == nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.finalized || s.stopping || s.CurrentIndex+1 != nextIndex {
			return
		}
		o.advanceLocked(s)
	})
}

// advanceLocked moves the session past the current question: emits the next
// one or finalizes when the target is reached. Caller holds session.mu.
func (o *Orchestrator) advanceLocked(session *Session) {
	session.CurrentIndex++
	if session.CurrentIndex >= session.Target {
		o.finalizeLocked(session, "")
		return
	}

	if err := o.emitPromptLocked(session); err != nil {
		logger.Error("Failed to emit next prompt, ending quiz early",
			"chatID", session.ChatID, "index", session.CurrentIndex, "error", err)
		o.finalizeLocked(session, "The quiz ended early because a question could not be sent.")
	}
}

// Stop aborts the chat's running session. Only the initiator or a chat
// admin may stop a quiz; handlers enforce that before calling here.
func (o *Orchestrator) Stop(chatID int64) error {
	session := o.sessionForChat(chatID)
	if session == nil {
		return errors.New(errors.ErrCodeNotFound, "no quiz is running in this chat")
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.finalized {
		return errors.New(errors.ErrCodeNotFound, "no quiz is running in this chat")
	}
	session.stopping = true

	for _, prompt := range session.prompts {
		if err := o.platform.ClosePrompt(chatID, prompt.MessageID); err != nil {
			logger.Debug("Failed to close prompt on stop",
				"chatID", chatID, "promptID", prompt.ID, "error", err)
		}
	}

	logger.Info("Quiz session stopped", "chatID", chatID, "runID", session.RunID)
	o.finalizeLocked(session, "Quiz stopped.")
	return nil
}

// StopAll tears down every running session. Used on shutdown.
func (o *Orchestrator) StopAll() {
	o.mu.RLock()
	chatIDs := make([]int64, 0, len(o.sessions))
	for chatID := range o.sessions {
		chatIDs = append(chatIDs, chatID)
	}
	o.mu.RUnlock()

	for _, chatID := range chatIDs {
		if err := o.Stop(chatID); err != nil && !errors.HasCode(err, errors.ErrCodeNotFound) {
			logger.Warn("Failed to stop session on shutdown", "chatID", chatID, "error", err)
		}
	}
}

// finalizeLocked ends the session exactly once: cancels its tasks, retires
// open prompts, posts the results and schedules tiered cleanup. Caller
// holds session.mu.
func (o *Orchestrator) finalizeLocked(session *Session, note string) {
	if session.finalized {
		return
	}
	session.finalized = true

	o.sched.CancelPrefix(session.taskPrefix())

	for _, prompt := range session.prompts {
		o.retirePromptLocked(session, prompt)
	}

	text := o.buildResultsLocked(session, note)
	if msgID, err := o.platform.SendMessage(session.ChatID, text); err != nil {
		logger.Warn("Failed to send quiz results", "chatID", session.ChatID, "error", err)
	} else {
		session.resultsMsgID = msgID
	}

	o.scheduleCleanup(session)
	o.removeSession(session)

	logger.Info("Quiz session finished",
		"chatID", session.ChatID,
		"runID", session.RunID,
		"questionsPlayed", session.CurrentIndex,
		"participants", len(session.Scores),
		"duration", time.Since(session.StartedAt).Round(time.Second))
}

// buildResultsLocked renders the final ranking. Caller holds session.mu.
func (o *Orchestrator) buildResultsLocked(session *Session, note string) string {
	var b strings.Builder
	if note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}

	ranking := session.sessionRanking()
	if len(ranking) == 0 {
		b.WriteString("Quiz finished. Nobody answered this time.")
		return b.String()
	}

	b.WriteString("🏁 Quiz results:\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, ps := range ranking {
		marker := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			marker = medals[i]
		}
		b.WriteString(fmt.Sprintf("%s %s — %s (%d correct)\n",
			marker, ps.UserName,
			utils.Pluralize(ps.Score, "point", "points"),
			ps.CorrectCount))
	}
	return b.String()
}

// scheduleCleanup arms the three deletion tiers. Task names carry the run id
// rather than the session prefix so they survive the CancelPrefix sweep in
// finalizeLocked and the session's removal from the map.
func (o *Orchestrator) scheduleCleanup(session *Session) {
	chatID := session.ChatID
	statusIDs := append([]int(nil), session.statusMsgIDs...)
	promptIDs := append([]int(nil), session.promptMsgIDs...)
	resultsID := session.resultsMsgID

	deleteAll := func(ids []int) {
		for _, id := range ids {
			if err := o.platform.DeleteMessage(chatID, id); err != nil {
				logger.Debug("Failed to delete session message",
					"chatID", chatID, "messageID", id, "error", err)
			}
		}
	}

	if len(statusIDs) > 0 {
		o.sched.Schedule(fmt.Sprintf("cleanup:%s:status", session.RunID), o.cleanup.Status, func() {
			deleteAll(statusIDs)
		})
	}
	if len(promptIDs) > 0 {
		o.sched.Schedule(fmt.Sprintf("cleanup:%s:prompts", session.RunID), o.cleanup.Prompts, func() {
			deleteAll(promptIDs)
		})
	}
	if resultsID != 0 {
		o.sched.Schedule(fmt.Sprintf("cleanup:%s:results", session.RunID), o.cleanup.Results, func() {
			deleteAll([]int{resultsID})
		})
	}
}

// lookupSession returns the chat's session only when it is still the same
// run. A stale runID means the callback belongs to an earlier quiz.
func (o *Orchestrator) lookupSession(chatID int64, runID string) *Session {
	session := o.sessionForChat(chatID)
	if session == nil || session.RunID != runID {
		return nil
	}
	return session
}

func (o *Orchestrator) sessionForChat(chatID int64) *Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sessions[chatID]
}

// removeSession drops the session and its prompt routes from the maps.
func (o *Orchestrator) removeSession(session *Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sessions[session.ChatID] == session {
		delete(o.sessions, session.ChatID)
	}
	for promptID, chatID := range o.promptChat {
		if chatID == session.ChatID {
			delete(o.promptChat, promptID)
		}
	}
}
