package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTracker_CorrectAndWrong(t *testing.T) {
	tracker := NewScoreTracker(newFakeScoreStore())
	now := time.Now()

	out, err := tracker.RecordAnswer(1, 100, "alice", 1, now, true)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, 1.0, out.NewScore)
	assert.Equal(t, 1, out.Streak)

	out, err = tracker.RecordAnswer(1, 100, "alice", 2, now, false)
	require.NoError(t, err)
	assert.Equal(t, -0.5, out.ScoreDelta)
	assert.Equal(t, 0.5, out.NewScore)
	assert.Equal(t, 0, out.Streak, "wrong answer resets the streak")
}

func TestScoreTracker_DuplicateAnswerIgnored(t *testing.T) {
	tracker := NewScoreTracker(newFakeScoreStore())
	now := time.Now()

	first, err := tracker.RecordAnswer(1, 100, "alice", 7, now, true)
	require.NoError(t, err)
	require.True(t, first.Applied)

	second, err := tracker.RecordAnswer(1, 100, "alice", 7, now, false)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.True(t, second.AlreadyRecorded)
	assert.Zero(t, second.ScoreDelta)

	// The entry keeps the first answer's state.
	top, err := tracker.ChatTop(1, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 1.0, top[0].Score)
}

func TestScoreTracker_SameQuestionNextDayCounts(t *testing.T) {
	tracker := NewScoreTracker(newFakeScoreStore())
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	first, err := tracker.RecordAnswer(1, 100, "alice", 7, day1, true)
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := tracker.RecordAnswer(1, 100, "alice", 7, day2, true)
	require.NoError(t, err)
	assert.True(t, second.Applied, "ledger key includes the calendar day")
}

func TestScoreTracker_StreakMilestone(t *testing.T) {
	tracker := NewScoreTracker(newFakeScoreStore())
	now := time.Now()

	var out *AnswerOutcome
	var err error
	for q := uint(1); q <= 3; q++ {
		out, err = tracker.RecordAnswer(1, 100, "alice", q, now, true)
		require.NoError(t, err)
	}

	require.NotNil(t, out.Milestone)
	assert.Equal(t, MilestoneStreak, out.Milestone.Kind)
	assert.Equal(t, 3, out.Milestone.Threshold)
}

func TestScoreTracker_ScoreMilestoneBeatsStreak(t *testing.T) {
	store := newFakeScoreStore()
	tracker := NewScoreTracker(store)
	now := time.Now()

	// 4 correct answers then the 5th crosses both score:5 and streak:5.
	for q := uint(1); q <= 4; q++ {
		_, err := tracker.RecordAnswer(1, 100, "alice", q, now, true)
		require.NoError(t, err)
	}
	out, err := tracker.RecordAnswer(1, 100, "alice", 5, now, true)
	require.NoError(t, err)

	require.NotNil(t, out.Milestone)
	assert.Equal(t, MilestoneScore, out.Milestone.Kind)
	assert.Equal(t, 5, out.Milestone.Threshold)
}

func TestScoreTracker_MilestoneAnnouncedOnce(t *testing.T) {
	tracker := NewScoreTracker(newFakeScoreStore())
	now := time.Now()

	// Reach 5 points, drop below, climb back. score:5 must not fire again.
	var milestones []Milestone
	answers := []bool{true, true, true, true, true, false, true}
	for i, correct := range answers {
		out, err := tracker.RecordAnswer(1, 100, "alice", uint(i+1), now, correct)
		require.NoError(t, err)
		if out.Milestone != nil {
			milestones = append(milestones, *out.Milestone)
		}
	}

	crossings := 0
	for _, m := range milestones {
		if m.Kind == MilestoneScore && m.Threshold == 5 {
			crossings++
		}
	}
	assert.Equal(t, 1, crossings)
}

func TestScoreTracker_BestStreakPersists(t *testing.T) {
	store := newFakeScoreStore()
	tracker := NewScoreTracker(store)
	now := time.Now()

	for q := uint(1); q <= 4; q++ {
		_, err := tracker.RecordAnswer(1, 100, "alice", q, now, true)
		require.NoError(t, err)
	}
	_, err := tracker.RecordAnswer(1, 100, "alice", 5, now, false)
	require.NoError(t, err)

	entry, err := store.GetOrCreateEntry(1, 100, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Streak)
	assert.Equal(t, 4, entry.BestStreak)
}

func TestScoreTracker_GlobalTopSumsChats(t *testing.T) {
	tracker := NewScoreTracker(newFakeScoreStore())
	now := time.Now()

	_, err := tracker.RecordAnswer(1, 100, "alice", 1, now, true)
	require.NoError(t, err)
	_, err = tracker.RecordAnswer(2, 100, "alice", 1, now, true)
	require.NoError(t, err)
	_, err = tracker.RecordAnswer(1, 200, "bob", 1, now, true)
	require.NoError(t, err)

	top, err := tracker.GlobalTop(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(100), top[0].UserID)
	assert.Equal(t, 2.0, top[0].Score)
}

func TestSortSessionScores(t *testing.T) {
	scores := []ParticipantScore{
		{UserID: 1, UserName: "zoe", Score: 2},
		{UserID: 2, UserName: "amy", Score: 2},
		{UserID: 3, UserName: "max", Score: 5},
	}
	SortSessionScores(scores)

	assert.Equal(t, "max", scores[0].UserName)
	assert.Equal(t, "amy", scores[1].UserName, "ties break by name")
	assert.Equal(t, "zoe", scores[2].UserName)
}
