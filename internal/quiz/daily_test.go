package quiz

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDailySource struct {
	mu       sync.Mutex
	settings map[int64]DailySettings
}

func (f *fakeDailySource) DailyForChat(chatID int64) (DailySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings[chatID], nil
}

func (f *fakeDailySource) ChatsWithDaily() ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var chats []int64
	for chatID, s := range f.settings {
		if s.Enabled {
			chats = append(chats, chatID)
		}
	}
	return chats, nil
}

func (f *fakeDailySource) set(chatID int64, s DailySettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[chatID] = s
}

func newDailyFixture(t *testing.T) (*DailyScheduler, *orchFixture, *fakeDailySource) {
	t.Helper()
	fx := newOrchFixture(t, 5)
	src := &fakeDailySource{settings: make(map[int64]DailySettings)}
	d := NewDailyScheduler(fx.sched, fx.orch, src, time.UTC)
	return d, fx, src
}

func TestDailyScheduler_NextFire(t *testing.T) {
	d, _, _ := newDailyFixture(t)
	d.now = func() time.Time {
		return time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)
	}

	// Before today's slot: fires today.
	fireAt := d.nextFire(7, 0)
	assert.Equal(t, time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC), fireAt)

	// After today's slot: fires tomorrow.
	fireAt = d.nextFire(6, 0)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), fireAt)

	// Exactly at the slot: fires tomorrow, never immediately.
	fireAt = d.nextFire(6, 30)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 30, 0, 0, time.UTC), fireAt)
}

func TestDailyScheduler_ArmAndDisarm(t *testing.T) {
	d, fx, src := newDailyFixture(t)

	src.set(42, DailySettings{Enabled: true, Hour: 7, Minute: 0, QuestionCount: 3})
	require.NoError(t, d.RescheduleForChat(42))
	assert.True(t, fx.sched.Pending("daily-quiz:42"))

	src.set(42, DailySettings{Enabled: false})
	require.NoError(t, d.RescheduleForChat(42))
	assert.False(t, fx.sched.Pending("daily-quiz:42"))
}

func TestDailyScheduler_ScheduleAllOnStartup(t *testing.T) {
	d, fx, src := newDailyFixture(t)

	src.set(1, DailySettings{Enabled: true, Hour: 7, QuestionCount: 3})
	src.set(2, DailySettings{Enabled: true, Hour: 8, QuestionCount: 3})
	src.set(3, DailySettings{Enabled: false})

	d.ScheduleAllOnStartup()
	assert.True(t, fx.sched.Pending("daily-quiz:1"))
	assert.True(t, fx.sched.Pending("daily-quiz:2"))
	assert.False(t, fx.sched.Pending("daily-quiz:3"))
}

func TestDailyScheduler_FireStartsSessionAndRearms(t *testing.T) {
	d, fx, src := newDailyFixture(t)

	src.set(42, DailySettings{
		Enabled:       true,
		Hour:          7,
		QuestionCount: 3,
		OpenPeriod:    5 * time.Second,
		CategoryCount: 1,
	})

	d.fire(42)

	assert.True(t, fx.orch.HasActiveSession(42))
	session := fx.orch.sessionForChat(42)
	require.NotNil(t, session)
	assert.Equal(t, KindDaily, session.Kind)
	assert.Equal(t, 1, fx.platform.promptCount())
	assert.True(t, fx.sched.Pending("daily-quiz:42"), "daily task re-armed for tomorrow")
}

func TestDailyScheduler_FireSkipsBusyChat(t *testing.T) {
	d, fx, src := newDailyFixture(t)

	_, err := fx.orch.CreateAndStart(42, 100, slowConfig(3))
	require.NoError(t, err)
	manual := fx.orch.sessionForChat(42)

	src.set(42, DailySettings{Enabled: true, Hour: 7, QuestionCount: 3, OpenPeriod: 5 * time.Second})
	d.fire(42)

	assert.Same(t, manual, fx.orch.sessionForChat(42), "manual session keeps running")
	assert.True(t, fx.sched.Pending("daily-quiz:42"), "skip still re-arms for tomorrow")

	msg, ok := fx.platform.lastMessage()
	require.True(t, ok, "no skip notice sent")
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "already running")
}

func TestDailyScheduler_FireDisabledIsNoop(t *testing.T) {
	d, fx, src := newDailyFixture(t)

	src.set(42, DailySettings{Enabled: false})
	d.fire(42)

	assert.False(t, fx.orch.HasActiveSession(42))
	assert.Equal(t, 0, fx.platform.promptCount())
}
