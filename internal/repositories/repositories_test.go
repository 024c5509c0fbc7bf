package repositories

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lizardjazz1/morning-quiz-bot/internal/config"
	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named in-memory database keeps the pool's connections on the same
	// store while isolating tests from each other.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Question{},
		&models.ChatSettings{},
		&models.ScoreEntry{},
		&models.AnswerRecord{},
		&models.CategoryStat{},
		&models.CategoryChatStat{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedQuestions(t *testing.T, db *gorm.DB, category string, count int) {
	t.Helper()
	opts, err := json.Marshal([]string{"a", "b", "c"})
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		q := models.Question{
			Text:         category + " question",
			Options:      string(opts),
			CorrectIndex: 0,
			Category:     category,
		}
		require.NoError(t, db.Create(&q).Error)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultQuestionCount: 10,
		MaxQuestionCount:     30,
		DefaultOpenPeriodSec: 60,
		MinOpenPeriodSec:     10,
		MaxOpenPeriodSec:     600,
		DefaultAnnounceDelay: 30,
		CategoriesPerQuiz:    3,
		DailyQuestionCount:   10,
		DailyOpenPeriodSec:   600,
		DailyIntervalSec:     60,
		DailyHour:            7,
		DailyMinute:          0,
	}
}

func TestQuestionRepository_CategoriesAndPick(t *testing.T) {
	db := testDB(t)
	repo := NewQuestionRepository(db)

	seedQuestions(t, db, "history", 3)
	seedQuestions(t, db, "science", 5)

	categories, err := repo.Categories()
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "history", categories[0].Name)
	assert.Equal(t, 3, categories[0].QuestionCount)
	assert.Equal(t, "science", categories[1].Name)
	assert.Equal(t, 5, categories[1].QuestionCount)

	picked, err := repo.PickQuestions([]string{"history"}, 10)
	require.NoError(t, err)
	assert.Len(t, picked, 3, "limit caps at available questions")
	for _, q := range picked {
		assert.Equal(t, "history", q.Category)
	}

	all, err := repo.PickQuestions(nil, 4)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestScoreRepository_RecordAnswerReplay(t *testing.T) {
	db := testDB(t)
	repo := NewScoreRepository(db)

	record := func() *models.AnswerRecord {
		return &models.AnswerRecord{
			ChatID: 1, UserID: 100, QuestionID: 7, Day: "2026-03-01", IsCorrect: true,
		}
	}

	applied, err := repo.RecordAnswer(record())
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.RecordAnswer(record())
	require.NoError(t, err)
	assert.False(t, applied, "duplicate day/question answer must not apply")

	nextDay := record()
	nextDay.Day = "2026-03-02"
	applied, err = repo.RecordAnswer(nextDay)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestScoreRepository_Leaderboards(t *testing.T) {
	db := testDB(t)
	repo := NewScoreRepository(db)

	entries := []models.ScoreEntry{
		{ChatID: 1, UserID: 100, UserName: "alice", Score: 5, AchievedMilestones: "[]"},
		{ChatID: 1, UserID: 200, UserName: "bob", Score: 8, AchievedMilestones: "[]"},
		{ChatID: 2, UserID: 100, UserName: "alice", Score: 4, AchievedMilestones: "[]"},
	}
	for i := range entries {
		require.NoError(t, repo.SaveEntry(&entries[i]))
	}

	top, err := repo.ChatTop(1, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].UserName)

	global, err := repo.GlobalTop(10)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, int64(100), global[0].UserID, "alice sums to 9 across chats")
	assert.Equal(t, 9.0, global[0].Score)
}

func TestScoreRepository_GetOrCreateEntry(t *testing.T) {
	db := testDB(t)
	repo := NewScoreRepository(db)

	entry, err := repo.GetOrCreateEntry(1, 100, "alice")
	require.NoError(t, err)
	assert.Zero(t, entry.Score)

	entry.Score = 3
	require.NoError(t, repo.SaveEntry(entry))

	again, err := repo.GetOrCreateEntry(1, 100, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3.0, again.Score)
}

func TestCategoryStatRepository_RecordAndUsage(t *testing.T) {
	db := testDB(t)
	repo := NewCategoryStatRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.RecordUse([]string{"history", "science"}, 1, now))
	require.NoError(t, repo.RecordUse([]string{"history"}, 2, now))

	usage, err := repo.Usage([]string{"history", "science", "movies"}, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(2), usage["history"].TotalUses)
	assert.Equal(t, int64(1), usage["history"].ChatUses, "chat 1 played history once")
	assert.Equal(t, int64(1), usage["science"].TotalUses)
	assert.Zero(t, usage["movies"].TotalUses, "never-played category reads as zero")
	require.NotNil(t, usage["history"].LastUsedAt)
}

func TestChatSettingsRepository_GetEffectiveDefaults(t *testing.T) {
	db := testDB(t)
	repo := NewChatSettingsRepository(db, testConfig())

	eff, err := repo.GetEffective(42)
	require.NoError(t, err)
	assert.Equal(t, 10, eff.QuestionCount)
	assert.Equal(t, 60*time.Second, eff.OpenPeriod)
	assert.Equal(t, 3, eff.CategoriesPerQuiz)
	assert.False(t, eff.Announce)
}

func TestChatSettingsRepository_OverridesWin(t *testing.T) {
	db := testDB(t)
	repo := NewChatSettingsRepository(db, testConfig())

	settings, err := repo.GetOrCreate(42)
	require.NoError(t, err)
	settings.QuestionCount = 5
	settings.OpenPeriodSec = 120
	require.NoError(t, repo.Save(settings))

	eff, err := repo.GetEffective(42)
	require.NoError(t, err)
	assert.Equal(t, 5, eff.QuestionCount)
	assert.Equal(t, 120*time.Second, eff.OpenPeriod)
}

func TestChatSettingsRepository_Daily(t *testing.T) {
	db := testDB(t)
	repo := NewChatSettingsRepository(db, testConfig())

	daily, err := repo.DailyForChat(42)
	require.NoError(t, err)
	assert.False(t, daily.Enabled)
	assert.Equal(t, 7, daily.Hour, "global default hour")

	require.NoError(t, repo.SetDailyEnabled(42, true))
	require.NoError(t, repo.SetDailyTime(42, 9, 30))

	daily, err = repo.DailyForChat(42)
	require.NoError(t, err)
	assert.True(t, daily.Enabled)
	assert.Equal(t, 9, daily.Hour)
	assert.Equal(t, 30, daily.Minute)

	chats, err := repo.ChatsWithDaily()
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, chats)

	err = repo.SetDailyTime(42, 24, 0)
	require.Error(t, err)
}
