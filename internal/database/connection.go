package database

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lizardjazz1/morning-quiz-bot/internal/config"
	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/pkg/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// A quiz bot sees bursts when a popular chat answers a poll, not a
	// constant flood. A modest warm pool covers that.
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Question{},
		&models.ChatSettings{},
		&models.ScoreEntry{},
		&models.AnswerRecord{},
		&models.CategoryStat{},
		&models.CategoryChatStat{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

type seedQuestion struct {
	text     string
	options  []string
	correct  int
	category string
	explain  string
}

// SeedQuestions loads a starter pool on an empty database so the bot is
// playable before any import runs.
func SeedQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("Seeding starter questions...")

	seeds := []seedQuestion{
		{
			text:     "Which planet is closest to the Sun?",
			options:  []string{"Venus", "Mercury", "Mars", "Earth"},
			correct:  1,
			category: "Science",
			explain:  "Mercury orbits at about 58 million km from the Sun.",
		},
		{
			text:     "What gas do plants absorb from the atmosphere?",
			options:  []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"},
			correct:  2,
			category: "Science",
		},
		{
			text:     "In which year did the Berlin Wall fall?",
			options:  []string{"1987", "1989", "1991", "1993"},
			correct:  1,
			category: "History",
		},
		{
			text:     "Who was the first emperor of Rome?",
			options:  []string{"Julius Caesar", "Nero", "Augustus", "Caligula"},
			correct:  2,
			category: "History",
			explain:  "Octavian took the name Augustus in 27 BC.",
		},
		{
			text:     "Which country has the longest coastline in the world?",
			options:  []string{"Russia", "Australia", "Canada", "Norway"},
			correct:  2,
			category: "Geography",
		},
		{
			text:     "What is the capital of New Zealand?",
			options:  []string{"Auckland", "Wellington", "Christchurch", "Hamilton"},
			correct:  1,
			category: "Geography",
		},
		{
			text:     "Which film won the first Academy Award for Best Picture?",
			options:  []string{"Wings", "Sunrise", "Metropolis", "The Jazz Singer"},
			correct:  0,
			category: "Movies",
		},
		{
			text:     "Who directed the movie Jaws?",
			options:  []string{"George Lucas", "Steven Spielberg", "Martin Scorsese", "Francis Ford Coppola"},
			correct:  1,
			category: "Movies",
		},
		{
			text:     "How many strings does a standard violin have?",
			options:  []string{"4", "5", "6", "7"},
			correct:  0,
			category: "Music",
		},
		{
			text:     "Which band released the album Abbey Road?",
			options:  []string{"The Rolling Stones", "The Beatles", "The Who", "Pink Floyd"},
			correct:  1,
			category: "Music",
		},
	}

	for _, s := range seeds {
		opts, err := json.Marshal(s.options)
		if err != nil {
			return fmt.Errorf("failed to encode seed options: %w", err)
		}
		q := models.Question{
			Text:         s.text,
			Options:      string(opts),
			CorrectIndex: s.correct,
			Category:     s.category,
			Explanation:  s.explain,
		}
		if err := db.Create(&q).Error; err != nil {
			return fmt.Errorf("failed to seed question: %w", err)
		}
	}

	logger.Info("Starter questions seeded", "count", len(seeds))
	return nil
}
