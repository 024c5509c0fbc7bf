package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Application
	AppEnv         string
	LogLevel       string
	SuperAdminTgID int64

	// Rate limiting
	RateLimitPerUser  int
	RateLimitWindowMs int

	// Quiz defaults
	DefaultQuestionCount  int
	MaxQuestionCount      int
	DefaultOpenPeriodSec  int
	MinOpenPeriodSec      int
	MaxOpenPeriodSec      int
	DefaultAnnounceDelay  int
	CategoriesPerQuiz     int
	PromptTimeoutGraceSec int

	// Daily quiz defaults
	DailyQuestionCount int
	DailyOpenPeriodSec int
	DailyIntervalSec   int
	DailyHour          int
	DailyMinute        int
	Timezone           string

	// Tiered message cleanup
	CleanupStatusSec  int
	CleanupPromptSec  int
	CleanupResultsSec int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:   getEnv("BOT_TOKEN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "quizbot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "quizbot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerUser:  getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitWindowMs: getEnvInt("RATE_LIMIT_WINDOW_MS", 60000),

		DefaultQuestionCount:  getEnvInt("QUIZ_DEFAULT_QUESTIONS", 10),
		MaxQuestionCount:      getEnvInt("QUIZ_MAX_QUESTIONS", 30),
		DefaultOpenPeriodSec:  getEnvInt("QUIZ_OPEN_PERIOD_SECONDS", 60),
		MinOpenPeriodSec:      getEnvInt("QUIZ_MIN_OPEN_PERIOD_SECONDS", 10),
		MaxOpenPeriodSec:      getEnvInt("QUIZ_MAX_OPEN_PERIOD_SECONDS", 600),
		DefaultAnnounceDelay:  getEnvInt("QUIZ_ANNOUNCE_DELAY_SECONDS", 30),
		CategoriesPerQuiz:     getEnvInt("QUIZ_CATEGORIES_PER_QUIZ", 3),
		PromptTimeoutGraceSec: getEnvInt("QUIZ_TIMEOUT_GRACE_SECONDS", 3),

		DailyQuestionCount: getEnvInt("DAILY_QUIZ_QUESTIONS", 10),
		DailyOpenPeriodSec: getEnvInt("DAILY_QUIZ_OPEN_PERIOD_SECONDS", 600),
		DailyIntervalSec:   getEnvInt("DAILY_QUIZ_INTERVAL_SECONDS", 60),
		DailyHour:          getEnvInt("DAILY_QUIZ_HOUR", 7),
		DailyMinute:        getEnvInt("DAILY_QUIZ_MINUTE", 0),
		Timezone:           getEnv("QUIZ_TIMEZONE", "Europe/Moscow"),

		CleanupStatusSec:  getEnvInt("CLEANUP_STATUS_SECONDS", 90),
		CleanupPromptSec:  getEnvInt("CLEANUP_PROMPT_SECONDS", 1800),
		CleanupResultsSec: getEnvInt("CLEANUP_RESULTS_SECONDS", 21600),
	}

	superAdminStr := getEnv("SUPER_ADMIN_TELEGRAM_ID", "")
	if superAdminStr != "" {
		id, err := strconv.ParseInt(superAdminStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUPER_ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.SuperAdminTgID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.DefaultQuestionCount < 1 || c.DefaultQuestionCount > c.MaxQuestionCount {
		return fmt.Errorf("QUIZ_DEFAULT_QUESTIONS must be between 1 and %d", c.MaxQuestionCount)
	}
	if c.MinOpenPeriodSec < 5 || c.MaxOpenPeriodSec < c.MinOpenPeriodSec {
		return fmt.Errorf("invalid open period bounds: min=%d max=%d", c.MinOpenPeriodSec, c.MaxOpenPeriodSec)
	}
	if c.DefaultOpenPeriodSec < c.MinOpenPeriodSec || c.DefaultOpenPeriodSec > c.MaxOpenPeriodSec {
		return fmt.Errorf("QUIZ_OPEN_PERIOD_SECONDS must be between %d and %d", c.MinOpenPeriodSec, c.MaxOpenPeriodSec)
	}
	if c.DailyHour < 0 || c.DailyHour > 23 || c.DailyMinute < 0 || c.DailyMinute > 59 {
		return fmt.Errorf("invalid daily quiz time %02d:%02d", c.DailyHour, c.DailyMinute)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid QUIZ_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Location returns the configured quiz timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMs) * time.Millisecond
}

func (c *Config) CleanupStatusTTL() time.Duration {
	return time.Duration(c.CleanupStatusSec) * time.Second
}

func (c *Config) CleanupPromptTTL() time.Duration {
	return time.Duration(c.CleanupPromptSec) * time.Second
}

func (c *Config) CleanupResultsTTL() time.Duration {
	return time.Duration(c.CleanupResultsSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
