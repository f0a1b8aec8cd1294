package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the scheduler service.
type AppConfig struct {
	DatabaseURL       string
	HTTPAddr          string
	LogLevel          string
	Environment       string
	CronSpecDispatch  string        // hourly notification bucketing tick
	SummaryWeekday    time.Weekday  // weekday the weekly summary bucket fires
	EnqueueAttempts   int           // bounded retry for task-queue submission
	EnqueueRetryDelay time.Duration // fixed delay between enqueue attempts
	TierEventsChannel string        // postgres NOTIFY channel for tier changes
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables; a missing
	// .env file is not an error.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecDispatch = os.Getenv("CRON_SPEC_DISPATCH")
	if cfg.CronSpecDispatch == "" {
		cfg.CronSpecDispatch = "0 * * * *" // top of every hour
	}

	weekdayStr := os.Getenv("WEEKLY_SUMMARY_WEEKDAY")
	if weekdayStr == "" {
		cfg.SummaryWeekday = time.Monday
	} else {
		wd, err := strconv.Atoi(weekdayStr)
		if err != nil || wd < 0 || wd > 6 {
			return nil, fmt.Errorf("invalid WEEKLY_SUMMARY_WEEKDAY %q: expected 0 (Sunday) through 6 (Saturday)", weekdayStr)
		}
		cfg.SummaryWeekday = time.Weekday(wd)
	}

	attemptsStr := os.Getenv("ENQUEUE_MAX_ATTEMPTS")
	if attemptsStr == "" {
		cfg.EnqueueAttempts = 3
	} else {
		attempts, err := strconv.Atoi(attemptsStr)
		if err != nil || attempts < 1 {
			return nil, fmt.Errorf("invalid ENQUEUE_MAX_ATTEMPTS %q", attemptsStr)
		}
		cfg.EnqueueAttempts = attempts
	}

	delayStr := os.Getenv("ENQUEUE_RETRY_DELAY")
	if delayStr == "" {
		cfg.EnqueueRetryDelay = 2 * time.Second
	} else {
		delay, err := time.ParseDuration(delayStr)
		if err != nil || delay < 0 {
			return nil, fmt.Errorf("invalid ENQUEUE_RETRY_DELAY %q", delayStr)
		}
		cfg.EnqueueRetryDelay = delay
	}

	cfg.TierEventsChannel = os.Getenv("TIER_EVENTS_CHANNEL")
	if cfg.TierEventsChannel == "" {
		cfg.TierEventsChannel = "tier_changes"
	}

	return cfg, nil
}
