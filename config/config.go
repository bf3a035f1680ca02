// Package config loads application configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"goldsys/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Terminal gateway credentials
	TerminalBaseURL    string
	TerminalAPIKey     string
	TerminalAccount    string
	TerminalPassword   string
	TerminalServer     string
	TerminalTOTPSecret string

	// Instrument
	Symbol     string
	EnabledTFs string // comma-separated, e.g. "M1,M5,M15"
	SignalTF   string // timeframe the detector evaluates

	// Trading session window
	SessionZone  string
	SessionOpen  int
	SessionClose int

	// Feed + dashboard
	FeedURL      string // websocket tick stream; "" disables the feed
	DashboardURL string // fixed dashboard base; "" enables port discovery

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	// Optional extras
	ModelPath        string
	CalendarURL      string
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env file")
	}

	return &Config{
		TerminalBaseURL:    getEnv("TERMINAL_BASE_URL", "http://localhost:8228"),
		TerminalAPIKey:     getEnv("TERMINAL_API_KEY", ""),
		TerminalAccount:    mustEnv("TERMINAL_ACCOUNT"),
		TerminalPassword:   mustEnv("TERMINAL_PASSWORD"),
		TerminalServer:     getEnv("TERMINAL_SERVER", "Demo"),
		TerminalTOTPSecret: getEnv("TERMINAL_TOTP_SECRET", ""),

		Symbol:     getEnv("SYMBOL", "XAUUSD"),
		EnabledTFs: getEnv("ENABLED_TFS", "M1,M5,M15"),
		SignalTF:   getEnv("SIGNAL_TF", "M15"),

		SessionZone:  getEnv("SESSION_ZONE", "America/New_York"),
		SessionOpen:  getEnvInt("SESSION_OPEN_HOUR", 8),
		SessionClose: getEnvInt("SESSION_CLOSE_HOUR", 10),

		FeedURL:      getEnv("FEED_URL", ""),
		DashboardURL: getEnv("DASHBOARD_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/bars.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		ModelPath:        getEnv("MODEL_PATH", "data/model.json"),
		CalendarURL:      getEnv("CALENDAR_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

// ParseTFs parses EnabledTFs into validated timeframes, skipping invalid
// entries with a log line.
func (c *Config) ParseTFs() []model.Timeframe {
	parts := strings.Split(c.EnabledTFs, ",")
	tfs := make([]model.Timeframe, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tf, err := model.ParseTimeframe(p)
		if err != nil {
			log.Printf("[config] skipping invalid TF value: %q", p)
			continue
		}
		tfs = append(tfs, tf)
	}
	return tfs
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
