package config

import (
	"fmt"
	"os"
	"strings"
)

// Config carries every external handle and token the bot needs. It is
// built once in main and passed down explicitly.
type Config struct {
	TelegramToken   string
	WebhookSecret   string
	UsersboxToken   string
	UsersboxBaseURL string
	CryptobotToken  string
	CryptobotURL    string
	AdminUsername   string
	RequiredChannel string
	BotUsername     string

	ListenAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       string

	PostgresDSN string
}

func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		WebhookSecret:   strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		UsersboxToken:   strings.TrimSpace(os.Getenv("USERSBOX_TOKEN")),
		UsersboxBaseURL: strings.TrimSpace(os.Getenv("USERSBOX_BASE_URL")),
		CryptobotToken:  strings.TrimSpace(os.Getenv("CRYPTOBOT_TOKEN")),
		CryptobotURL:    strings.TrimSpace(os.Getenv("CRYPTOBOT_BASE_URL")),
		AdminUsername:   strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		RequiredChannel: strings.TrimSpace(os.Getenv("REQUIRED_CHANNEL")),
		BotUsername:     strings.TrimSpace(os.Getenv("BOT_USERNAME")),
		ListenAddr:      strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
		RedisAddr:       strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         strings.TrimSpace(os.Getenv("REDIS_DB")),
		PostgresDSN:     strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if cfg.UsersboxBaseURL == "" {
		cfg.UsersboxBaseURL = "https://api.usersbox.ru/v1"
	}
	if cfg.CryptobotURL == "" {
		cfg.CryptobotURL = "https://pay.crypt.bot/api"
	}
	if cfg.BotUsername == "" {
		cfg.BotUsername = "search1_test_bot"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8001"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	return cfg, nil
}
