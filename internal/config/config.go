package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	TelegramToken string

	// AdminChatIDs is the allow-list for /admin and all admin-scoped actions
	AdminChatIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	// InviteChannelID is the channel users are invited to; optional
	InviteChannelID int64

	// PostgreSQL configuration
	DatabaseURL string

	UseMockDB bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Admin chat IDs (required)
	adminIDsStr := os.Getenv("ADMIN_CHAT_IDS")
	if adminIDsStr == "" {
		return nil, fmt.Errorf("ADMIN_CHAT_IDS is required (comma-separated list of Telegram chat IDs)")
	}

	for _, idStr := range strings.Split(adminIDsStr, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID in ADMIN_CHAT_IDS: %s", idStr)
		}
		config.AdminChatIDs = append(config.AdminChatIDs, id)
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	// Invite channel (optional)
	if channelStr := os.Getenv("INVITE_CHANNEL_ID"); channelStr != "" {
		id, err := strconv.ParseInt(channelStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid INVITE_CHANNEL_ID: %w", err)
		}
		config.InviteChannelID = id
	}

	// Use Mock DB (default: false)
	config.UseMockDB = os.Getenv("USE_MOCK_DB") == "true"

	// PostgreSQL configuration (required if not using mock)
	if !config.UseMockDB {
		config.DatabaseURL = os.Getenv("DATABASE_URL")
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when USE_MOCK_DB is not set")
		}
	}

	return config, nil
}
