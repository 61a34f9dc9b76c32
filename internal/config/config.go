package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	OpenAIKey        string
	OpenAIModel      string
	GmailAccessToken string
	GmailQuery       string
	CalendarID       string
	CalendarTimezone string
	RedisAddr        string
	WebhookURL       string
	Env              string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             GetEnv("PORT", "8080"),
		DatabaseURL:      GetEnv("DATABASE_URL", ""),
		OpenAIKey:        GetEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      GetEnv("OPENAI_MODEL", "gpt-4o"),
		GmailAccessToken: GetEnv("GMAIL_ACCESS_TOKEN", ""),
		GmailQuery:       GetEnv("GMAIL_QUERY", "from:airbnb.com is:unread"),
		CalendarID:       GetEnv("CALENDAR_ID", "primary"),
		CalendarTimezone: GetEnv("CALENDAR_TIMEZONE", "Asia/Tokyo"),
		RedisAddr:        GetEnv("REDIS_ADDR", ""),
		WebhookURL:       GetEnv("WEBHOOK_URL", ""),
		Env:              GetEnv("ENV", "development"),
	}, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.GmailAccessToken == "" {
		return fmt.Errorf("GMAIL_ACCESS_TOKEN is required")
	}
	return nil
}
