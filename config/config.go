package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBotToken       string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	NewsAPIKey             string `envconfig:"NEWS_API_KEY"       required:"true"`
	DatabasePath           string `envconfig:"DATABASE_PATH" default:"newsbot.db"`
	NewsAPIBaseURL         string `envconfig:"NEWS_API_BASE_URL" default:"https://newsapi.org/v2"`
	RequestTimeoutSeconds  int    `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"10"`
	SessionTTLMinutes      int    `envconfig:"SESSION_TTL_MINUTES" default:"60"`
	CleanupIntervalMinutes int    `envconfig:"CLEANUP_INTERVAL_MINUTES" default:"30"`
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config
	err = envconfig.Process("", &cfg)
	if err != nil {
		log.Fatalf("Failed to process configuration: %v", err)
	}

	return cfg
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}
