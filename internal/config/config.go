package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	// Discord
	BotToken      string
	GuildID       string
	TextChannelID string
	APIBaseURL    string
	GatewayURL    string

	// Control surface auth
	JWTSecret    string
	APITokenHash string

	// Invite email (optional, SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	FetchTimeout  time.Duration
	NotifyTimeout time.Duration
	RateLimit     int
	RateWindow    time.Duration
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "3000"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:    getEnv("DB_URL", ""),
		DatabasePath:   getEnv("DB_PATH", "./invitetrack.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		BotToken:      getEnv("DISCORD_BOT_TOKEN", ""),
		GuildID:       getEnv("DISCORD_GUILD_ID", ""),
		TextChannelID: getEnv("DISCORD_TEXT_CHANNEL_ID", ""),
		APIBaseURL:    getEnv("DISCORD_API_BASE_URL", "https://discord.com/api/v10"),
		GatewayURL:    getEnv("DISCORD_GATEWAY_URL", "wss://gateway.discord.gg/?v=10&encoding=json"),

		JWTSecret:    getEnv("API_JWT_SECRET", ""),
		APITokenHash: getEnv("API_TOKEN_HASH", ""),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Invite Tracker"),

		FetchTimeout:  getDuration("FETCH_TIMEOUT", 10*time.Second),
		NotifyTimeout: getDuration("NOTIFY_TIMEOUT", 10*time.Second),
		RateLimit:     getInt("RATE_LIMIT", 30),
		RateWindow:    getDuration("RATE_WINDOW", time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration reads a duration environment variable or returns a default
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getInt reads an integer environment variable or returns a default
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
