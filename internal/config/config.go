package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	ChatMemory = "memory"
	ChatRedis  = "redis"

	SpeechGCP  = "gcp"
	SpeechNone = "none"
)

// app config, read once at startup
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	// AI provider; gemini specifics are read by gemini.NewConfig()
	Provider       string
	AICallTimeout  time.Duration
	ChatBackend    string
	ChatHistoryTTL time.Duration

	StoreDriver string
	MongoURI    string
	MongoDB     string
	Postgres    PostgresConfig
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	EventsChannel string

	SpeechProvider string
	SpeechLanguage string
	AudioMaxBytes  int

	DailyResetSchedule string
	CORSOrigins        []string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the gorm postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	timeout, err := getEnvDuration("AI_CALL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvDuration("CHAT_HISTORY_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	audioMax, err := getEnvInt("AUDIO_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:      getEnvOrDefault("PORT", "8080"),
		Env:       getEnvOrDefault("APP_ENV", "production"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		Provider:       getEnvOrDefault("AI_PROVIDER", "gemini"),
		AICallTimeout:  timeout,
		ChatBackend:    getEnvOrDefault("CHAT_HISTORY_BACKEND", ChatMemory),
		ChatHistoryTTL: ttl,

		StoreDriver: getEnvOrDefault("STORE_DRIVER", StoreMongo),
		MongoURI:    getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnvOrDefault("MONGO_DB_NAME", "peerprep_interview"),
		Postgres: PostgresConfig{
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   getEnvOrDefault("POSTGRES_DB", "interview"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		},
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "interview.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		EventsChannel: getEnvOrDefault("EVENTS_CHANNEL", "interview-events"),

		SpeechProvider: getEnvOrDefault("SPEECH_PROVIDER", SpeechNone),
		SpeechLanguage: getEnvOrDefault("SPEECH_LANGUAGE", "en-US"),
		AudioMaxBytes:  audioMax,

		DailyResetSchedule: getEnvOrDefault("DAILY_RESET_SCHEDULE", "0 0 * * *"),
		CORSOrigins:        splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsDevelopment reports whether APP_ENV selects development logging.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func validateConfig(config *Config) error {
	if config.Provider != "gemini" {
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini")
	}
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch config.StoreDriver {
	case StoreMongo, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q: use mongo, postgres or sqlite", config.StoreDriver)
	}

	switch config.ChatBackend {
	case ChatMemory:
	case ChatRedis:
		if config.RedisAddr == "" {
			return errors.New("CHAT_HISTORY_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unsupported CHAT_HISTORY_BACKEND %q: use memory or redis", config.ChatBackend)
	}

	if config.SpeechProvider != SpeechGCP && config.SpeechProvider != SpeechNone {
		return fmt.Errorf("unsupported SPEECH_PROVIDER %q: use gcp or none", config.SpeechProvider)
	}
	if config.AICallTimeout <= 0 {
		return errors.New("AI_CALL_TIMEOUT must be positive")
	}
	if config.AudioMaxBytes <= 0 {
		return errors.New("AUDIO_MAX_BYTES must be positive")
	}
	if _, err := cron.ParseStandard(config.DailyResetSchedule); err != nil {
		return fmt.Errorf("invalid DAILY_RESET_SCHEDULE: %w", err)
	}
	// Gemini validation is handled by gemini.NewConfig()
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
