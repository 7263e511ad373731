package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BusLocal = "local"
	BusRedis = "redis"
	BusNATS  = "nats"
)

type Config struct {
	Port                 string `validate:"required,numeric"`
	DBUrl                string
	JWTSecret            string        `validate:"required"`
	JWTTTL               time.Duration `validate:"gt=0"`
	AppEnv               string
	LogLevel             string `validate:"oneof=debug info warn error"`
	LogFormat            string `validate:"oneof=json text"`
	CORSAllowOrigins     string
	ChatBus              string        `validate:"oneof=local redis nats"`
	RedisURL             string        `validate:"required_if=ChatBus redis"`
	NATSURL              string        `validate:"required_if=ChatBus nats"`
	MaxMessageLength     int           `validate:"min=1,max=20000"`
	PresenceSyncInterval time.Duration `validate:"gt=0"`
	PresenceStaleAfter   time.Duration `validate:"gtfield=PresenceSyncInterval"`
	CoachDefaultSlots    int           `validate:"min=1"`
	TrustProxy           bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBUrl:                getEnv("DB_URL", ""),
		JWTSecret:            jwtSecret,
		JWTTTL:               getEnvDuration("JWT_TTL", 24*time.Hour),
		AppEnv:               normalizeEnv(getEnv("APP_ENV", "production")),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "json")),
		CORSAllowOrigins:     getEnv("CORS_ALLOW_ORIGINS", "*"),
		ChatBus:              strings.ToLower(getEnv("CHAT_BUS", BusLocal)),
		RedisURL:             getEnv("REDIS_URL", ""),
		NATSURL:              getEnv("NATS_URL", ""),
		MaxMessageLength:     getEnvInt("CHAT_MAX_MESSAGE_LENGTH", 5000),
		PresenceSyncInterval: getEnvDuration("PRESENCE_SYNC_INTERVAL", 30*time.Second),
		PresenceStaleAfter:   getEnvDuration("PRESENCE_STALE_AFTER", 2*time.Minute),
		CoachDefaultSlots:    getEnvInt("COACH_DEFAULT_SLOTS", 10),
		TrustProxy:           getEnvBool("TRUST_PROXY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}
