package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/core-coin/fortuna/internal/models"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Development bool
	// API configuration
	APIPort        int
	ClientIPHeader string
	TrustedProxies []string

	// Event configuration
	EventStart    time.Time
	EventEnd      time.Time
	EventTimezone string
	Salt          string
	NicknameMax   int

	// Inventory seeded on first access
	SeedTier1 int
	SeedTier2 int
	SeedTier3 int

	// Lock configuration
	LockTTL           time.Duration
	LockMaxAttempts   int
	LockBackoffMin    time.Duration
	LockBackoffJitter time.Duration
	LockAtomic        bool

	// Store configuration
	StoreBackend     string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	RedisURL         string

	// Notification configuration
	TelegramBotToken string
	TelegramChatID   string

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string
	NotifyEmail  string
}

var (
	defaultEventStart = time.Date(2026, 2, 22, 0, 0, 0, 0, time.FixedZone("KST", 9*3600))
	defaultEventEnd   = time.Date(2026, 2, 22, 23, 59, 59, 0, time.FixedZone("KST", 9*3600))
)

// Window returns the configured event window
func (c *Config) Window() models.EventWindow {
	return models.EventWindow{Start: c.EventStart, End: c.EventEnd}
}

// Seed returns the initial inventory distribution
func (c *Config) Seed() models.Inventory {
	return models.Inventory{Tier1: c.SeedTier1, Tier2: c.SeedTier2, Tier3: c.SeedTier3}
}

// Location returns the display time zone, UTC when the name cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.EventTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PostgresDSN builds the connection string for the postgres store
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		APIPort:           8888,
		EventStart:        defaultEventStart,
		EventEnd:          defaultEventEnd,
		EventTimezone:     "Asia/Seoul",
		Salt:              "fortuna-default-salt",
		NicknameMax:       20,
		SeedTier1:         1,
		SeedTier2:         3,
		SeedTier3:         10,
		LockTTL:           4 * time.Second,
		LockMaxAttempts:   25,
		LockBackoffMin:    60 * time.Millisecond,
		LockBackoffJitter: 90 * time.Millisecond,
		StoreBackend:      StoreMemory,
		PostgresUser:      "postgres",
		PostgresPassword:  "password",
		PostgresHost:      "localhost",
		PostgresPort:      5432,
		PostgresDB:        "fortuna",
		RedisURL:          "redis://localhost:6379/0",
		SMTPPort:          587,
	}
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	d := Default()
	cfg := &Config{
		Development:    getEnvAsBool("DEVELOPMENT", d.Development),
		APIPort:        getEnvAsInt("API_PORT", d.APIPort),
		ClientIPHeader: getEnv("CLIENT_IP_HEADER", d.ClientIPHeader),
		TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", d.TrustedProxies),

		EventTimezone: getEnv("EVENT_TIMEZONE", d.EventTimezone),
		Salt:          getEnv("SALT", d.Salt),
		NicknameMax:   getEnvAsInt("NICKNAME_MAX_LENGTH", d.NicknameMax),

		SeedTier1: getEnvAsInt("SEED_TIER1", d.SeedTier1),
		SeedTier2: getEnvAsInt("SEED_TIER2", d.SeedTier2),
		SeedTier3: getEnvAsInt("SEED_TIER3", d.SeedTier3),

		LockTTL:           getEnvAsDuration("LOCK_TTL", d.LockTTL),
		LockMaxAttempts:   getEnvAsInt("LOCK_MAX_ATTEMPTS", d.LockMaxAttempts),
		LockBackoffMin:    getEnvAsDuration("LOCK_BACKOFF_MIN", d.LockBackoffMin),
		LockBackoffJitter: getEnvAsDuration("LOCK_BACKOFF_JITTER", d.LockBackoffJitter),
		LockAtomic:        getEnvAsBool("LOCK_ATOMIC", d.LockAtomic),

		StoreBackend:     getEnv("STORE_BACKEND", d.StoreBackend),
		PostgresUser:     getEnv("POSTGRES_USER", d.PostgresUser),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", d.PostgresPassword),
		PostgresHost:     getEnv("POSTGRES_HOST", d.PostgresHost),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", d.PostgresPort),
		PostgresDB:       getEnv("POSTGRES_DB", d.PostgresDB),
		RedisURL:         getEnv("REDIS_URL", d.RedisURL),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", d.SMTPPort),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPSender:   getEnv("SMTP_SENDER", ""),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", ""),
	}

	var err error
	if cfg.EventStart, err = getEnvAsTime("EVENT_START", d.EventStart); err != nil {
		return nil, err
	}
	if cfg.EventEnd, err = getEnvAsTime("EVENT_END", d.EventEnd); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.EventEnd.Before(c.EventStart) {
		return fmt.Errorf("EVENT_END must not be before EVENT_START")
	}

	if c.Salt == "" {
		return fmt.Errorf("SALT is required")
	}

	if c.NicknameMax <= 0 {
		return fmt.Errorf("NICKNAME_MAX_LENGTH must be positive")
	}

	if c.SeedTier1 < 0 || c.SeedTier2 < 0 || c.SeedTier3 < 0 {
		return fmt.Errorf("SEED_TIER counts must not be negative")
	}

	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}

	if c.LockMaxAttempts <= 0 {
		return fmt.Errorf("LOCK_MAX_ATTEMPTS must be positive")
	}

	if c.LockBackoffMin < 0 || c.LockBackoffJitter < 0 {
		return fmt.Errorf("LOCK_BACKOFF_MIN and LOCK_BACKOFF_JITTER must not be negative")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.TelegramBotToken != "" && c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsSlice(name string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvAsTime fails loudly: a silently ignored window would open the event at the wrong time.
func getEnvAsTime(name string, defaultValue time.Time) (time.Time, error) {
	valueStr, exists := os.LookupEnv(name)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return value, nil
}
