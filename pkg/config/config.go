package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	SnapshotPath       string
	RemoteDriver       string // postgres, redis or none
	PostgresDSN        string
	RedisURL           string
	DocumentID         string
	PushDebounceMS     int
	JWTSecret          string
	AdminUsername      string
	AdminEmail         string
	AdminPassword      string
	TierConfigPath     string
	TelegramToken      string
	TelegramChatID     int64
	CloudinaryURL      string
	CloudinaryFolder   string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// TierConfig is the optional YAML override for membership pricing and
// commission rates. Amounts are in Malawi Kwacha.
type TierConfig struct {
	Tiers         map[string]int64 `yaml:"tiers"`
	Level1Percent int64            `yaml:"level1Percent"`
	Level2Percent int64            `yaml:"level2Percent"`
	MinWithdrawal int64            `yaml:"minWithdrawal"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	debounce, err := strconv.Atoi(getEnv("PUSH_DEBOUNCE_MS", "2000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_DEBOUNCE_MS: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	var chatID int64
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	driver := strings.ToLower(getEnv("REMOTE_DRIVER", "postgres"))
	switch driver {
	case "postgres", "redis", "none":
	default:
		return nil, fmt.Errorf("invalid REMOTE_DRIVER %q: want postgres, redis or none", driver)
	}

	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		ServerPort:       port,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SnapshotPath:     getEnv("SNAPSHOT_PATH", "portal.db"),
		RemoteDriver:     driver,
		PostgresDSN:      getEnv("POSTGRES_DSN", "postgres://localhost:5432/affiliateportal?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		DocumentID:       getEnv("DOCUMENT_ID", "portal-main"),
		PushDebounceMS:   debounce,
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		TierConfigPath:   os.Getenv("TIER_CONFIG_PATH"),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   chatID,
		CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "affiliateportal"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}, nil
}

// LoadTierConfig parses the YAML pricing override at path.
func LoadTierConfig(path string) (*TierConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier config: %w", err)
	}
	var tc TierConfig
	if err := yaml.Unmarshal(raw, &tc); err != nil {
		return nil, fmt.Errorf("parse tier config: %w", err)
	}
	return &tc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
