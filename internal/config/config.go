package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Bot modes selected by BOT_MODE.
const (
	ModeGuided  = "guided"
	ModeCollect = "collect"
	ModeBulk    = "bulk"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	LogLevel          string
	HTTPListenAddr    string
	MetricsNamespace  string
	BotToken          string
	BotMode           string
	WebhookSecret     string
	PublicBaseURL     string
	PublicBasePath    string
	IdleTimeout       time.Duration
	ClientRefPrefix   string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisTLS          bool
	PendingTTL        time.Duration
	BulkRateLimit     int64
	BulkRateWindow    time.Duration
	WhatsAppEnabled   bool
	WhatsAppStorePath string
	WhatsAppLogLevel  string
}

// Load returns configuration populated from environment variables with fallbacks.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            getenvDefault("APP_ENV", "development"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		HTTPListenAddr:    getenvDefault("HTTP_LISTEN_ADDR", ""),
		MetricsNamespace:  getenvDefault("METRICS_NAMESPACE", "shipment_bot"),
		BotToken:          trimmedEnv("BOT_TOKEN"),
		BotMode:           strings.ToLower(getenvDefault("BOT_MODE", ModeBulk)),
		WebhookSecret:     trimmedEnv("WEBHOOK_SECRET"),
		PublicBaseURL:     getenvDefault("BASE_URL", ""),
		ClientRefPrefix:   getenvDefault("CLIENT_REF_PREFIX", "SHP"),
		RedisAddr:         trimmedEnv("REDIS_ADDR"),
		RedisPassword:     trimmedEnv("REDIS_PASSWORD"),
		WhatsAppStorePath: getenvDefault("WHATSAPP_STORE_PATH", "data/wa-store.db"),
		WhatsAppLogLevel:  getenvDefault("WHATSAPP_LOG_LEVEL", "INFO"),
	}

	if cfg.HTTPListenAddr == "" {
		if port := trimmedEnv("PORT"); port != "" {
			cfg.HTTPListenAddr = ":" + port
		} else {
			cfg.HTTPListenAddr = ":8080"
		}
	}

	switch cfg.BotMode {
	case ModeGuided, ModeCollect, ModeBulk:
	default:
		return nil, fmt.Errorf("invalid BOT_MODE %q: want guided, collect or bulk", cfg.BotMode)
	}

	var err error
	if cfg.IdleTimeout, err = parseIdle(getenvDefault("IDLE_TIMEOUT", "0")); err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT duration: %w", err)
	}

	if cfg.PendingTTL, err = time.ParseDuration(getenvDefault("PENDING_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("invalid PENDING_TTL duration: %w", err)
	}

	if cfg.BulkRateWindow, err = time.ParseDuration(getenvDefault("BULK_RATE_WINDOW", "10m")); err != nil {
		return nil, fmt.Errorf("invalid BULK_RATE_WINDOW duration: %w", err)
	}

	if limitStr := getenvDefault("BULK_RATE_LIMIT", "20"); limitStr != "" {
		limit, convErr := strconv.ParseInt(limitStr, 10, 64)
		if convErr != nil {
			return nil, fmt.Errorf("invalid BULK_RATE_LIMIT value: %w", convErr)
		}
		if limit < 0 {
			limit = 0
		}
		cfg.BulkRateLimit = limit
	}

	if redisDBStr := getenvDefault("REDIS_DB", "0"); redisDBStr != "" {
		db, convErr := strconv.Atoi(redisDBStr)
		if convErr != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value: %w", convErr)
		}
		cfg.RedisDB = db
	}

	cfg.RedisTLS = strings.EqualFold(getenvDefault("REDIS_TLS", "false"), "true")
	cfg.WhatsAppEnabled = strings.EqualFold(getenvDefault("WHATSAPP_ENABLED", "false"), "true")

	if cfg.PublicBaseURL != "" {
		parsed, err := url.Parse(cfg.PublicBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid BASE_URL %q", cfg.PublicBaseURL)
		}
		basePath := strings.TrimSuffix(parsed.Path, "/")
		if basePath == "/" {
			basePath = ""
		}
		cfg.PublicBasePath = basePath
		cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
		if cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("WEBHOOK_SECRET is required when BASE_URL is set")
		}
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	return cfg, nil
}

// UseWebhook reports whether updates arrive by webhook rather than long polling.
func (c *Config) UseWebhook() bool {
	return c.PublicBaseURL != ""
}

// WebhookURL is the public URL registered with Telegram.
func (c *Config) WebhookURL() string {
	return c.PublicBaseURL + "/webhook/" + c.WebhookSecret
}

// parseIdle accepts Go durations and bare numbers of seconds.
func parseIdle(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative value %q", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative value %q", raw)
	}
	return d, nil
}

func getenvDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func trimmedEnv(key string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return ""
}
