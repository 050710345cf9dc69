package config

import (
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_LISTEN_ADDR", "PORT", "METRICS_NAMESPACE",
	"BOT_TOKEN", "BOT_MODE", "WEBHOOK_SECRET", "BASE_URL", "IDLE_TIMEOUT",
	"CLIENT_REF_PREFIX", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TLS",
	"PENDING_TTL", "BULK_RATE_LIMIT", "BULK_RATE_WINDOW",
	"WHATSAPP_ENABLED", "WHATSAPP_STORE_PATH", "WHATSAPP_LOG_LEVEL",
}

// clearEnv blanks every variable Load reads; blank values fall back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BotMode != ModeBulk {
		t.Fatalf("expected bulk mode, got %q", cfg.BotMode)
	}
	if cfg.HTTPListenAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPListenAddr)
	}
	if cfg.IdleTimeout != 0 {
		t.Fatalf("expected idle timeout disabled, got %v", cfg.IdleTimeout)
	}
	if cfg.ClientRefPrefix != "SHP" {
		t.Fatalf("expected SHP prefix, got %q", cfg.ClientRefPrefix)
	}
	if cfg.PendingTTL != 30*time.Minute || cfg.BulkRateWindow != 10*time.Minute || cfg.BulkRateLimit != 20 {
		t.Fatalf("unexpected redis defaults: %+v", cfg)
	}
	if cfg.UseWebhook() {
		t.Fatalf("expected long polling without BASE_URL")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "BOT_TOKEN") {
		t.Fatalf("expected BOT_TOKEN error, got %v", err)
	}
}

func TestLoadIdleTimeout(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "5", want: 5 * time.Second},
		{raw: "5s", want: 5 * time.Second},
		{raw: "1m", want: time.Minute},
		{raw: "0.5", want: 500 * time.Millisecond},
		{raw: "-1", wantErr: true},
		{raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BOT_TOKEN", "x")
			t.Setenv("IDLE_TIMEOUT", tt.raw)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.IdleTimeout != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, cfg.IdleTimeout)
			}
		})
	}
}

func TestLoadWebhook(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("BASE_URL", "https://bot.example.com/hooks/")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "WEBHOOK_SECRET") {
		t.Fatalf("expected WEBHOOK_SECRET error, got %v", err)
	}

	t.Setenv("WEBHOOK_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UseWebhook() {
		t.Fatalf("expected webhook mode")
	}
	if cfg.PublicBasePath != "/hooks" {
		t.Fatalf("expected base path /hooks, got %q", cfg.PublicBasePath)
	}
	if got := cfg.WebhookURL(); got != "https://bot.example.com/hooks/webhook/s3cret" {
		t.Fatalf("unexpected webhook url %q", got)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("BOT_MODE", "batch")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestLoadPortFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("PORT", "9000")
	t.Setenv("BOT_MODE", "Collect")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPListenAddr != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.HTTPListenAddr)
	}
	if cfg.BotMode != ModeCollect {
		t.Fatalf("expected collect mode, got %q", cfg.BotMode)
	}
}
