package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shipment-bot/internal/cache"
	"shipment-bot/internal/metrics"
)

const maxUpdateBytes = 1 << 20

// UpdateProcessor handles one decoded Telegram update.
type UpdateProcessor interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Deduper reports whether an update id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, updateID int) bool
}

// TelegramWebhook receives Telegram updates on POST /webhook/{secret}.
type TelegramWebhook struct {
	secret    string
	processor UpdateProcessor
	dedup     Deduper
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewTelegramWebhook constructs the webhook handler. dedup may be nil.
func NewTelegramWebhook(secret string, processor UpdateProcessor, dedup Deduper, metrics *metrics.Metrics, logger *slog.Logger) *TelegramWebhook {
	return &TelegramWebhook{
		secret:    secret,
		processor: processor,
		dedup:     dedup,
		metrics:   metrics,
		logger:    logger.With("component", "telegram_webhook"),
	}
}

func (h *TelegramWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(r.PathValue("secret")), []byte(h.secret)) != 1 {
		h.metrics.WebhookRejected.Inc()
		h.logger.Warn("webhook secret mismatch", "remote", r.RemoteAddr)
		writeText(w, http.StatusForbidden, "forbidden")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		h.metrics.Errors.WithLabelValues("telegram_webhook_decode").Inc()
		h.logger.Warn("decode update failed", "error", err)
		writeText(w, http.StatusBadRequest, "bad request")
		return
	}

	if h.dedup != nil && !h.dedup.FirstSeen(r.Context(), update.UpdateID) {
		h.logger.Debug("duplicate update ignored", "update_id", update.UpdateID)
		writeText(w, http.StatusOK, "ok")
		return
	}

	h.processor.HandleUpdate(r.Context(), update)
	writeText(w, http.StatusOK, "ok")
}

// RedisDeduper remembers update ids in Redis so webhook retries are processed once.
type RedisDeduper struct {
	redis  *cache.Redis
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisDeduper keeps update ids for ttl.
func NewRedisDeduper(redis *cache.Redis, ttl time.Duration, logger *slog.Logger) *RedisDeduper {
	return &RedisDeduper{redis: redis, ttl: ttl, logger: logger.With("component", "dedup")}
}

// FirstSeen fails open when Redis is unavailable.
func (d *RedisDeduper) FirstSeen(ctx context.Context, updateID int) bool {
	ok, err := d.redis.Claim(ctx, cache.UpdateKey(updateID), d.ttl)
	if err != nil {
		d.logger.Warn("dedup claim failed", "error", err, "update_id", updateID)
		return true
	}
	return ok
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
