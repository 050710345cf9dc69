package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"shipment-bot/internal/cache"
	"shipment-bot/internal/config"
	"shipment-bot/internal/convo"
	"shipment-bot/internal/handlers"
	"shipment-bot/internal/metrics"
	"shipment-bot/internal/session"
	"shipment-bot/internal/telegram"
	"shipment-bot/internal/whatsapp"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed loading .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(cfg.MetricsNamespace)

	opts := convo.Options{
		Mode:        cfg.BotMode,
		IdleTimeout: cfg.IdleTimeout,
		RefPrefix:   cfg.ClientRefPrefix,
	}
	var dedup handlers.Deduper
	if cfg.RedisAddr != "" {
		redis, err := cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redis.Close()
		opts.Pending = session.NewRedisPending(redis, cfg.PendingTTL)
		opts.Limiter = convo.NewRedisLimiter(redis, cfg.BulkRateLimit, cfg.BulkRateWindow, logger)
		dedup = handlers.NewRedisDeduper(redis, 24*time.Hour, logger)
		logger.Info("redis enabled", "addr", cfg.RedisAddr)
	}

	engine := convo.New(opts, m, logger)
	defer engine.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info("telegram authorized", "username", api.Self.UserName, "mode", cfg.BotMode)
	engine.Register(telegram.Channel, telegram.NewGateway(api, logger))
	bot := telegram.NewBot(api, engine, m, logger)

	if cfg.WhatsAppEnabled {
		wa, err := whatsapp.Open(ctx, whatsapp.Config{
			StorePath: cfg.WhatsAppStorePath,
			LogLevel:  cfg.WhatsAppLogLevel,
		}, engine, m, logger)
		if err != nil {
			return err
		}
		engine.Register(whatsapp.Channel, wa.Gateway())
		if err := wa.Connect(ctx); err != nil {
			return err
		}
		defer wa.Disconnect()
	}

	var webhook http.Handler
	if cfg.UseWebhook() {
		if err := bot.SetWebhook(cfg.WebhookURL()); err != nil {
			return err
		}
		webhook = handlers.NewTelegramWebhook(cfg.WebhookSecret, bot, dedup, m, logger)
	} else {
		if err := bot.DeleteWebhook(); err != nil {
			return err
		}
		go bot.Poll(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           handlers.NewRouter(cfg.PublicBasePath, webhook, m.Handler(), logger),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.AppEnv, "production") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("app", "shipment-bot")
}
