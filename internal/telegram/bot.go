package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shipment-bot/internal/convo"
	"shipment-bot/internal/metrics"
)

// EventHandler consumes normalized chat events.
type EventHandler interface {
	Handle(ctx context.Context, evt convo.Event)
}

// Bot turns Telegram updates into convo events, by webhook or long polling.
type Bot struct {
	client  Client
	handler EventHandler
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBot creates the update dispatcher.
func NewBot(client Client, handler EventHandler, metrics *metrics.Metrics, logger *slog.Logger) *Bot {
	return &Bot{
		client:  client,
		handler: handler,
		metrics: metrics,
		logger:  logger.With("component", "telegram"),
	}
}

// HandleUpdate processes one update. Callback queries are answered and their keyboard removed
// before the event reaches the engine so a batch cannot be confirmed twice from the same preview.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		b.settleCallback(cq)
	}
	evt, ok := ToEvent(update)
	if !ok {
		b.logger.Debug("ignoring update", "update_id", update.UpdateID)
		return
	}
	b.handler.Handle(ctx, evt)
}

func (b *Bot) settleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := b.client.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.metrics.Errors.WithLabelValues("telegram_callback").Inc()
		b.logger.Warn("answer callback failed", "error", err)
	}
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.client.Request(edit); err != nil {
		b.metrics.Errors.WithLabelValues("telegram_callback").Inc()
		b.logger.Warn("remove keyboard failed", "error", err)
	}
}

// ToEvent converts text messages and callback queries. Other updates are ignored.
func ToEvent(update tgbotapi.Update) (convo.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		var chatID int64
		switch {
		case cq.Message != nil && cq.Message.Chat != nil:
			chatID = cq.Message.Chat.ID
		case cq.From != nil:
			chatID = cq.From.ID
		default:
			return convo.Event{}, false
		}
		return convo.Event{Chat: chat(chatID), Callback: cq.Data}, true
	case update.Message != nil && update.Message.Chat != nil && update.Message.Text != "":
		return convo.Event{Chat: chat(update.Message.Chat.ID), Text: update.Message.Text}, true
	default:
		return convo.Event{}, false
	}
}

func chat(id int64) convo.Chat {
	return convo.Chat{Channel: Channel, ID: strconv.FormatInt(id, 10)}
}

// SetWebhook registers url with Telegram.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.client.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	b.logger.Info("webhook set", "url", redact(url))
	return nil
}

// DeleteWebhook removes any registered webhook so long polling can receive updates.
func (b *Bot) DeleteWebhook() error {
	if _, err := b.client.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// Poll receives updates by long polling until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.GetUpdatesChan(u)
	b.logger.Info("long polling started")
	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// redact hides the secret path segment of the webhook URL in logs.
func redact(url string) string {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			return url[:i+1] + "***"
		}
	}
	return url
}
