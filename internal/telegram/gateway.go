package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shipment-bot/internal/convo"
)

// Channel is the convo channel name used for Telegram chats.
const Channel = "telegram"

// maxMessageLen is Telegram's hard limit for one text message.
const maxMessageLen = 4096

// Client is the part of *tgbotapi.BotAPI the bot uses.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Gateway sends convo replies as Telegram messages.
type Gateway struct {
	client Client
	logger *slog.Logger
}

// NewGateway wraps a Telegram client.
func NewGateway(client Client, logger *slog.Logger) *Gateway {
	return &Gateway{client: client, logger: logger.With("component", "telegram_gateway")}
}

// Send delivers reply, splitting text above the Telegram limit. Buttons go on the last part.
func (g *Gateway) Send(_ context.Context, chat convo.Chat, reply convo.Reply) error {
	chatID, err := strconv.ParseInt(chat.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chat.ID, err)
	}
	parts := convo.SplitText(reply.Text, maxMessageLen)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if reply.Markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		if i == len(parts)-1 && len(reply.Buttons) > 0 {
			msg.ReplyMarkup = inlineKeyboard(reply.Buttons)
		}
		if _, err := g.client.Send(msg); err != nil {
			if !reply.Markdown {
				return fmt.Errorf("send message: %w", err)
			}
			// User text inside the reply can break Markdown entities; resend as plain text.
			g.logger.Warn("markdown send failed, retrying as plain text", "error", err, "chat_id", chatID)
			msg.ParseMode = ""
			if _, err := g.client.Send(msg); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

func inlineKeyboard(buttons []convo.Button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
