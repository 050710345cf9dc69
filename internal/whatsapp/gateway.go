package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"shipment-bot/internal/convo"
)

// Channel is the convo channel name used for WhatsApp chats.
const Channel = "whatsapp"

// Sender is the part of *whatsmeow.Client used to deliver messages.
type Sender interface {
	SendMessage(ctx context.Context, to types.JID, message *waProto.Message, extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
}

// keywords are what a WhatsApp user types instead of pressing an inline button.
var keywords = map[string]string{
	convo.CallbackConfirm: "تأكيد",
	convo.CallbackCancel:  "إلغاء",
}

// Gateway sends convo replies as plain WhatsApp text messages.
type Gateway struct {
	sender Sender
	logger *slog.Logger
}

// NewGateway wraps a whatsmeow sender.
func NewGateway(sender Sender, logger *slog.Logger) *Gateway {
	return &Gateway{sender: sender, logger: logger.With("component", "whatsapp_gateway")}
}

// Send delivers reply to the chat JID; buttons become typed-keyword hints.
func (g *Gateway) Send(ctx context.Context, chat convo.Chat, reply convo.Reply) error {
	to, err := types.ParseJID(chat.ID)
	if err != nil {
		return fmt.Errorf("invalid whatsapp jid %q: %w", chat.ID, err)
	}
	msg := &waProto.Message{Conversation: proto.String(Render(reply))}
	if _, err := g.sender.SendMessage(ctx, to, msg); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

// Render flattens a reply into WhatsApp text.
func Render(reply convo.Reply) string {
	if len(reply.Buttons) == 0 {
		return reply.Text
	}
	var b strings.Builder
	b.WriteString(reply.Text)
	b.WriteString("\n")
	for _, btn := range reply.Buttons {
		word, ok := keywords[btn.Data]
		if !ok {
			word = btn.Data
		}
		fmt.Fprintf(&b, "\n%s: اكتب «%s»", btn.Text, word)
	}
	return b.String()
}
