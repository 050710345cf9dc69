package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	// Pure-Go SQLite driver registered as "sqlite" for the device store.
	_ "modernc.org/sqlite"

	"shipment-bot/internal/convo"
	"shipment-bot/internal/metrics"
	"shipment-bot/internal/session"
)

// Config holds the WhatsApp session settings.
type Config struct {
	StorePath string
	LogLevel  string
}

// EventHandler consumes normalized chat events.
type EventHandler interface {
	Handle(ctx context.Context, evt convo.Event)
}

// Client owns the whatsmeow connection and forwards inbound text to the engine.
type Client struct {
	wa      *whatsmeow.Client
	handler EventHandler
	metrics *metrics.Metrics
	logger  *slog.Logger
	ctx     context.Context
	queue   *session.Queue
}

// Open loads (or creates) the device store and builds the whatsmeow client.
func Open(ctx context.Context, cfg Config, handler EventHandler, metrics *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	if dir := filepath.Dir(cfg.StorePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create whatsapp store dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.StorePath)
	container, err := sqlstore.New(ctx, "sqlite", dsn, waLog.Stdout("whatsapp-store", cfg.LogLevel, false))
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}
	c := &Client{
		wa:      whatsmeow.NewClient(device, waLog.Stdout("whatsapp", cfg.LogLevel, false)),
		handler: handler,
		metrics: metrics,
		logger:  logger.With("component", "whatsapp"),
		ctx:     ctx,
		queue:   session.NewQueue(),
	}
	c.wa.AddEventHandler(c.onEvent)
	return c, nil
}

// Gateway returns a convo gateway sending through this connection.
func (c *Client) Gateway() *Gateway {
	return NewGateway(c.wa, c.logger)
}

// Connect connects to WhatsApp. A new device logs pairing QR codes until it is linked.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID == nil {
		qr, err := c.wa.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get qr channel: %w", err)
		}
		go func() {
			for item := range qr {
				switch item.Event {
				case "code":
					c.logger.Info("scan whatsapp pairing code", "code", item.Code)
				default:
					c.logger.Info("whatsapp pairing event", "event", item.Event)
				}
			}
		}()
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("connect whatsapp: %w", err)
	}
	return nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

func (c *Client) onEvent(raw any) {
	switch evt := raw.(type) {
	case *events.Message:
		e, ok := ToEvent(evt)
		if !ok {
			c.logger.Debug("ignoring whatsapp message", "type", detectMessageType(evt), "chat", evt.Info.Chat.String())
			return
		}
		// whatsmeow delivers events from its receive loop; keep it unblocked
		// while each chat still sees its messages in arrival order.
		c.queue.Submit(e.Chat.Key(), func() { c.handler.Handle(c.ctx, e) })
	case *events.Connected:
		c.logger.Info("whatsapp connected")
	case *events.LoggedOut:
		c.metrics.Errors.WithLabelValues("whatsapp_logged_out").Inc()
		c.logger.Warn("whatsapp session logged out", "reason", evt.Reason.String())
	}
}

// ToEvent converts an inbound text message. Own messages, status broadcasts and
// non-text messages are ignored.
func ToEvent(evt *events.Message) (convo.Event, bool) {
	if evt == nil || evt.Message == nil || evt.Info.IsFromMe || evt.Info.Chat.Server == types.BroadcastServer {
		return convo.Event{}, false
	}
	text := extractText(evt)
	if text == "" {
		return convo.Event{}, false
	}
	return convo.Event{
		Chat: convo.Chat{Channel: Channel, ID: evt.Info.Chat.ToNonAD().String()},
		Text: text,
	}, true
}

func detectMessageType(evt *events.Message) string {
	msg := evt.Message
	switch {
	case msg.GetConversation() != "":
		return "text"
	case msg.ExtendedTextMessage != nil:
		return "extended_text"
	case msg.ImageMessage != nil:
		return "image"
	case msg.DocumentMessage != nil:
		return "document"
	default:
		return "unknown"
	}
}

func extractText(evt *events.Message) string {
	msg := evt.Message
	switch {
	case msg.GetConversation() != "":
		return strings.TrimSpace(msg.GetConversation())
	case msg.ExtendedTextMessage != nil:
		return strings.TrimSpace(msg.GetExtendedTextMessage().GetText())
	default:
		return ""
	}
}
