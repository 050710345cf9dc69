package convo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shipment-bot/internal/cache"
	"shipment-bot/internal/config"
	"shipment-bot/internal/metrics"
	"shipment-bot/internal/session"
	"shipment-bot/internal/shipment"
)

// Chat identifies a conversation on one messaging channel.
type Chat struct {
	Channel string
	ID      string
}

// Key is the per-chat state key, e.g. "telegram:12345".
func (c Chat) Key() string {
	return c.Channel + ":" + c.ID
}

// Event is one inbound chat interaction normalized across channels.
type Event struct {
	Chat     Chat
	Text     string
	Callback string
}

// Kind labels the event for metrics.
func (e Event) Kind() string {
	switch {
	case e.Callback != "":
		return "callback"
	case isCommand(e.Text):
		return "command"
	default:
		return "text"
	}
}

// Button is an inline action attached to a reply.
type Button struct {
	Text string
	Data string
}

// Reply is one outbound message.
type Reply struct {
	Text     string
	Markdown bool
	Buttons  []Button
}

// Gateway delivers replies on one channel.
type Gateway interface {
	Send(ctx context.Context, chat Chat, reply Reply) error
}

// Limiter caps how often a chat may submit bulk batches.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Options configures an Engine.
type Options struct {
	Mode        string
	IdleTimeout time.Duration
	RefPrefix   string
	Pending     session.PendingStore
	AfterFunc   session.AfterFunc
	Limiter     Limiter
	Now         func() time.Time
}

// Engine runs the shipment collection conversation for every chat.
type Engine struct {
	mode    string
	idle    time.Duration
	refs    *shipment.RefGenerator
	locks   *session.Locker
	buffers *session.Buffers
	timers  *session.Scheduler
	pending session.PendingStore
	forms   *session.Registry[*Form]
	limiter Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	gateways map[string]Gateway

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a conversation engine instance.
func New(opts Options, metrics *metrics.Metrics, logger *slog.Logger) *Engine {
	mode := opts.Mode
	if mode == "" {
		mode = config.ModeBulk
	}
	pending := opts.Pending
	if pending == nil {
		pending = session.NewMemoryPending()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		mode:     mode,
		idle:     opts.IdleTimeout,
		refs:     shipment.NewRefGenerator(opts.RefPrefix, opts.Now),
		locks:    session.NewLocker(),
		buffers:  session.NewBuffers(),
		timers:   session.NewScheduler(opts.AfterFunc),
		pending:  pending,
		forms:    session.NewRegistry[*Form](),
		limiter:  opts.Limiter,
		metrics:  metrics,
		logger:   logger.With("component", "convo", "mode", mode),
		gateways: make(map[string]Gateway),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register attaches the gateway used to reply on channel.
func (e *Engine) Register(channel string, gw Gateway) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gateways[channel] = gw
}

// Mode returns the configured bot mode.
func (e *Engine) Mode() string {
	return e.mode
}

// Close stops pending idle timers. Buffered text is dropped.
func (e *Engine) Close() {
	e.timers.Stop()
	e.cancel()
}

// Handle processes one inbound event. Events of the same chat are handled one at a time.
func (e *Engine) Handle(ctx context.Context, evt Event) {
	e.metrics.UpdatesReceived.WithLabelValues(evt.Chat.Channel, evt.Kind()).Inc()

	unlock := e.locks.Lock(evt.Chat.Key())
	defer unlock()

	evt.Text = strings.TrimSpace(evt.Text)
	var err error
	switch e.mode {
	case config.ModeGuided:
		err = e.handleGuided(ctx, evt)
	case config.ModeCollect:
		err = e.handleCollect(ctx, evt)
	default:
		err = e.handleBulk(ctx, evt)
	}
	if err != nil {
		e.metrics.Errors.WithLabelValues("convo").Inc()
		e.logger.Error("event handling failed", "error", err, "chat", evt.Chat.Key())
		_ = e.respond(ctx, evt.Chat, Reply{Text: msgInternalError})
	}
}

func (e *Engine) respond(ctx context.Context, chat Chat, reply Reply) error {
	e.mu.RLock()
	gw, ok := e.gateways[chat.Channel]
	e.mu.RUnlock()
	if !ok {
		e.metrics.OutboundMessages.WithLabelValues(chat.Channel, "no_gateway").Inc()
		return fmt.Errorf("no gateway for channel %q", chat.Channel)
	}
	if err := gw.Send(ctx, chat, reply); err != nil {
		e.metrics.OutboundMessages.WithLabelValues(chat.Channel, "error").Inc()
		e.logger.Warn("send reply failed", "error", err, "chat", chat.Key())
		return err
	}
	e.metrics.OutboundMessages.WithLabelValues(chat.Channel, "ok").Inc()
	return nil
}

// respondAll sends every part in order and stops at the first failure.
func (e *Engine) respondAll(ctx context.Context, chat Chat, parts []Reply) error {
	for _, part := range parts {
		if err := e.respond(ctx, chat, part); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) observe(start time.Time) {
	e.metrics.PipelineLatency.WithLabelValues(e.mode).Observe(time.Since(start).Seconds())
}

// RedisLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE.
type RedisLimiter struct {
	redis  *cache.Redis
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewRedisLimiter allows limit hits per key within window. A zero limit disables limiting.
func NewRedisLimiter(redis *cache.Redis, limit int64, window time.Duration, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{redis: redis, limit: limit, window: window, logger: logger.With("component", "limiter")}
}

// Allow fails open when Redis is unavailable.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}
	n, err := l.redis.Hit(ctx, cache.RateKey("bulk", key), l.window)
	if err != nil {
		l.logger.Warn("rate limit incr failed", "error", err)
		return true
	}
	return n <= l.limit
}

// parseCommand returns the lowercased command name without the slash or @bot suffix.
func parseCommand(text string) (string, bool) {
	if !isCommand(text) {
		return "", false
	}
	name := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), true
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}
