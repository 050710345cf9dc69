package convo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipment-bot/internal/parser"
	"shipment-bot/internal/shipment"
)

func (e *Engine) handleCollect(ctx context.Context, evt Event) error {
	key := evt.Chat.Key()
	cmd, isCmd := parseCommand(evt.Text)
	switch {
	case isCmd && (cmd == "start" || cmd == "help"):
		help := msgCollectHelp
		if e.idle > 0 {
			help += fmt.Sprintf(msgCollectIdle, e.idle)
		}
		return e.respond(ctx, evt.Chat, Reply{Text: help})
	case (isCmd && cmd == "done") || evt.Text == "تم":
		e.timers.Cancel(key)
		text, ok := e.buffers.Take(key)
		if !ok {
			return e.respond(ctx, evt.Chat, Reply{Text: msgNothingToDo})
		}
		return e.finalizeCollect(ctx, evt.Chat, text)
	case (isCmd && cmd == "cancel") || evt.Text == "الغاء" || evt.Text == "إلغاء":
		e.timers.Cancel(key)
		e.buffers.Discard(key)
		return e.respond(ctx, evt.Chat, Reply{Text: msgBufferCleared})
	case isCmd:
		return e.respond(ctx, evt.Chat, Reply{Text: msgStartHint})
	case evt.Text == "":
		return nil
	}

	gen := e.buffers.Append(key, evt.Text)
	if e.idle > 0 {
		chat := evt.Chat
		e.timers.Schedule(key, e.idle, func() { e.autoFinalize(chat, gen) })
	}
	return e.respond(ctx, evt.Chat, Reply{Text: fmt.Sprintf(msgCollected, e.buffers.Len(key))})
}

// autoFinalize runs on the timer goroutine. It only acts if nothing was appended
// after generation gen and the buffer was not finalized in the meantime.
func (e *Engine) autoFinalize(chat Chat, gen uint64) {
	unlock := e.locks.Lock(chat.Key())
	defer unlock()

	text, ok := e.buffers.TakeIf(chat.Key(), gen)
	if !ok {
		return
	}
	e.metrics.AutoFinalize.Inc()
	e.logger.Info("idle timeout finalize", "chat", chat.Key())
	if err := e.finalizeCollect(e.ctx, chat, text); err != nil {
		e.metrics.Errors.WithLabelValues("convo").Inc()
		e.logger.Error("auto finalize failed", "error", err, "chat", chat.Key())
	}
}

func (e *Engine) finalizeCollect(ctx context.Context, chat Chat, text string) error {
	start := time.Now()
	records, err := parser.ParseFreeText(text, e.refs)
	e.observe(start)
	if errors.Is(err, shipment.ErrEmptyInput) {
		return e.respond(ctx, chat, Reply{Text: msgNothingToDo})
	}
	if err != nil {
		return err
	}
	e.metrics.Records.WithLabelValues(e.mode, "valid").Add(float64(len(records)))
	replies, err := recordReplies(fmt.Sprintf(msgCollectResult, len(records)), records)
	if err != nil {
		return err
	}
	return e.respondAll(ctx, chat, replies)
}
