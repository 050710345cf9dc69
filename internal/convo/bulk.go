package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shipment-bot/internal/parser"
	"shipment-bot/internal/session"
	"shipment-bot/internal/shipment"
)

// Typed equivalents of the confirmation buttons for channels without inline keyboards.
var (
	confirmWords = map[string]bool{"تأكيد": true, "تاكيد": true, "confirm": true}
	cancelWords  = map[string]bool{"إلغاء": true, "الغاء": true, "cancel": true}
)

func (e *Engine) handleBulk(ctx context.Context, evt Event) error {
	word := strings.ToLower(evt.Text)
	cmd, isCmd := parseCommand(evt.Text)
	switch {
	case evt.Callback == CallbackConfirm || confirmWords[word]:
		return e.confirmBulk(ctx, evt.Chat)
	case evt.Callback == CallbackCancel || cancelWords[word] || (isCmd && cmd == "cancel"):
		return e.cancelBulk(ctx, evt.Chat)
	case evt.Callback != "":
		e.logger.Warn("unknown callback", "data", evt.Callback, "chat", evt.Chat.Key())
		return nil
	case isCmd && (cmd == "start" || cmd == "help"):
		return e.respond(ctx, evt.Chat, Reply{Text: msgBulkHelp})
	case isCmd:
		return e.respond(ctx, evt.Chat, Reply{Text: msgStartHint})
	}

	if e.limiter != nil && !e.limiter.Allow(ctx, evt.Chat.Key()) {
		e.metrics.Records.WithLabelValues(e.mode, "rate_limited").Inc()
		return e.respond(ctx, evt.Chat, Reply{Text: msgRateLimited})
	}

	start := time.Now()
	batch, err := parser.ParseBulk(evt.Text, e.refs)
	e.observe(start)
	if errors.Is(err, shipment.ErrEmptyInput) {
		return e.respond(ctx, evt.Chat, Reply{Text: msgEmptyInput})
	}
	if err != nil {
		return err
	}
	e.metrics.Records.WithLabelValues(e.mode, "valid").Add(float64(len(batch.Records)))
	e.metrics.Records.WithLabelValues(e.mode, "rejected").Add(float64(len(batch.Errors)))

	if len(batch.Records) == 0 {
		if _, err := e.pending.Discard(ctx, evt.Chat.Key()); err != nil {
			return err
		}
		return e.respond(ctx, evt.Chat, Reply{Text: joinNonEmpty(msgNoValid, formatErrors(batch.Errors))})
	}

	if err := e.pending.Put(ctx, evt.Chat.Key(), session.Pending{
		Records:   batch.Records,
		Errors:    batch.Errors,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	e.logger.Info("bulk batch pending", "chat", evt.Chat.Key(), "records", len(batch.Records), "errors", len(batch.Errors))

	return e.respond(ctx, evt.Chat, Reply{
		Text: previewText(batch),
		Buttons: []Button{
			{Text: btnConfirm, Data: CallbackConfirm},
			{Text: btnCancel, Data: CallbackCancel},
		},
	})
}

func (e *Engine) confirmBulk(ctx context.Context, chat Chat) error {
	p, err := e.pending.Take(ctx, chat.Key())
	if err != nil {
		return err
	}
	if p == nil {
		return e.respond(ctx, chat, Reply{Text: msgNoPending})
	}
	payloads := make([]shipment.Payload, len(p.Records))
	for i, rec := range p.Records {
		payloads[i] = rec.Payload()
	}
	e.metrics.Records.WithLabelValues(e.mode, "confirmed").Add(float64(len(payloads)))
	e.logger.Info("bulk batch confirmed", "chat", chat.Key(), "records", len(payloads))
	replies, err := recordReplies(fmt.Sprintf(msgConfirmed, len(payloads)), payloads)
	if err != nil {
		return err
	}
	return e.respondAll(ctx, chat, replies)
}

func (e *Engine) cancelBulk(ctx context.Context, chat Chat) error {
	ok, err := e.pending.Discard(ctx, chat.Key())
	if err != nil {
		return err
	}
	if !ok {
		return e.respond(ctx, chat, Reply{Text: msgNoPending})
	}
	return e.respond(ctx, chat, Reply{Text: msgPendingGone})
}

// previewText lists the first records and errors of a batch.
func previewText(batch parser.Batch) string {
	var b strings.Builder
	fmt.Fprintf(&b, msgPreviewHeader, len(batch.Records))
	for i, rec := range batch.Records {
		if i == previewRecords {
			b.WriteString("\n" + fmt.Sprintf(msgPreviewMore, len(batch.Records)-previewRecords))
			break
		}
		fmt.Fprintf(&b, "\n%d) %s", i+1, rec.Summary())
	}
	return joinNonEmpty(b.String(), formatErrors(batch.Errors), msgPreviewAsk)
}

func formatErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, msgPreviewErrors, len(errs))
	for i, msg := range errs {
		if i == previewErrors {
			b.WriteString("\n" + fmt.Sprintf(msgPreviewMore, len(errs)-previewErrors))
			break
		}
		b.WriteString("\n- " + msg)
	}
	return b.String()
}
