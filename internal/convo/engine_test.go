package convo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"shipment-bot/internal/config"
	"shipment-bot/internal/metrics"
	"shipment-bot/internal/session"
)

type recordingGateway struct {
	mu   sync.Mutex
	sent []Reply
}

func (g *recordingGateway) Send(_ context.Context, _ Chat, reply Reply) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, reply)
	return nil
}

func (g *recordingGateway) replies() []Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Reply(nil), g.sent...)
}

func (g *recordingGateway) last(t *testing.T) Reply {
	t.Helper()
	all := g.replies()
	if len(all) == 0 {
		t.Fatalf("expected at least one reply")
	}
	return all[len(all)-1]
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) session.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) active() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			res = append(res, t)
		}
	}
	return res
}

func (c *fakeClock) fireAll() int {
	fired := 0
	for _, t := range c.active() {
		t.stopped = true
		t.fn()
		fired++
	}
	return fired
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) bool { return false }

var testChat = Chat{Channel: "telegram", ID: "42"}

func newTestEngine(t *testing.T, opts Options) (*Engine, *recordingGateway) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(opts, metrics.New("test"), logger)
	gw := &recordingGateway{}
	e.Register(testChat.Channel, gw)
	t.Cleanup(e.Close)
	return e, gw
}

func send(e *Engine, text string) {
	e.Handle(context.Background(), Event{Chat: testChat, Text: text})
}

func press(e *Engine, data string) {
	e.Handle(context.Background(), Event{Chat: testChat, Callback: data})
}

func TestGuidedFlow(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeGuided})

	steps := []struct {
		input string
		want  string
	}{
		{"/start", msgWelcome},
		{"متجر النور", msgAskCustomer},
		{"علي حسن", msgAskPhone},
		{"12345", msgBadPhone},
		{"0770 123 4567", msgAskDistrict},
		{"الكرادة", msgAskAddress},
		{"شارع 52 قرب الجامع", msgAskAmount},
		{"خمسة", msgBadAmount},
		{"25,000", msgAskNotes},
	}
	for _, step := range steps {
		send(e, step.input)
		if got := gw.last(t).Text; got != step.want {
			t.Fatalf("after %q expected %q, got %q", step.input, step.want, got)
		}
	}

	send(e, "-")
	done := gw.last(t)
	if !done.Markdown || !strings.HasPrefix(done.Text, msgGuidedDone) {
		t.Fatalf("expected completion message, got %q", done.Text)
	}
	for _, want := range []string{
		"```json",
		`"shopName": "متجر النور"`,
		`"phone": "07701234567"`,
		`"district": "الكرادة"`,
		`"amountIQD": 25000`,
		`"notes": ""`,
	} {
		if !strings.Contains(done.Text, want) {
			t.Fatalf("expected %q in %q", want, done.Text)
		}
	}

	send(e, "نص بعد الانتهاء")
	if got := gw.last(t).Text; got != msgStartHint {
		t.Fatalf("expected start hint after completion, got %q", got)
	}
}

func TestGuidedCommands(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeGuided})

	send(e, "/start")
	send(e, "متجر")
	send(e, "/new")
	if got := gw.last(t).Text; got != msgRestart {
		t.Fatalf("expected restart prompt, got %q", got)
	}
	send(e, "متجر ثاني")
	if got := gw.last(t).Text; got != msgAskCustomer {
		t.Fatalf("expected form to restart at shop step, got %q", got)
	}

	send(e, "/cancel")
	if got := gw.last(t).Text; got != msgCancelled {
		t.Fatalf("expected cancel message, got %q", got)
	}
	send(e, "علي")
	if got := gw.last(t).Text; got != msgStartHint {
		t.Fatalf("expected start hint without a form, got %q", got)
	}

	send(e, "/unknown@ShipBot")
	if got := gw.last(t).Text; got != msgStartHint {
		t.Fatalf("expected start hint for unknown command, got %q", got)
	}
}

func TestCollectIdleFinalizeCombinesMessages(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	e, gw := newTestEngine(t, Options{Mode: config.ModeCollect, IdleTimeout: 5 * time.Second, AfterFunc: clock.AfterFunc})

	send(e, "علي 07701111111 بغداد")
	send(e, "حسن 07702222222 البصرة")

	active := clock.active()
	if len(active) != 1 {
		t.Fatalf("expected one outstanding countdown, got %d", len(active))
	}
	if active[0].d != 5*time.Second {
		t.Fatalf("expected 5s countdown, got %v", active[0].d)
	}

	before := len(gw.replies())
	if fired := clock.fireAll(); fired != 1 {
		t.Fatalf("expected exactly one auto-finalize, got %d", fired)
	}
	after := gw.replies()[before:]
	if len(after) != 1 {
		t.Fatalf("expected one finalize reply, got %d", len(after))
	}
	text := after[0].Text
	if !strings.HasPrefix(text, fmt.Sprintf(msgCollectResult, 2)) {
		t.Fatalf("expected both messages combined, got %q", text)
	}
	if !strings.Contains(text, `"phone": "07701111111"`) || !strings.Contains(text, `"phone": "07702222222"`) {
		t.Fatalf("expected both phones in %q", text)
	}
	if e.buffers.Len(testChat.Key()) != 0 {
		t.Fatalf("expected buffer to be cleared")
	}
}

func TestCollectManualFinalizeBeatsTimer(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	e, gw := newTestEngine(t, Options{Mode: config.ModeCollect, IdleTimeout: 5 * time.Second, AfterFunc: clock.AfterFunc})

	send(e, "علي 07701111111")
	send(e, "/done")
	if got := gw.last(t).Text; !strings.HasPrefix(got, fmt.Sprintf(msgCollectResult, 1)) {
		t.Fatalf("expected manual finalize, got %q", got)
	}

	count := len(gw.replies())
	if fired := clock.fireAll(); fired != 0 {
		t.Fatalf("expected countdown to be cancelled, %d fired", fired)
	}
	// A callback that already started before the cancel must not act either.
	e.autoFinalize(testChat, 1)
	if got := len(gw.replies()); got != count {
		t.Fatalf("expected no duplicate finalize, got %d extra replies", got-count)
	}
}

func TestCollectStaleGenerationIgnored(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeCollect})

	send(e, "علي 07701111111")
	send(e, "حسن 07702222222")
	count := len(gw.replies())

	e.autoFinalize(testChat, 1)
	if got := len(gw.replies()); got != count {
		t.Fatalf("expected stale timer to do nothing, got %d extra replies", got-count)
	}
	e.autoFinalize(testChat, 2)
	if got := gw.last(t).Text; !strings.HasPrefix(got, fmt.Sprintf(msgCollectResult, 2)) {
		t.Fatalf("expected current generation to finalize, got %q", got)
	}
}

func TestCollectCancelAndEmpty(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeCollect})

	send(e, "/done")
	if got := gw.last(t).Text; got != msgNothingToDo {
		t.Fatalf("expected empty notice, got %q", got)
	}

	send(e, "نص")
	send(e, "الغاء")
	if got := gw.last(t).Text; got != msgBufferCleared {
		t.Fatalf("expected cleared notice, got %q", got)
	}
	send(e, "تم")
	if got := gw.last(t).Text; got != msgNothingToDo {
		t.Fatalf("expected empty notice after cancel, got %q", got)
	}
}

const bulkBatch = "المتجر: متجر النور\nالمحافظة: بغداد\n---\n" +
	"اسم: علي\nهاتف: 07701111111\nمبلغ: 25000\nالمنطقة: الكرادة\nعنوان: شارع 1\n---\n" +
	"اسم: حسن\nهاتف: 07702222222\nمبلغ: غالي\nالمنطقة: المنصور\nعنوان: شارع 2"

func TestBulkConfirmWithoutPending(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk})

	press(e, CallbackConfirm)
	reply := gw.last(t)
	if reply.Text != msgNoPending {
		t.Fatalf("expected no pending notice, got %q", reply.Text)
	}
	if strings.Contains(reply.Text, "```json") {
		t.Fatalf("expected no JSON without a pending set")
	}
}

func TestBulkPreviewAndConfirm(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk, RefPrefix: "TST"})

	send(e, bulkBatch)
	preview := gw.last(t)
	if len(preview.Buttons) != 2 || preview.Buttons[0].Data != CallbackConfirm || preview.Buttons[1].Data != CallbackCancel {
		t.Fatalf("expected confirm/cancel buttons, got %+v", preview.Buttons)
	}
	for _, want := range []string{fmt.Sprintf(msgPreviewHeader, 1), "1) علي | 07701111111", fmt.Sprintf(msgPreviewErrors, 1), "#3:"} {
		if !strings.Contains(preview.Text, want) {
			t.Fatalf("expected %q in preview %q", want, preview.Text)
		}
	}

	press(e, CallbackConfirm)
	confirmed := gw.last(t)
	if !strings.HasPrefix(confirmed.Text, fmt.Sprintf(msgConfirmed, 1)) {
		t.Fatalf("expected confirmation, got %q", confirmed.Text)
	}
	for _, want := range []string{`"shopName": "متجر النور"`, `"stateName": "بغداد"`, `"clientRef": "TST-`} {
		if !strings.Contains(confirmed.Text, want) {
			t.Fatalf("expected %q in %q", want, confirmed.Text)
		}
	}

	send(e, "تأكيد")
	if got := gw.last(t).Text; got != msgNoPending {
		t.Fatalf("expected pending set to be cleared, got %q", got)
	}
}

func TestBulkLastBatchWins(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk})

	send(e, bulkBatch)
	send(e, "اسم: زيد\nهاتف: 07703333333\nمبلغ: 7 الف\nالمحافظة: نينوى\nالمنطقة: الموصل\nعنوان: شارع 3\n---\n"+
		"اسم: عمر\nهاتف: 07704444444\nمبلغ: 8000\nالمنطقة: الموصل\nعنوان: شارع 4")
	send(e, "confirm")

	confirmed := gw.last(t).Text
	if !strings.HasPrefix(confirmed, fmt.Sprintf(msgConfirmed, 2)) {
		t.Fatalf("expected second batch to be confirmed, got %q", confirmed)
	}
	if strings.Contains(confirmed, "علي") || !strings.Contains(confirmed, `"amountIQD": 7000`) {
		t.Fatalf("expected only the second batch, got %q", confirmed)
	}
}

func TestBulkCancel(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk})

	send(e, bulkBatch)
	press(e, CallbackCancel)
	if got := gw.last(t).Text; got != msgPendingGone {
		t.Fatalf("expected cancel notice, got %q", got)
	}
	press(e, CallbackConfirm)
	if got := gw.last(t).Text; got != msgNoPending {
		t.Fatalf("expected nothing pending after cancel, got %q", got)
	}
}

func TestBulkNoValidRecords(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk})

	send(e, "اسم: علي\nهاتف: 0770")
	reply := gw.last(t)
	if !strings.HasPrefix(reply.Text, msgNoValid) || len(reply.Buttons) != 0 {
		t.Fatalf("expected rejection without buttons, got %+v", reply)
	}
	if !strings.Contains(reply.Text, "phone") {
		t.Fatalf("expected invalid phone to be reported, got %q", reply.Text)
	}
}

func TestBulkRateLimited(t *testing.T) {
	t.Parallel()

	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk, Limiter: denyLimiter{}})

	send(e, bulkBatch)
	if got := gw.last(t).Text; got != msgRateLimited {
		t.Fatalf("expected rate limit notice, got %q", got)
	}
}

func TestBulkPreviewTruncates(t *testing.T) {
	t.Parallel()

	var blocks []string
	for i := 0; i < 20; i++ {
		blocks = append(blocks, fmt.Sprintf("اسم: زبون %d\nهاتف: 077%08d\nمبلغ: 1000\nالمحافظة: بغداد\nالمنطقة: الكرادة\nعنوان: شارع", i, i))
	}
	e, gw := newTestEngine(t, Options{Mode: config.ModeBulk})
	send(e, strings.Join(blocks, "\n---\n"))

	preview := gw.last(t).Text
	if !strings.Contains(preview, "15) ") || strings.Contains(preview, "16) ") {
		t.Fatalf("expected 15 summaries, got %q", preview)
	}
	if !strings.Contains(preview, fmt.Sprintf(msgPreviewMore, 5)) {
		t.Fatalf("expected remainder note, got %q", preview)
	}
}
