package session

import (
	"strings"
	"sync"
)

type buffer struct {
	lines []string
	gen   uint64
}

// Buffers accumulates inbound text lines per chat.
// Every Append bumps the chat's generation so delayed work can detect newer input.
type Buffers struct {
	mu sync.Mutex
	m  map[string]*buffer
}

// NewBuffers creates an empty buffer store.
func NewBuffers() *Buffers {
	return &Buffers{m: make(map[string]*buffer)}
}

// Append adds a line and returns the new generation for the chat.
func (b *Buffers) Append(key, line string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.m[key]
	if !ok {
		buf = &buffer{}
		b.m[key] = buf
	}
	buf.lines = append(buf.lines, line)
	buf.gen++
	return buf.gen
}

// Len returns the number of buffered lines.
func (b *Buffers) Len(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.m[key]; ok {
		return len(buf.lines)
	}
	return 0
}

// Take removes and returns the chat's buffered text.
func (b *Buffers) Take(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeLocked(key)
}

// TakeIf removes the buffer only if no line was appended after generation gen.
func (b *Buffers) TakeIf(key string, gen uint64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.m[key]
	if !ok || buf.gen != gen {
		return "", false
	}
	return b.takeLocked(key)
}

// Discard drops the chat's buffer.
func (b *Buffers) Discard(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, key)
}

func (b *Buffers) takeLocked(key string) (string, bool) {
	buf, ok := b.m[key]
	if !ok || len(buf.lines) == 0 {
		delete(b.m, key)
		return "", false
	}
	delete(b.m, key)
	return strings.Join(buf.lines, "\n"), true
}
