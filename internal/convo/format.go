package convo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLen keeps replies below Telegram's 4096 character limit.
const MaxMessageLen = 4000

// JSONBlock renders v as an indented ```json fenced block without HTML escaping.
func JSONBlock(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return fenceOpen + strings.TrimRight(buf.String(), "\n") + fenceClose, nil
}

const (
	fenceOpen  = "```json\n"
	fenceClose = "\n```"
)

// recordReplies renders header plus items as JSON arrays, starting a new message
// whenever the next item would push the current one past MaxMessageLen.
func recordReplies[T any](header string, items []T) ([]Reply, error) {
	var (
		replies []Reply
		group   []T
		block   string
	)
	prefix := header
	for _, item := range items {
		candidate := append(group[:len(group):len(group)], item)
		next, err := JSONBlock(candidate)
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(joinNonEmpty(prefix, next)) > MaxMessageLen && len(group) > 0 {
			replies = append(replies, fencedReplies(prefix, block)...)
			prefix = ""
			candidate = []T{item}
			if next, err = JSONBlock(candidate); err != nil {
				return nil, err
			}
		}
		group = candidate
		block = next
	}
	if len(group) > 0 {
		replies = append(replies, fencedReplies(prefix, block)...)
	}
	return replies, nil
}

// fencedReplies emits prefix and block as one message, or, when a single record
// is too large for that, splits the JSON by lines and fences every part again.
func fencedReplies(prefix, block string) []Reply {
	body := joinNonEmpty(prefix, block)
	if utf8.RuneCountInString(body) <= MaxMessageLen {
		return []Reply{{Text: body, Markdown: true}}
	}
	var replies []Reply
	if prefix != "" {
		replies = append(replies, Reply{Text: prefix})
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(block, fenceOpen), fenceClose)
	limit := MaxMessageLen - utf8.RuneCountInString(fenceOpen+fenceClose)
	for _, part := range SplitText(inner, limit) {
		replies = append(replies, Reply{Text: fenceOpen + part + fenceClose, Markdown: true})
	}
	return replies
}

// SplitText breaks text into pieces of at most limit characters, preferring line breaks.
func SplitText(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return parts
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
