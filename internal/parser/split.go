package parser

import (
	"strings"

	"shipment-bot/internal/shipment"
)

// Delimiter separates records in a bulk message.
const Delimiter = "---"

// SplitByPhone cuts text into one chunk per phone occurrence. Each chunk runs from a
// phone's start to the next phone's start; text before the first phone is kept at the
// head of the first chunk.
func SplitByPhone(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	locs := shipment.PhonePattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	chunks := make([]string, 0, len(locs))
	for i, loc := range locs {
		start := loc[0]
		if i == 0 {
			start = 0
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chunks = append(chunks, strings.TrimSpace(text[start:end]))
	}
	return chunks
}

// SplitByDelimiter splits text on Delimiter and drops blank segments.
func SplitByDelimiter(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, Delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}
