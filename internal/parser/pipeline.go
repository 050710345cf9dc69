package parser

import (
	"errors"
	"fmt"
	"strings"

	"shipment-bot/internal/shipment"
)

// Batch is the outcome of a bulk parse: valid records plus one error line per rejected block.
type Batch struct {
	Records []shipment.Record
	Errors  []string
}

// ParseFreeText splits text on phone anchors and extracts one best-effort record per chunk.
func ParseFreeText(text string, refs *shipment.RefGenerator) ([]shipment.Record, error) {
	chunks := SplitByPhone(text)
	if len(chunks) == 0 {
		return nil, shipment.ErrEmptyInput
	}
	records := make([]shipment.Record, 0, len(chunks))
	for _, chunk := range chunks {
		rec := ExtractFreeText(chunk)
		rec.ClientRef = refs.Next()
		records = append(records, rec)
	}
	return records, nil
}

// ParseBulk splits text on the delimiter, merges the first block's shared fields into
// every block and validates each one. Rejected blocks are reported by their 1-based index.
func ParseBulk(text string, refs *shipment.RefGenerator) (Batch, error) {
	chunks := SplitByDelimiter(text)
	if len(chunks) == 0 {
		return Batch{}, shipment.ErrEmptyInput
	}

	var batch Batch
	global := Extract(chunks[0])
	for i, chunk := range chunks {
		draft := global
		if i > 0 {
			draft = Extract(chunk).WithDefaults(global)
		} else if global.HeaderOnly() && len(chunks) > 1 {
			continue
		}

		if strings.TrimSpace(draft.Amount) != "" {
			if _, err := shipment.NormalizeAmount(draft.Amount); err != nil {
				batch.Errors = append(batch.Errors, fmt.Sprintf("#%d: مبلغ غير صالح %q", i+1, draft.Amount))
				continue
			}
		}
		if missing := shipment.Validate(draft); len(missing) > 0 {
			batch.Errors = append(batch.Errors, fmt.Sprintf("#%d: حقول ناقصة أو غير صحيحة: %s", i+1, strings.Join(missing, ", ")))
			continue
		}
		rec, err := draft.Build(refs.Next())
		if err != nil {
			if errors.Is(err, shipment.ErrInvalidAmount) {
				batch.Errors = append(batch.Errors, fmt.Sprintf("#%d: مبلغ غير صالح %q", i+1, draft.Amount))
				continue
			}
			return Batch{}, fmt.Errorf("build record %d: %w", i+1, err)
		}
		batch.Records = append(batch.Records, rec)
	}
	return batch, nil
}
