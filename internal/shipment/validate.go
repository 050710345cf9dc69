package shipment

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Validate returns the names of required fields that are empty or invalid.
// An empty result means the draft is complete.
func Validate(d Draft) []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"customerName", d.CustomerName},
		{"phone", d.Phone},
		{"amountIQD", d.Amount},
		{"stateName", d.StateName},
		{"districtName", d.DistrictName},
		{"address", d.Address},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if strings.TrimSpace(d.Phone) != "" && !IsValidPhone(NormalizePhone(d.Phone)) {
		missing = append(missing, "phone")
	}
	return missing
}

// RefGenerator produces client references derived from the current millisecond.
type RefGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewRefGenerator creates a generator; now defaults to time.Now.
func NewRefGenerator(prefix string, now func() time.Time) *RefGenerator {
	if now == nil {
		now = time.Now
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "SHP"
	}
	return &RefGenerator{prefix: prefix, now: now}
}

// Next returns a new reference. Uniqueness is best effort only.
func (g *RefGenerator) Next() string {
	ms := g.now().UnixMilli()
	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()
	return fmt.Sprintf("%s-%d-%s", g.prefix, ms, strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
