package helpers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doeshing/benchhist/internal/domain"
)

// ParseSince turns a --since value into an epoch-millisecond lower bound.
// It accepts epoch milliseconds, an RFC 3339 time, or a duration such as
// "72h" meaning that long before now. Empty means no bound.
func ParseSince(raw string, now time.Time) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &ms, nil
	}
	if t, err := time.Parse(domain.TimestampFormat, raw); err == nil {
		ms := t.UnixMilli()
		return &ms, nil
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		ms := now.Add(-d).UnixMilli()
		return &ms, nil
	}
	return nil, fmt.Errorf("invalid --since %q: want epoch ms, RFC 3339 time or duration", raw)
}
