package util

import (
	"fmt"
	"time"
)

// FromUnixMilli converts epoch milliseconds to a UTC time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ISOTime renders t in UTC as ISO-8601 with a "+00:00" offset. Microseconds
// are included only when non-zero.
func ISOTime(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		base = fmt.Sprintf("%s.%06d", base, us)
	}
	return base + "+00:00"
}
