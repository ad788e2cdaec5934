package interval

import (
	"fmt"
	"time"
)

// Interval represents a fixed bucketing interval for bars and rolling windows.
type Interval struct {
	Name     string
	Duration time.Duration
}

// Supported intervals configuration
var (
	Interval10ms  = Interval{Name: "10ms", Duration: 10 * time.Millisecond}
	Interval100ms = Interval{Name: "100ms", Duration: 100 * time.Millisecond}
	Interval1s    = Interval{Name: "1s", Duration: time.Second}
	Interval5s    = Interval{Name: "5s", Duration: 5 * time.Second}
	Interval1m    = Interval{Name: "1m", Duration: time.Minute}
	Interval5m    = Interval{Name: "5m", Duration: 5 * time.Minute}
	Interval15m   = Interval{Name: "15m", Duration: 15 * time.Minute}
	Interval1h    = Interval{Name: "1h", Duration: time.Hour}
)

// AllIntervals lists the named intervals.
var AllIntervals = []Interval{
	Interval10ms, Interval100ms, Interval1s, Interval5s,
	Interval1m, Interval5m, Interval15m, Interval1h,
}

// Interval registry for lookup
var intervalRegistry = make(map[string]Interval)

func init() {
	for _, interval := range AllIntervals {
		intervalRegistry[interval.Name] = interval
	}
}

// GetInterval returns an interval by name. Names outside the registry are
// accepted when they parse as a whole number of milliseconds, e.g. "250ms".
func GetInterval(name string) (Interval, error) {
	if interval, exists := intervalRegistry[name]; exists {
		return interval, nil
	}

	d, err := time.ParseDuration(name)
	if err != nil {
		return Interval{}, fmt.Errorf("unsupported interval: %s", name)
	}

	return FromDuration(d)
}

// FromDuration builds an interval from a positive whole-millisecond duration.
func FromDuration(d time.Duration) (Interval, error) {
	if d < time.Millisecond || d%time.Millisecond != 0 {
		return Interval{}, fmt.Errorf("interval must be a positive whole number of milliseconds: %s", d)
	}

	for _, interval := range AllIntervals {
		if interval.Duration == d {
			return interval, nil
		}
	}

	return Interval{Name: d.String(), Duration: d}, nil
}

// IsValidInterval checks if interval name is supported
func IsValidInterval(name string) bool {
	_, err := GetInterval(name)
	return err == nil
}

// GetAllIntervalNames returns all named intervals.
func GetAllIntervalNames() []string {
	names := make([]string, 0, len(AllIntervals))
	for _, interval := range AllIntervals {
		names = append(names, interval.Name)
	}
	return names
}

// Millis returns the interval length in milliseconds.
func (i Interval) Millis() int64 {
	return i.Duration.Milliseconds()
}

// WindowBuckets converts a wall-clock window into the number of preceding
// buckets, rounding down. A window shorter than one bucket yields zero.
func (i Interval) WindowBuckets(window time.Duration) int {
	if window <= 0 || i.Duration <= 0 {
		return 0
	}
	return int(window / i.Duration)
}
