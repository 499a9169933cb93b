// Package format provides the unit-scaling and time formatting rules used
// by the indicators and the terminal host.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTimeSince formats the age of t for the host status line.
// Returns strings like "just now", "12s ago", "4m ago" or "never".
func FormatTimeSince(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	d := time.Since(t)
	if d < 0 {
		d = -d
	}

	switch {
	case d < 2*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// FormatInterval renders a sampling interval. Sub-second intervals print in
// milliseconds, everything else in seconds with at most one decimal:
// "500ms", "1s", "2.5s".
func FormatInterval(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	s := strconv.FormatFloat(d.Seconds(), 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "s"
}

// FormatMicros renders a latency in microseconds as a short duration.
func FormatMicros(us int64) string {
	return (time.Duration(us) * time.Microsecond).String()
}
