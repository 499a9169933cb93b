package format

import (
	"fmt"
	"math"
)

// Scale describes a two-step unit ladder. Values below Threshold print with
// no decimals in Unit; values at or above it are divided by Factor and print
// with one decimal in NextUnit.
type Scale struct {
	Threshold float64
	Factor    float64
	Unit      string
	NextUnit  string
}

var (
	// NetworkRate scales kilobytes per second into megabytes per second.
	NetworkRate = Scale{Threshold: 1000, Factor: 1024, Unit: "Ko/s", NextUnit: "Mo/s"}

	// DiskSpace scales gigabytes into terabytes.
	DiskSpace = Scale{Threshold: 1000, Factor: 1000, Unit: "GB", NextUnit: "TB"}
)

// Format renders v in the scale's units. The threshold is inclusive, so
// exactly Threshold already switches to NextUnit.
func (s Scale) Format(v float64) string {
	if v >= s.Threshold && s.Factor > 0 {
		return fmt.Sprintf("%.1f%s", v/s.Factor, s.NextUnit)
	}
	return fmt.Sprintf("%.0f%s", v, s.Unit)
}

// WithUnits returns a copy of s with its unit labels replaced. Empty labels
// keep the existing value.
func (s Scale) WithUnits(unit, next string) Scale {
	if unit != "" {
		s.Unit = unit
	}
	if next != "" {
		s.NextUnit = next
	}
	return s
}

// Percent rounds v to the nearest integer and appends a percent sign.
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v)))
}

// Megabytes rounds v to whole megabytes with an "M" suffix.
func Megabytes(v float64) string {
	return fmt.Sprintf("%dM", int(math.Round(v)))
}

// KilobytesPerSecond converts a byte rate into the base unit of NetworkRate.
func KilobytesPerSecond(bytesPerSec float64) float64 {
	return bytesPerSec / 1024
}
