// Package indicator implements the sampling and rendering engine behind the
// four status indicators (processor, memory, network, disk). Each indicator
// is driven by its own Worker, which samples a metric on a fixed cadence,
// keeps a bounded History of past samples and repaints an icon-sized
// surface. A Supervisor owns one Worker per kind and forwards enable and
// disable toggles from the host.
package indicator

import (
	"fmt"
	"math"
)

// Kind identifies an indicator.
type Kind int

const (
	KindProcessor Kind = iota
	KindMemory
	KindNetwork
	KindDisk
)

// Kinds lists every indicator kind in display order.
var Kinds = []Kind{KindProcessor, KindMemory, KindNetwork, KindDisk}

// String returns the indicator name used in config sections, logs and
// surface identifiers.
func (k Kind) String() string {
	switch k {
	case KindProcessor:
		return "processor"
	case KindMemory:
		return "memory"
	case KindNetwork:
		return "network"
	case KindDisk:
		return "disk"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseKind maps a name produced by Kind.String back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
}

// Sample is one metric snapshot. It is implemented only by the four sample
// types in this package and is always passed by value.
type Sample interface {
	Kind() Kind
	Validate() error
}

// ProcessorSample holds user and system CPU usage in percent (0-100).
type ProcessorSample struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
}

// Kind implements Sample.
func (ProcessorSample) Kind() Kind { return KindProcessor }

// Validate implements Sample.
func (s ProcessorSample) Validate() error {
	return firstInvalid(field{"user", s.User}, field{"system", s.System})
}

// Total returns user+system, capped at 100.
func (s ProcessorSample) Total() float64 {
	return math.Min(s.User+s.System, 100)
}

// MemorySample holds free and used memory in megabytes.
type MemorySample struct {
	Free float64 `json:"free_mb"`
	Used float64 `json:"used_mb"`
}

// Kind implements Sample.
func (MemorySample) Kind() Kind { return KindMemory }

// Validate implements Sample.
func (s MemorySample) Validate() error {
	return firstInvalid(field{"free", s.Free}, field{"used", s.Used})
}

// Total is the physical memory at sample time.
func (s MemorySample) Total() float64 { return s.Free + s.Used }

// UsedPercent returns round(100*used/total), or 0 when total is 0.
func (s MemorySample) UsedPercent() float64 {
	total := s.Total()
	if total <= 0 {
		return 0
	}
	return math.Round(100 * s.Used / total)
}

// NetworkSample holds interface throughput in bytes per second.
type NetworkSample struct {
	Incoming float64 `json:"incoming_bps"`
	Outgoing float64 `json:"outgoing_bps"`
}

// Kind implements Sample.
func (NetworkSample) Kind() Kind { return KindNetwork }

// Validate implements Sample.
func (s NetworkSample) Validate() error {
	return firstInvalid(field{"incoming", s.Incoming}, field{"outgoing", s.Outgoing})
}

// DiskSample holds free and total space of one volume in gigabytes.
type DiskSample struct {
	Free  float64 `json:"free_gb"`
	Total float64 `json:"total_gb"`
}

// Kind implements Sample.
func (DiskSample) Kind() Kind { return KindDisk }

// Validate implements Sample.
func (s DiskSample) Validate() error {
	if err := firstInvalid(field{"free", s.Free}, field{"total", s.Total}); err != nil {
		return err
	}
	if s.Free > s.Total {
		return fmt.Errorf("%w: free %.1f exceeds total %.1f", ErrInvalidSample, s.Free, s.Total)
	}
	return nil
}

type field struct {
	name  string
	value float64
}

// firstInvalid reports the first field that is NaN, infinite or negative.
func firstInvalid(fields ...field) error {
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidSample, f.name, f.value)
		}
	}
	return nil
}
