// Package sysmetrics reads the host counters behind the four indicators
// through gopsutil. Rate-based samplers (processor, network) take two
// readings a short window apart and report the delta.
package sysmetrics

import (
	"context"
	"time"
)

// DefaultWindow is the delay between the two readings of a rate sampler.
const DefaultWindow = 500 * time.Millisecond

const (
	bytesPerMB = 1 << 20
	bytesPerGB = 1e9
)

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
