package sysmetrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"gitlab.com/tinyland/lab/menu-meters/indicator"
)

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

// ProcessorSampler reports user and system CPU usage over Window.
type ProcessorSampler struct {
	Window time.Duration
	logger *slog.Logger

	// Overridable for testing.
	readTimes func(ctx context.Context) (cpu.TimesStat, error)
}

// NewProcessorSampler returns a sampler over all CPUs combined.
func NewProcessorSampler(window time.Duration, logger *slog.Logger) *ProcessorSampler {
	return &ProcessorSampler{
		Window: window,
		logger: discardLogger(logger),
		readTimes: func(ctx context.Context) (cpu.TimesStat, error) {
			stats, err := cpu.TimesWithContext(ctx, false)
			if err != nil {
				return cpu.TimesStat{}, err
			}
			if len(stats) == 0 {
				return cpu.TimesStat{}, errors.New("no cpu times reported")
			}
			return stats[0], nil
		},
	}
}

// Sample implements indicator.Sampler.
func (p *ProcessorSampler) Sample(ctx context.Context) (indicator.ProcessorSample, error) {
	before, err := p.readTimes(ctx)
	if err != nil {
		return indicator.ProcessorSample{}, fmt.Errorf("sysmetrics: cpu times: %w", err)
	}
	if err := sleep(ctx, p.Window); err != nil {
		return indicator.ProcessorSample{}, err
	}
	after, err := p.readTimes(ctx)
	if err != nil {
		return indicator.ProcessorSample{}, fmt.Errorf("sysmetrics: cpu times: %w", err)
	}

	total := busy(after) + after.Idle + after.Iowait - busy(before) - before.Idle - before.Iowait
	if total <= 0 {
		return indicator.ProcessorSample{}, nil
	}
	s := indicator.ProcessorSample{
		User:   clamp((after.User + after.Nice - before.User - before.Nice) / total * 100),
		System: clamp((after.System + after.Irq + after.Softirq - before.System - before.Irq - before.Softirq) / total * 100),
	}
	p.logger.Debug("processor sampled", "user", s.User, "system", s.System)
	return s, nil
}

func busy(t cpu.TimesStat) float64 {
	return t.User + t.Nice + t.System + t.Irq + t.Softirq + t.Steal
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// MemorySampler reports used and free physical memory in megabytes.
type MemorySampler struct {
	logger *slog.Logger

	// Overridable for testing.
	readMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewMemorySampler returns a sampler over the host's virtual memory stats.
func NewMemorySampler(logger *slog.Logger) *MemorySampler {
	return &MemorySampler{
		logger:     discardLogger(logger),
		readMemory: mem.VirtualMemoryWithContext,
	}
}

// Sample implements indicator.Sampler.
func (m *MemorySampler) Sample(ctx context.Context) (indicator.MemorySample, error) {
	vm, err := m.readMemory(ctx)
	if err != nil {
		return indicator.MemorySample{}, fmt.Errorf("sysmetrics: virtual memory: %w", err)
	}
	used := vm.Used
	if used > vm.Total {
		used = vm.Total
	}
	return indicator.MemorySample{
		Used: float64(used) / bytesPerMB,
		Free: float64(vm.Total-used) / bytesPerMB,
	}, nil
}

// NetworkSampler reports throughput over all interfaces in bytes per second.
type NetworkSampler struct {
	Window time.Duration
	logger *slog.Logger

	// Overridable for testing.
	readCounters func(ctx context.Context) (net.IOCountersStat, error)
}

// NewNetworkSampler returns a sampler summing every interface.
func NewNetworkSampler(window time.Duration, logger *slog.Logger) *NetworkSampler {
	return &NetworkSampler{
		Window: window,
		logger: discardLogger(logger),
		readCounters: func(ctx context.Context) (net.IOCountersStat, error) {
			stats, err := net.IOCountersWithContext(ctx, false)
			if err != nil {
				return net.IOCountersStat{}, err
			}
			if len(stats) == 0 {
				return net.IOCountersStat{}, errors.New("no interfaces reported")
			}
			return stats[0], nil
		},
	}
}

// Sample implements indicator.Sampler. A counter that went backwards (an
// interface reset) reports zero for that direction.
func (n *NetworkSampler) Sample(ctx context.Context) (indicator.NetworkSample, error) {
	start := time.Now()
	before, err := n.readCounters(ctx)
	if err != nil {
		return indicator.NetworkSample{}, fmt.Errorf("sysmetrics: net counters: %w", err)
	}
	if err := sleep(ctx, n.Window); err != nil {
		return indicator.NetworkSample{}, err
	}
	after, err := n.readCounters(ctx)
	if err != nil {
		return indicator.NetworkSample{}, fmt.Errorf("sysmetrics: net counters: %w", err)
	}

	elapsed := n.Window.Seconds()
	if elapsed <= 0 {
		elapsed = time.Since(start).Seconds()
	}
	if elapsed <= 0 {
		return indicator.NetworkSample{}, nil
	}
	return indicator.NetworkSample{
		Incoming: rate(before.BytesRecv, after.BytesRecv, elapsed),
		Outgoing: rate(before.BytesSent, after.BytesSent, elapsed),
	}, nil
}

func rate(before, after uint64, seconds float64) float64 {
	if after < before {
		return 0
	}
	return float64(after-before) / seconds
}

// DiskSampler reports free and total space of one mount in gigabytes.
type DiskSampler struct {
	Mount  string
	logger *slog.Logger

	// Overridable for testing.
	readUsage func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewDiskSampler returns a sampler for the filesystem mounted at mount.
func NewDiskSampler(mount string, logger *slog.Logger) *DiskSampler {
	if mount == "" {
		mount = "/"
	}
	return &DiskSampler{
		Mount:     mount,
		logger:    discardLogger(logger),
		readUsage: disk.UsageWithContext,
	}
}

// Sample implements indicator.Sampler.
func (d *DiskSampler) Sample(ctx context.Context) (indicator.DiskSample, error) {
	u, err := d.readUsage(ctx, d.Mount)
	if err != nil {
		return indicator.DiskSample{}, fmt.Errorf("sysmetrics: disk usage %s: %w", d.Mount, err)
	}
	free := u.Free
	if free > u.Total {
		free = u.Total
	}
	return indicator.DiskSample{
		Free:  float64(free) / bytesPerGB,
		Total: float64(u.Total) / bytesPerGB,
	}, nil
}

// Compile-time interface compliance checks.
var (
	_ indicator.Sampler[indicator.ProcessorSample] = (*ProcessorSampler)(nil)
	_ indicator.Sampler[indicator.MemorySample]    = (*MemorySampler)(nil)
	_ indicator.Sampler[indicator.NetworkSample]   = (*NetworkSampler)(nil)
	_ indicator.Sampler[indicator.DiskSample]      = (*DiskSampler)(nil)
)
