package indicator

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latency histogram bounds in microseconds: 1µs to one minute.
const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Minute / time.Microsecond)
	latencySigFigs   = 3
)

// Health is a point-in-time report for one indicator worker.
type Health struct {
	Indicator       string    `json:"indicator"`
	Lifecycle       Lifecycle `json:"lifecycle"`
	Frozen          bool      `json:"frozen"`
	Interval        string    `json:"interval"`
	Ticks           uint64    `json:"ticks"`
	SamplerFailures uint64    `json:"sampler_failures"`
	RenderFailures  uint64    `json:"render_failures"`
	LastError       string    `json:"last_error,omitempty"`
	LastTick        time.Time `json:"last_tick,omitempty"`
	P50Micros       int64     `json:"p50_us"`
	P99Micros       int64     `json:"p99_us"`
	HistoryLen      int       `json:"history_len"`
	HistoryCap      int       `json:"history_cap"`
	// Sampler is filled when the sampler reports on itself.
	Sampler *SamplerHealth `json:"sampler,omitempty"`
}

// SamplerHealth is what a guarded sampler, such as a circuit breaker,
// reports about itself.
type SamplerHealth struct {
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	RetryIn             string `json:"retry_in,omitempty"`
}

// HealthReporter is implemented by samplers that track their own health.
type HealthReporter interface {
	SamplerHealth() SamplerHealth
}

// Resetter is implemented by samplers holding failure state that should be
// cleared when their indicator is switched back on.
type Resetter interface {
	Reset()
}

// stats accumulates per-worker counters. It has its own lock so health
// readers never contend with the worker lifecycle mutex.
type stats struct {
	mu              sync.Mutex
	latency         *hdrhistogram.Histogram
	ticks           uint64
	samplerFailures uint64
	renderFailures  uint64
	lastErr         string
	lastTick        time.Time
	frozen          bool
}

func newStats() *stats {
	return &stats{latency: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, latencySigFigs)}
}

func (s *stats) recordSample(at time.Time, latency time.Duration, err error) {
	us := latency.Microseconds()
	if us < minLatencyMicros {
		us = minLatencyMicros
	}
	if us > maxLatencyMicros {
		us = maxLatencyMicros
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.latency.RecordValue(us)
	s.ticks++
	s.lastTick = at
	if err != nil {
		s.samplerFailures++
		s.lastErr = err.Error()
	}
}

func (s *stats) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *stats) recordRenderFailure(err error) {
	s.mu.Lock()
	s.renderFailures++
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *stats) setFrozen(v bool) {
	s.mu.Lock()
	s.frozen = v
	s.mu.Unlock()
}

func (s *stats) fill(h *Health) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.Frozen = s.frozen
	h.Ticks = s.ticks
	h.SamplerFailures = s.samplerFailures
	h.RenderFailures = s.renderFailures
	h.LastError = s.lastErr
	h.LastTick = s.lastTick
	if s.latency.TotalCount() > 0 {
		h.P50Micros = s.latency.ValueAtQuantile(50)
		h.P99Micros = s.latency.ValueAtQuantile(99)
	}
}
