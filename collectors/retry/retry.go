// Package retry provides a circuit breaker around indicator samplers. When a
// sampler fails repeatedly the breaker opens and fails fast for increasing
// intervals, so a broken counter source is not hammered every tick.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/menu-meters/indicator"
)

// ErrCircuitOpen is returned while the breaker is skipping calls.
var ErrCircuitOpen = errors.New("retry: circuit open")

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; calls pass through to the sampler.
	StateClosed State = iota
	// StateOpen means failures exceeded the threshold; calls fail fast.
	StateOpen
	// StateHalfOpen lets one probe call through to test recovery.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the circuit breaker behavior.
type Config struct {
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// ResetTimeout is the initial wait before an open breaker probes again.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier grows ResetTimeout each time a probe fails.
	BackoffMultiplier float64
	// Logger for breaker transitions. Nil is safe (a discard logger is used).
	Logger *slog.Logger
}

// DefaultConfig returns defaults suited to sub-second sampling.
func DefaultConfig() Config {
	return Config{
		MaxFailures:       5,
		ResetTimeout:      30 * time.Second,
		MaxResetTimeout:   10 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats holds breaker statistics for external inspection.
type Stats struct {
	State            State         `json:"state"`
	ConsecutiveFails int           `json:"consecutive_failures"`
	TotalFailures    int           `json:"total_failures"`
	TotalSuccesses   int           `json:"total_successes"`
	LastFailure      time.Time     `json:"last_failure"`
	LastSuccess      time.Time     `json:"last_success"`
	CurrentTimeout   time.Duration `json:"current_timeout"`
	ConsecutiveSkips int           `json:"consecutive_skips"`
}

// Breaker wraps an indicator.Sampler with failure tracking and automatic
// opening and closing.
type Breaker[S indicator.Sample] struct {
	sampler indicator.Sampler[S]
	name    string
	config  Config
	logger  *slog.Logger
	now     func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	lastSuccess      time.Time
	currentTimeout   time.Duration
	totalFailures    int
	totalSuccesses   int
	consecutiveSkips int
}

// New wraps s. name identifies the sampler in logs.
func New[S indicator.Sample](name string, s indicator.Sampler[S], cfg Config) *Breaker[S] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	if cfg.MaxResetTimeout < cfg.ResetTimeout {
		cfg.MaxResetTimeout = cfg.ResetTimeout
	}
	return &Breaker[S]{
		sampler:        s,
		name:           name,
		config:         cfg,
		logger:         logger,
		now:            time.Now,
		state:          StateClosed,
		currentTimeout: cfg.ResetTimeout,
	}
}

// Sample implements indicator.Sampler. While open it returns ErrCircuitOpen
// without calling the wrapped sampler.
func (b *Breaker[S]) Sample(ctx context.Context) (S, error) {
	var zero S
	b.mu.Lock()

	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return b.sampleClosed(ctx)

	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.currentTimeout {
			remaining := b.currentTimeout - elapsed
			b.consecutiveSkips++
			failures := b.failures
			b.mu.Unlock()
			return zero, fmt.Errorf("%w: %s (failures: %d, retry in %s)",
				ErrCircuitOpen, b.name, failures, remaining.Truncate(time.Millisecond))
		}
		b.state = StateHalfOpen
		b.logger.Info("circuit breaker half-open, probing", "sampler", b.name)
		b.mu.Unlock()
		return b.sampleHalfOpen(ctx)

	case StateHalfOpen:
		b.mu.Unlock()
		return b.sampleHalfOpen(ctx)

	default:
		b.mu.Unlock()
		return zero, fmt.Errorf("retry: unknown breaker state %d", b.state)
	}
}

func (b *Breaker[S]) sampleClosed(ctx context.Context) (S, error) {
	s, err := b.sampler.Sample(ctx)
	if err != nil {
		b.recordFailure()
		return s, err
	}
	b.recordSuccess()
	return s, nil
}

func (b *Breaker[S]) sampleHalfOpen(ctx context.Context) (S, error) {
	s, err := b.sampler.Sample(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.totalFailures++
		b.lastFailure = b.now()
		b.currentTimeout = time.Duration(float64(b.currentTimeout) * b.config.BackoffMultiplier)
		if b.currentTimeout > b.config.MaxResetTimeout {
			b.currentTimeout = b.config.MaxResetTimeout
		}
		b.state = StateOpen
		b.logger.Warn("circuit breaker re-opened after failed probe",
			"sampler", b.name,
			"failures", b.failures,
			"next_timeout", b.currentTimeout,
		)
		return s, err
	}

	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.totalSuccesses++
	b.lastSuccess = b.now()
	b.currentTimeout = b.config.ResetTimeout
	b.logger.Info("circuit breaker closed after successful probe", "sampler", b.name)
	return s, nil
}

func (b *Breaker[S]) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.totalFailures++
	b.lastFailure = b.now()

	if b.failures >= b.config.MaxFailures {
		b.state = StateOpen
		b.currentTimeout = b.config.ResetTimeout
		b.logger.Warn("circuit breaker opened",
			"sampler", b.name,
			"failures", b.failures,
			"timeout", b.currentTimeout,
		)
	}
}

func (b *Breaker[S]) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.consecutiveSkips = 0
	b.totalSuccesses++
	b.lastSuccess = b.now()
}

// Stats returns a snapshot of the breaker statistics.
func (b *Breaker[S]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:            b.state,
		ConsecutiveFails: b.failures,
		TotalFailures:    b.totalFailures,
		TotalSuccesses:   b.totalSuccesses,
		LastFailure:      b.lastFailure,
		LastSuccess:      b.lastSuccess,
		CurrentTimeout:   b.currentTimeout,
		ConsecutiveSkips: b.consecutiveSkips,
	}
}

// SamplerHealth implements indicator.HealthReporter. RetryIn is set only
// while the breaker is open.
func (b *Breaker[S]) SamplerHealth() indicator.SamplerHealth {
	st := b.Stats()
	h := indicator.SamplerHealth{
		State:               st.State.String(),
		ConsecutiveFailures: st.ConsecutiveFails,
	}
	if st.State == StateOpen {
		h.RetryIn = st.CurrentTimeout.String()
	}
	return h
}

// Reset forces the breaker closed and clears the failure counters. Workers
// call it when their indicator is switched back on.
func (b *Breaker[S]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.logger.Info("circuit breaker reset", "sampler", b.name, "was", b.state.String())
	}
	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.currentTimeout = b.config.ResetTimeout
}

var (
	_ indicator.Sampler[indicator.MemorySample] = (*Breaker[indicator.MemorySample])(nil)
	_ indicator.HealthReporter                  = (*Breaker[indicator.MemorySample])(nil)
	_ indicator.Resetter                        = (*Breaker[indicator.MemorySample])(nil)
)
