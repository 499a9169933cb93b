package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/menu-meters/indicator"
)

// --- Mock sampler ---

type mockSampler struct {
	mu     sync.Mutex
	errors []error
	calls  int
}

func (m *mockSampler) Sample(ctx context.Context) (indicator.MemorySample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	if err := ctx.Err(); err != nil {
		return indicator.MemorySample{}, err
	}
	if idx < len(m.errors) && m.errors[idx] != nil {
		return indicator.MemorySample{}, m.errors[idx]
	}
	return indicator.MemorySample{Free: 1, Used: float64(idx)}, nil
}

func (m *mockSampler) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func failing(n int) *mockSampler {
	m := &mockSampler{errors: make([]error, n)}
	for i := range n {
		m.errors[i] = fmt.Errorf("fail-%d", i)
	}
	return m
}

// fakeClock is advanced manually.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBreaker(m *mockSampler, cfg Config) (*Breaker[indicator.MemorySample], *fakeClock) {
	b := New[indicator.MemorySample]("memory", m, cfg)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b.now = clock.now
	return b, clock
}

func testConfig() Config {
	return Config{
		MaxFailures:       3,
		ResetTimeout:      time.Second,
		MaxResetTimeout:   4 * time.Second,
		BackoffMultiplier: 2,
	}
}

// --- Tests ---

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{State(99), "unknown(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxFailures < 1 || cfg.ResetTimeout <= 0 || cfg.MaxResetTimeout < cfg.ResetTimeout || cfg.BackoffMultiplier < 1 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestSample_SuccessStaysClosed(t *testing.T) {
	b, _ := newBreaker(&mockSampler{}, testConfig())
	if _, err := b.Sample(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Stats().State != StateClosed {
		t.Errorf("state = %v, want closed", b.Stats().State)
	}
	if s := b.Stats(); s.TotalSuccesses != 1 {
		t.Errorf("TotalSuccesses = %d, want 1", s.TotalSuccesses)
	}
}

func TestSample_OpensAfterMaxFailures(t *testing.T) {
	m := failing(10)
	b, _ := newBreaker(m, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Sample(ctx); err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d: error = %v, want sampler error", i, err)
		}
	}
	if b.Stats().State != StateOpen {
		t.Fatalf("state = %v, want open", b.Stats().State)
	}

	_, err := b.Sample(ctx)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
	if m.callCount() != 3 {
		t.Errorf("sampler calls = %d, open breaker must not call through", m.callCount())
	}
	if s := b.Stats(); s.ConsecutiveSkips != 1 {
		t.Errorf("ConsecutiveSkips = %d, want 1", s.ConsecutiveSkips)
	}
}

func TestSample_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name        string
		probeFails  bool
		wantState   State
		wantTimeout time.Duration
	}{
		{"probe succeeds", false, StateClosed, time.Second},
		{"probe fails", true, StateOpen, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 3
			if tt.probeFails {
				n = 4
			}
			b, clock := newBreaker(failing(n), testConfig())
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				_, _ = b.Sample(ctx)
			}

			clock.advance(time.Second)
			_, err := b.Sample(ctx)
			if (err != nil) != tt.probeFails || errors.Is(err, ErrCircuitOpen) {
				t.Fatalf("probe error = %v", err)
			}
			if b.Stats().State != tt.wantState {
				t.Errorf("state = %v, want %v", b.Stats().State, tt.wantState)
			}
			if got := b.Stats().CurrentTimeout; got != tt.wantTimeout {
				t.Errorf("CurrentTimeout = %v, want %v", got, tt.wantTimeout)
			}
		})
	}
}

func TestSample_BackoffIsCapped(t *testing.T) {
	b, clock := newBreaker(failing(100), testConfig())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = b.Sample(ctx)
	}
	for i := 0; i < 5; i++ {
		clock.advance(b.Stats().CurrentTimeout)
		_, _ = b.Sample(ctx)
	}
	if got := b.Stats().CurrentTimeout; got != 4*time.Second {
		t.Errorf("CurrentTimeout = %v, want cap 4s", got)
	}
}

func TestReset(t *testing.T) {
	b, _ := newBreaker(failing(3), testConfig())
	for i := 0; i < 3; i++ {
		_, _ = b.Sample(context.Background())
	}
	b.Reset()
	if b.Stats().State != StateClosed || b.Stats().ConsecutiveFails != 0 {
		t.Errorf("after Reset: %+v", b.Stats())
	}
	if _, err := b.Sample(context.Background()); err != nil {
		t.Errorf("Sample after Reset: %v", err)
	}
}

func TestNew_NormalizesConfig(t *testing.T) {
	b := New[indicator.MemorySample]("memory", &mockSampler{}, Config{ResetTimeout: time.Second})
	if b.config.MaxFailures != 1 || b.config.BackoffMultiplier != 1 || b.config.MaxResetTimeout != time.Second {
		t.Errorf("config = %+v", b.config)
	}
}

func TestSample_ConcurrentSafe(t *testing.T) {
	b, _ := newBreaker(&mockSampler{}, testConfig())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = b.Sample(context.Background())
			}
		}()
	}
	wg.Wait()
	if s := b.Stats(); s.TotalSuccesses != 400 {
		t.Errorf("TotalSuccesses = %d, want 400", s.TotalSuccesses)
	}
}

func TestSamplerHealth(t *testing.T) {
	b, _ := newBreaker(failing(10), testConfig())
	if h := b.SamplerHealth(); h.State != "closed" || h.RetryIn != "" {
		t.Errorf("fresh breaker health = %+v", h)
	}

	for i := 0; i < 3; i++ {
		_, _ = b.Sample(context.Background())
	}
	h := b.SamplerHealth()
	if h.State != "open" || h.ConsecutiveFailures != 3 || h.RetryIn != "1s" {
		t.Errorf("open breaker health = %+v, want open/3/1s", h)
	}

	b.Reset()
	if h := b.SamplerHealth(); h.State != "closed" || h.ConsecutiveFailures != 0 {
		t.Errorf("health after Reset = %+v", h)
	}
}
