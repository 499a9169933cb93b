package indicator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
)

// DefaultStopTimeout bounds how long Close waits for workers to drain.
const DefaultStopTimeout = 5 * time.Second

// Controller is the type-erased view of a Worker the supervisor manages.
type Controller interface {
	Kind() Kind
	Surface() canvas.Surface
	CheckSettings() error
	Enable(ctx context.Context) error
	Disable()
	Wait()
	Once(ctx context.Context) error
	State() Lifecycle
	Health() Health
}

var (
	_ Controller = (*Worker[ProcessorSample])(nil)
	_ Controller = (*Worker[MemorySample])(nil)
	_ Controller = (*Worker[NetworkSample])(nil)
	_ Controller = (*Worker[DiskSample])(nil)
)

// Supervisor owns one worker per indicator kind and forwards enable and
// disable requests to them.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	workers map[Kind]Controller
	closed  bool
}

// NewSupervisor checks that the settings hold every key the controllers
// need and fails with all problems joined if they do not. ctx bounds the
// lifetime of every loop the supervisor starts.
func NewSupervisor(ctx context.Context, logger *slog.Logger, controllers ...Controller) (*Supervisor, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	workers := make(map[Kind]Controller, len(controllers))
	var errs []error
	for _, c := range controllers {
		if _, dup := workers[c.Kind()]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate %s indicator", ErrInvalidConfig, c.Kind()))
			continue
		}
		workers[c.Kind()] = c
		if err := c.CheckSettings(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("indicator: supervisor: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Supervisor{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		workers: workers,
	}, nil
}

// ErrSupervisorClosed is returned by operations that would start a loop
// after Close.
var ErrSupervisorClosed = errors.New("indicator: supervisor closed")

func (s *Supervisor) lookup(kind Kind) (Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.workers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s not configured", ErrUnknownIndicator, kind)
	}
	return c, nil
}

func (s *Supervisor) get(kind Kind) (Controller, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSupervisorClosed
	}
	return s.lookup(kind)
}

// Enable starts the indicator's loop.
func (s *Supervisor) Enable(kind Kind) error {
	c, err := s.get(kind)
	if err != nil {
		return err
	}
	return c.Enable(s.ctx)
}

// Disable stops the indicator's loop.
func (s *Supervisor) Disable(kind Kind) error {
	c, err := s.lookup(kind)
	if err != nil {
		return err
	}
	c.Disable()
	return nil
}

// SetEnabled forwards a host toggle.
func (s *Supervisor) SetEnabled(kind Kind, enabled bool) error {
	if enabled {
		return s.Enable(kind)
	}
	return s.Disable(kind)
}

// Toggle flips the indicator and returns its new state.
func (s *Supervisor) Toggle(kind Kind) (Lifecycle, error) {
	c, err := s.get(kind)
	if err != nil {
		return Stopped, err
	}
	if c.State() == Running {
		c.Disable()
		return Stopped, nil
	}
	if err := c.Enable(s.ctx); err != nil {
		return Stopped, err
	}
	return Running, nil
}

// State reports the indicator's lifecycle.
func (s *Supervisor) State(kind Kind) (Lifecycle, error) {
	c, err := s.lookup(kind)
	if err != nil {
		return Stopped, err
	}
	return c.State(), nil
}

// Controller returns the worker for kind.
func (s *Supervisor) Controller(kind Kind) (Controller, bool) {
	c, err := s.lookup(kind)
	return c, err == nil
}

// Kinds lists the configured indicators in display order.
func (s *Supervisor) Kinds() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]Kind, 0, len(s.workers))
	for k := range s.workers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Once runs a single synchronous tick on every stopped indicator.
func (s *Supervisor) Once(ctx context.Context) error {
	var errs []error
	for _, k := range s.Kinds() {
		c, err := s.get(k)
		if err != nil {
			return err
		}
		if err := c.Once(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Health reports every indicator in display order.
func (s *Supervisor) Health() []Health {
	kinds := s.Kinds()
	out := make([]Health, 0, len(kinds))
	for _, k := range kinds {
		if c, ok := s.Controller(k); ok {
			out = append(out, c.Health())
		}
	}
	return out
}

// Close disables every indicator and waits for the loops to finish, up to
// DefaultStopTimeout. After the timeout the supervisor context is cancelled
// so samplers blocked on it return.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	workers := make([]Controller, 0, len(s.workers))
	for _, c := range s.workers {
		workers = append(workers, c)
	}
	s.mu.Unlock()

	for _, c := range workers {
		c.Disable()
	}

	done := make(chan struct{})
	go func() {
		for _, c := range workers {
			c.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(DefaultStopTimeout):
		s.logger.Warn("indicator workers did not stop in time", "timeout", DefaultStopTimeout)
	}
	s.cancel()
}
