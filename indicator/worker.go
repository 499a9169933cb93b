package indicator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
)

// DefaultMaxRenderFailures is how many consecutive failed renders a worker
// tolerates before it stops itself and leaves the last frame in place.
const DefaultMaxRenderFailures = 3

// ErrWorkerRunning is returned by Once when the tick loop is active.
var ErrWorkerRunning = errors.New("indicator: worker is running")

// Lifecycle is the observable state of a worker.
type Lifecycle int

const (
	Stopped Lifecycle = iota
	Running
)

// String returns the lifecycle name.
func (l Lifecycle) String() string {
	switch l {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifecycle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}


// Update is sent after every tick so a host can refresh its view.
type Update struct {
	Kind      Kind
	Timestamp time.Time
	Err       error
}

// WorkerConfig wires one indicator to its collaborators.
type WorkerConfig[S Sample] struct {
	Indicator Indicator[S]
	Sampler   Sampler[S]
	Settings  Settings
	Canvas    canvas.Canvas

	// Width is the surface width in pixels and the history capacity.
	Width  int
	Height int

	Interval time.Duration

	// MaxRenderFailures defaults to DefaultMaxRenderFailures when zero.
	MaxRenderFailures int

	Logger *slog.Logger

	// Updates, if set, receives a non-blocking notification per tick.
	Updates chan<- Update
}

// errTracker deduplicates repeated identical sampler errors.
type errTracker struct {
	lastMsg    string
	lastTime   time.Time
	suppressed int64
}

// run is one incarnation of the tick loop. stop is closed by Disable and
// done by the loop itself when it returns.
type run struct {
	stop chan struct{}
	done chan struct{}
}

// wait blocks until the run has exited or ctx is done.
func (r *run) wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Worker drives one indicator: it owns the history and runs the
// sample/render loop while enabled.
//
// Enable, Disable and Once are serialized by mu. The current run is
// published through an atomic pointer so State and Health read it without
// mu. The loop goroutine never takes mu.
type Worker[S Sample] struct {
	ind      Indicator[S]
	sampler  Sampler[S]
	settings Settings
	canvas   canvas.Canvas
	surface  canvas.Surface
	interval time.Duration
	maxFail  int
	logger   *slog.Logger
	updates  chan<- Update

	history *History[S]
	stats   *stats

	mu  sync.Mutex
	cur atomic.Pointer[run]

	// Loop-owned. Successive runs never overlap, so these are handed from
	// one run to the next through the done channel.
	failures int
	errs     errTracker
}

// NewWorker validates cfg and returns a stopped worker.
func NewWorker[S Sample](cfg WorkerConfig[S]) (*Worker[S], error) {
	switch {
	case cfg.Indicator == nil:
		return nil, fmt.Errorf("%w: indicator is required", ErrInvalidConfig)
	case cfg.Sampler == nil:
		return nil, fmt.Errorf("%w: %s: sampler is required", ErrInvalidConfig, cfg.Indicator.Kind())
	case cfg.Settings == nil:
		return nil, fmt.Errorf("%w: %s: settings are required", ErrInvalidConfig, cfg.Indicator.Kind())
	case cfg.Canvas == nil:
		return nil, fmt.Errorf("%w: %s: canvas is required", ErrInvalidConfig, cfg.Indicator.Kind())
	case cfg.Height < 1:
		return nil, fmt.Errorf("%w: %s: height %d", ErrInvalidConfig, cfg.Indicator.Kind(), cfg.Height)
	case cfg.Interval <= 0:
		return nil, fmt.Errorf("%w: %s: interval %s", ErrInvalidConfig, cfg.Indicator.Kind(), cfg.Interval)
	}

	history, err := NewHistory[S](cfg.Width)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Indicator.Kind(), err)
	}

	maxFail := cfg.MaxRenderFailures
	if maxFail <= 0 {
		maxFail = DefaultMaxRenderFailures
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	kind := cfg.Indicator.Kind()

	return &Worker[S]{
		ind:      cfg.Indicator,
		sampler:  cfg.Sampler,
		settings: cfg.Settings,
		canvas:   cfg.Canvas,
		surface:  canvas.Surface{ID: kind.String(), Width: cfg.Width, Height: cfg.Height},
		interval: cfg.Interval,
		maxFail:  maxFail,
		logger:   logger.With("indicator", kind.String()),
		updates:  cfg.Updates,
		history:  history,
		stats:    newStats(),
	}, nil
}

// Kind returns the indicator kind.
func (w *Worker[S]) Kind() Kind { return w.ind.Kind() }

// Surface returns the surface the worker draws into.
func (w *Worker[S]) Surface() canvas.Surface { return w.surface }

// History exposes the worker's sample history. Callers must treat it as
// read-only.
func (w *Worker[S]) History() *History[S] { return w.history }

// CheckSettings resolves every key the indicator needs and reports all the
// ones that are missing or malformed.
func (w *Worker[S]) CheckSettings() error {
	if _, err := readPalette(w.settings, w.ind); err != nil {
		return fmt.Errorf("%s: %w", w.Kind(), err)
	}
	return nil
}

// Enable starts the tick loop. It is a no-op when the worker is already
// running. If a previous loop is still finishing its last tick, Enable waits
// for it to exit first, or until ctx is done. mu is released during that
// wait, so a hung tick never blocks Disable, State or Health.
//
// ctx bounds the lifetime of the loop; cancelling it stops the loop without
// going through Disable.
func (w *Worker[S]) Enable(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		r := w.cur.Load()
		if r == nil || closed(r.done) {
			break
		}
		if !closed(r.stop) {
			return nil
		}
		w.mu.Unlock()
		err := r.wait(ctx)
		w.mu.Lock()
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if rs, ok := w.sampler.(Resetter); ok {
		rs.Reset()
	}
	r := &run{stop: make(chan struct{}), done: make(chan struct{})}
	w.cur.Store(r)
	w.stats.setFrozen(false)
	w.logger.Debug("indicator enabled", "interval", w.interval)
	go w.loop(ctx, r)
	return nil
}

// Disable asks the tick loop to stop. The tick in flight, if any, completes;
// no further tick starts. Disable does not wait; use Wait for that.
func (w *Worker[S]) Disable() {
	w.mu.Lock()
	defer w.mu.Unlock()

	r := w.cur.Load()
	if r == nil || closed(r.stop) || closed(r.done) {
		return
	}
	close(r.stop)
	w.logger.Debug("indicator disabled")
}

// State reports Running while a loop is active and has not been asked to
// stop. It never blocks.
func (w *Worker[S]) State() Lifecycle {
	r := w.cur.Load()
	if r == nil || closed(r.stop) || closed(r.done) {
		return Stopped
	}
	return Running
}

// Wait blocks until the current loop, if any, has exited.
func (w *Worker[S]) Wait() {
	if r := w.cur.Load(); r != nil {
		<-r.done
	}
}

// Once runs a single tick synchronously. It fails with ErrWorkerRunning
// while the loop is active or still draining.
func (w *Worker[S]) Once(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if r := w.cur.Load(); r != nil && !closed(r.done) {
		return ErrWorkerRunning
	}
	w.failures = 0
	_, err := w.tick(ctx)
	return err
}

// Health returns the worker's counters and latency percentiles.
func (w *Worker[S]) Health() Health {
	h := Health{
		Indicator:  w.Kind().String(),
		Lifecycle:  w.State(),
		Interval:   format.FormatInterval(w.interval),
		HistoryLen: w.history.Len(),
		HistoryCap: w.history.Cap(),
	}
	w.stats.fill(&h)
	if r, ok := w.sampler.(HealthReporter); ok {
		sh := r.SamplerHealth()
		h.Sampler = &sh
	}
	return h
}

func (w *Worker[S]) loop(ctx context.Context, r *run) {
	defer close(r.done)
	w.failures = 0

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if ok, _ := w.tick(ctx); !ok {
			return
		}

		t := time.NewTimer(w.interval)
		select {
		case <-r.stop:
			t.Stop()
			return
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// tick performs one sample/render pass. It reports whether the loop should
// continue, and the error that affected this tick, if any.
func (w *Worker[S]) tick(ctx context.Context) (bool, error) {
	start := time.Now()
	s, err := w.sampler.Sample(ctx)
	latency := time.Since(start)
	if err != nil && ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil {
		err = s.Validate()
	}

	var tickErr error
	if err != nil {
		if !errors.Is(err, ErrSamplerFailure) {
			err = fmt.Errorf("%w: %s: %w", ErrSamplerFailure, w.Kind(), err)
		}
		tickErr = err
		w.stats.recordSample(start, latency, err)
		w.logSamplerError(err)
		// Only good samples reach the history, so its newest entry is the
		// last good sample.
		if last, ok := w.history.Latest(); ok {
			w.history.Push(last)
		}
	} else {
		w.stats.recordSample(start, latency, nil)
		w.history.Push(s)
	}

	palette, err := readPalette(w.settings, w.ind)
	if err != nil {
		err = fmt.Errorf("%s: palette: %w", w.Kind(), err)
		w.logger.Error("render skipped", "error", err)
		w.stats.recordError(err)
		w.notify(start, err)
		return true, err
	}

	var cmds []canvas.Command
	if snap := w.history.Snapshot(); len(snap) > 0 {
		cmds = w.ind.Draw(Frame[S]{
			History: snap,
			Latest:  snap[len(snap)-1],
			Palette: palette,
			Width:   float64(w.surface.Width),
			Height:  float64(w.surface.Height),
		})
	}

	if err := canvas.Apply(w.canvas, w.surface, cmds); err != nil {
		err = fmt.Errorf("%w: %w", ErrRenderFailure, err)
		w.failures++
		w.stats.recordRenderFailure(err)
		w.notify(start, err)
		if w.failures >= w.maxFail {
			w.logger.Error("indicator frozen after repeated render failures", "failures", w.failures, "error", err)
			w.stats.setFrozen(true)
			return false, err
		}
		w.logger.Warn("render failed", "failures", w.failures, "error", err)
		return true, err
	}
	w.failures = 0

	w.notify(start, tickErr)
	return true, tickErr
}

func (w *Worker[S]) notify(at time.Time, err error) {
	if w.updates == nil {
		return
	}
	select {
	case w.updates <- Update{Kind: w.Kind(), Timestamp: at, Err: err}:
	default:
	}
}

// logSamplerError suppresses repeats of the same message within an hour and
// logs a summary every 100 suppressions.
func (w *Worker[S]) logSamplerError(err error) {
	msg := err.Error()
	now := time.Now()
	t := &w.errs
	if msg == t.lastMsg && now.Sub(t.lastTime) < time.Hour {
		t.suppressed++
		if t.suppressed%100 == 0 {
			w.logger.Warn("sampler error repeated", "count", t.suppressed, "error", err)
		}
		return
	}
	if t.suppressed > 0 {
		w.logger.Info("previous sampler error repeated", "count", t.suppressed)
	}
	w.logger.Warn("sampler failed, reusing last sample", "error", err)
	t.lastMsg = msg
	t.lastTime = now
	t.suppressed = 0
}
