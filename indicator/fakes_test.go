package indicator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
)

// mapSettings is an in-memory Settings.
type mapSettings struct {
	mu      sync.RWMutex
	colors  map[string]canvas.Color
	strings map[string]string
}

var errMissing = errors.New("missing key")

func newMapSettings() *mapSettings {
	s := &mapSettings{colors: map[string]canvas.Color{}, strings: map[string]string{}}
	for i, k := range allColorKeys() {
		s.colors[k] = canvas.Color{R: uint8(i + 1), G: uint8(i + 1), B: uint8(i + 1), A: 0xff}
	}
	for _, k := range []string{NetworkRateUnit, NetworkRateNextUnit, DiskSpaceUnit, DiskSpaceNextUnit} {
		s.strings[k] = ""
	}
	return s
}

func allColorKeys() []string {
	var keys []string
	keys = append(keys, Processor{}.ColorKeys()...)
	keys = append(keys, Memory{}.ColorKeys()...)
	keys = append(keys, Network{}.ColorKeys()...)
	keys = append(keys, Disk{}.ColorKeys()...)
	return keys
}

func (s *mapSettings) Color(key string) (canvas.Color, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colors[key]
	if !ok {
		return canvas.Color{}, fmt.Errorf("%w: %s", errMissing, key)
	}
	return c, nil
}

func (s *mapSettings) String(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.strings[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", errMissing, key)
	}
	return v, nil
}

func (s *mapSettings) remove(key string) {
	s.mu.Lock()
	delete(s.colors, key)
	delete(s.strings, key)
	s.mu.Unlock()
}

// recordingCanvas records every presented frame and detects render passes
// that overlap on the same surface.
type recordingCanvas struct {
	mu       sync.Mutex
	open     map[string]bool
	pending  map[string][]canvas.Command
	frames   map[string][][]canvas.Command
	overlaps int
	presents int
	failNext int // number of upcoming Present calls to fail
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{
		open:    map[string]bool{},
		pending: map[string][]canvas.Command{},
		frames:  map[string][][]canvas.Command{},
	}
}

func (c *recordingCanvas) Clear(s canvas.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open[s.ID] {
		c.overlaps++
	}
	c.open[s.ID] = true
	c.pending[s.ID] = nil
	return nil
}

func (c *recordingCanvas) FillRect(s canvas.Surface, r canvas.Rect, col canvas.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[s.ID] = append(c.pending[s.ID], canvas.FillRect(r, col))
	return nil
}

func (c *recordingCanvas) DrawText(s canvas.Surface, t canvas.Text) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[s.ID] = append(c.pending[s.ID], canvas.DrawText(t))
	return nil
}

func (c *recordingCanvas) Present(s canvas.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open[s.ID] = false
	if c.failNext > 0 {
		c.failNext--
		return errors.New("present failed")
	}
	c.presents++
	c.frames[s.ID] = append(c.frames[s.ID], c.pending[s.ID])
	return nil
}

func (c *recordingCanvas) lastFrame(id string) ([]canvas.Command, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.frames[id]
	if len(f) == 0 {
		return nil, false
	}
	return f[len(f)-1], true
}

func (c *recordingCanvas) frameCount(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames[id])
}

func (c *recordingCanvas) overlapCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlaps
}

// scriptedSampler returns queued results, then repeats fallback. It counts
// calls and detects concurrent invocations.
type scriptedSampler[S Sample] struct {
	mu       sync.Mutex
	script   []result[S]
	fallback result[S]
	calls    atomic.Int64
	active   atomic.Int32
	overlaps atomic.Int32
	block    chan struct{} // when non-nil each call waits for a receive
	entered  chan struct{} // when non-nil each call signals on entry
}

type result[S Sample] struct {
	s   S
	err error
}

func (f *scriptedSampler[S]) Sample(ctx context.Context) (S, error) {
	if f.active.Add(1) > 1 {
		f.overlaps.Add(1)
	}
	defer f.active.Add(-1)
	f.calls.Add(1)

	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			var zero S
			return zero, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.script) > 0 {
		r := f.script[0]
		f.script = f.script[1:]
		return r.s, r.err
	}
	return f.fallback.s, f.fallback.err
}
