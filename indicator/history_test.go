package indicator

import (
	"errors"
	"sync"
	"testing"
)

func TestNewHistory_RejectsSmallCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := NewHistory[int](c); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("NewHistory(%d) error = %v, want ErrInvalidCapacity", c, err)
		}
	}
}

func TestHistory_FIFO(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushes   int
	}{
		{"capacity one", 1, 5},
		{"under capacity", 5, 3},
		{"exactly full", 5, 5},
		{"one over", 5, 6},
		{"many over", 35, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHistory[int](tt.capacity)
			if err != nil {
				t.Fatalf("NewHistory: %v", err)
			}
			for i := 0; i < tt.pushes; i++ {
				h.Push(i)
			}

			wantLen := min(tt.pushes, tt.capacity)
			got := h.Snapshot()
			if len(got) != wantLen || h.Len() != wantLen {
				t.Fatalf("len = %d (Len %d), want %d", len(got), h.Len(), wantLen)
			}
			first := tt.pushes - wantLen
			for i, v := range got {
				if v != first+i {
					t.Fatalf("snapshot[%d] = %d, want %d (snapshot %v)", i, v, first+i, got)
				}
			}
			last, ok := h.Latest()
			if !ok || last != tt.pushes-1 {
				t.Errorf("Latest = %d, %v; want %d, true", last, ok, tt.pushes-1)
			}
		})
	}
}

func TestHistory_SnapshotIsCopy(t *testing.T) {
	h, _ := NewHistory[int](3)
	h.Push(1)
	h.Push(2)

	snap := h.Snapshot()
	snap[0] = 99
	if got := h.Snapshot()[0]; got != 1 {
		t.Errorf("history mutated through snapshot: got %d", got)
	}
}

func TestHistory_Empty(t *testing.T) {
	h, _ := NewHistory[MemorySample](4)
	if _, ok := h.Latest(); ok {
		t.Error("Latest on empty history reported ok")
	}
	if n := len(h.Snapshot()); n != 0 {
		t.Errorf("snapshot len = %d, want 0", n)
	}
	if h.Cap() != 4 {
		t.Errorf("Cap = %d, want 4", h.Cap())
	}
}

func TestHistory_ConcurrentPushSnapshot(t *testing.T) {
	h, _ := NewHistory[int](10)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			h.Push(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := h.Snapshot()
			for j := 1; j < len(snap); j++ {
				if snap[j] != snap[j-1]+1 {
					t.Errorf("snapshot out of order: %v", snap)
					return
				}
			}
		}
	}()
	wg.Wait()
}
