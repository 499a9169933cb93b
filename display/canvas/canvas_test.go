package canvas

import (
	"errors"
	"strings"
	"testing"
)

type recorder struct {
	calls   []string
	failOn  string
	failErr error
}

func (r *recorder) record(name string) error {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return r.failErr
	}
	return nil
}

func (r *recorder) Clear(Surface) error                 { return r.record("clear") }
func (r *recorder) FillRect(Surface, Rect, Color) error { return r.record("rect") }
func (r *recorder) DrawText(Surface, Text) error        { return r.record("text") }
func (r *recorder) Present(Surface) error               { return r.record("present") }

func TestApply_Order(t *testing.T) {
	rec := &recorder{}
	s := Surface{ID: "memory", Width: 5, Height: 22}
	cmds := []Command{
		FillRect(Rect{X: 0, Y: 10, W: 1, H: 12}, Hex(0x2ecc71)),
		DrawText(Text{Value: "60%", Size: 13}),
	}

	if err := Apply(rec, s, cmds); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := "clear,rect,text,present"
	if got := strings.Join(rec.calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestApply_ErrorSkipsPresent(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{failOn: "text", failErr: boom}
	s := Surface{ID: "cpu", Width: 1, Height: 1}

	err := Apply(rec, s, []Command{DrawText(Text{Value: "x"})})
	if !errors.Is(err, boom) {
		t.Fatalf("Apply error = %v, want wrapped boom", err)
	}
	for _, c := range rec.calls {
		if c == "present" {
			t.Error("Present must not run after a failed command")
		}
	}
}

func TestApply_EmptySurface(t *testing.T) {
	rec := &recorder{}
	err := Apply(rec, Surface{ID: "x"}, nil)
	if !errors.Is(err, ErrEmptySurface) {
		t.Errorf("err = %v, want ErrEmptySurface", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no canvas calls, got %v", rec.calls)
	}
}

func TestHex(t *testing.T) {
	c := Hex(0x2ecc71)
	if c.R != 0x2e || c.G != 0xcc || c.B != 0x71 || c.A != 0xff {
		t.Errorf("Hex(0x2ecc71) = %+v", c)
	}
}

func TestCommandKindString(t *testing.T) {
	if KindFillRect.String() != "fill_rect" || KindText.String() != "text" {
		t.Error("unexpected command kind names")
	}
	if got := CommandKind(9).String(); got != "unknown(9)" {
		t.Errorf("String() = %q", got)
	}
}
