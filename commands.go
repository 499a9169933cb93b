package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"

	"gitlab.com/tinyland/lab/menu-meters/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/menu-meters/config"
	displaycolor "gitlab.com/tinyland/lab/menu-meters/display/color"
	"gitlab.com/tinyland/lab/menu-meters/display/render"
	"gitlab.com/tinyland/lab/menu-meters/indicator"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
	"gitlab.com/tinyland/lab/menu-meters/settings"
)

// onceOptions controls runOnceCommand output.
type onceOptions struct {
	Protocol render.Protocol
	Colour   bool
	// Columns caps the frame width in cells. Zero means no cap.
	Columns int
	Health  bool
	// Kinds limits the run to these indicators. Empty means all of them.
	Kinds []indicator.Kind
}

// runOnceCommand ticks the selected indicators once and writes each
// presented frame to w, followed by health JSON when requested. Returns the
// exit code.
func runOnceCommand(ctx context.Context, w io.Writer, m *meters, opts onceOptions) int {
	code := 0
	kinds := opts.Kinds
	var err error
	if len(kinds) == 0 {
		kinds = m.sup.Kinds()
		err = m.sup.Once(ctx)
	} else {
		err = tickOnce(ctx, m.sup, kinds)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tick failed: %v\n", err)
		code = 1
	}

	for _, k := range kinds {
		img, err := m.raster.Frame(k.String())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", k, err)
			code = 1
			continue
		}
		b := img.Bounds()
		cols, rows := b.Dx(), (b.Dy()+1)/2
		if opts.Columns > 0 && cols > opts.Columns {
			rows = max(1, rows*opts.Columns/cols)
			cols = opts.Columns
		}
		out, err := render.Encode(opts.Protocol, img, cols, rows, opts.Colour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", k, err)
			code = 1
			continue
		}
		fmt.Fprintf(w, "%s\n%s\n", k, out)
	}

	if opts.Health {
		if err := writeHealth(w, selectHealth(m.sup.Health(), kinds)); err != nil {
			fmt.Fprintf(os.Stderr, "health: %v\n", err)
			return 1
		}
	}
	return code
}

// tickOnce runs one synchronous tick on each of kinds.
func tickOnce(ctx context.Context, sup *indicator.Supervisor, kinds []indicator.Kind) error {
	var errs []error
	for _, k := range kinds {
		c, ok := sup.Controller(k)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", indicator.ErrUnknownIndicator, k))
			continue
		}
		if err := c.Once(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func selectHealth(reports []indicator.Health, kinds []indicator.Kind) []indicator.Health {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k.String()] = true
	}
	out := reports[:0:0]
	for _, h := range reports {
		if want[h.Indicator] {
			out = append(out, h)
		}
	}
	return out
}

// parseKinds reads a comma-separated list of indicator names such as
// "processor,disk". Duplicates are dropped.
func parseKinds(s string) ([]indicator.Kind, error) {
	var kinds []indicator.Kind
	seen := make(map[indicator.Kind]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, err := indicator.ParseKind(strings.ToLower(name))
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// writeHealth writes the indicator reports as indented JSON.
func writeHealth(w io.Writer, reports []indicator.Health) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal health: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// terminalColumns returns the width of f when it is a terminal, else 0.
func terminalColumns(f *os.File) int {
	if !term.IsTerminal(f.Fd()) {
		return 0
	}
	w, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return w
}

// probe is one line of -probe output.
type probe struct {
	name   string
	sample func(ctx context.Context) (string, error)
}

// runProbeCommand prints one raw sample from every sampler, including the
// top(1) disk I/O counters that no indicator draws. Samplers are not
// wrapped in breakers here so every error is reported as is.
func runProbeCommand(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger) int {
	ind := cfg.Indicators
	processor := sysmetrics.NewProcessorSampler(window(ind.Processor.Interval.Duration), logger)
	memory := sysmetrics.NewMemorySampler(logger)
	network := sysmetrics.NewNetworkSampler(window(ind.Network.Interval.Duration), logger)
	disk := sysmetrics.NewDiskSampler(ind.Disk.Mount, logger)
	diskIO := sysmetrics.NewDiskIOSampler(logger)

	probes := []probe{
		{"processor", func(ctx context.Context) (string, error) {
			s, err := processor.Sample(ctx)
			return fmt.Sprintf("user=%s system=%s", format.Percent(s.User), format.Percent(s.System)), err
		}},
		{"memory", func(ctx context.Context) (string, error) {
			s, err := memory.Sample(ctx)
			return fmt.Sprintf("used=%s free=%s", format.Megabytes(s.Used), format.Megabytes(s.Free)), err
		}},
		{"network", func(ctx context.Context) (string, error) {
			s, err := network.Sample(ctx)
			return fmt.Sprintf("down=%s up=%s",
				format.NetworkRate.Format(format.KilobytesPerSecond(s.Incoming)),
				format.NetworkRate.Format(format.KilobytesPerSecond(s.Outgoing))), err
		}},
		{"disk", func(ctx context.Context) (string, error) {
			s, err := disk.Sample(ctx)
			return fmt.Sprintf("mount=%s total=%s free=%s", ind.Disk.Mount,
				format.DiskSpace.Format(s.Total), format.DiskSpace.Format(s.Free)), err
		}},
		{"disk-io", func(ctx context.Context) (string, error) {
			s, err := diskIO.Sample(ctx)
			return fmt.Sprintf("read=%d written=%d", s.Read, s.Written), err
		}},
	}
	return runProbes(ctx, w, probes)
}

func runProbes(ctx context.Context, w io.Writer, probes []probe) int {
	code := 0
	for _, p := range probes {
		line, err := p.sample(ctx)
		if err != nil {
			// Errors can carry raw tool output, escapes included.
			fmt.Fprintf(w, "%-9s error: %s\n", p.name, displaycolor.StripANSI(err.Error()))
			// Disk I/O counters come from top -l1, which only exists on macOS.
			if p.name != "disk-io" {
				code = 1
			}
			continue
		}
		fmt.Fprintf(w, "%-9s %s\n", p.name, line)
	}
	return code
}

// runKeysCommand lists every settings key with its current value, then any
// key an indicator reads that the file lacks. Returns 1 when keys are missing.
func runKeysCommand(w io.Writer, store *settings.Store) int {
	for _, k := range store.Keys() {
		v, _ := store.Get(k)
		fmt.Fprintf(w, "%s = %s\n", k, v)
	}
	missing := store.Missing(requiredKeys()...)
	for _, k := range missing {
		fmt.Fprintf(w, "%s is missing\n", k)
	}
	if len(missing) > 0 {
		return 1
	}
	return 0
}

// requiredKeys is every settings key read by the four indicators.
func requiredKeys() []string {
	var keys []string
	keys = append(keys, indicator.Processor{}.ColorKeys()...)
	keys = append(keys, indicator.Memory{}.ColorKeys()...)
	keys = append(keys, indicator.Network{}.ColorKeys()...)
	keys = append(keys, indicator.Network{}.StringKeys()...)
	keys = append(keys, indicator.Disk{}.ColorKeys()...)
	keys = append(keys, indicator.Disk{}.StringKeys()...)
	return keys
}

func runGetCommand(stdout, stderr io.Writer, store *settings.Store, key string) int {
	v, err := store.Get(key)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, v)
	return 0
}

func runSetCommand(stderr io.Writer, store *settings.Store, pair string) int {
	key, value, err := parseAssignment(pair)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if err := store.Set(key, value); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

// parseAssignment splits "key=value". The value may itself contain '='.
func parseAssignment(s string) (key, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return key, strings.TrimSpace(value), nil
}
