package sysmetrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// DiskIO holds the cumulative disk operation counters reported by top.
type DiskIO struct {
	Read    int64 `json:"read"`
	Written int64 `json:"written"`
}

// ErrNoDisksLine is returned when top output has no "Disks:" line.
var ErrNoDisksLine = errors.New("sysmetrics: no Disks line in top output")

var (
	disksReadPattern    = regexp.MustCompile(`Disks: \w+\b`)
	disksWrittenPattern = regexp.MustCompile(`read, \w+\b`)
)

// ParseTopDisks extracts the read and written counters from macOS top
// output, e.g. "Disks: 2386327/51G read, 1052839/31G written.".
func ParseTopDisks(out string) (DiskIO, error) {
	var line string
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "Disks:") {
			line = l
			break
		}
	}
	if line == "" {
		return DiskIO{}, ErrNoDisksLine
	}

	read, err := lastNumber(disksReadPattern.FindString(line))
	if err != nil {
		return DiskIO{}, fmt.Errorf("sysmetrics: disks read in %q: %w", line, err)
	}
	written, err := lastNumber(disksWrittenPattern.FindString(line))
	if err != nil {
		return DiskIO{}, fmt.Errorf("sysmetrics: disks written in %q: %w", line, err)
	}
	return DiskIO{Read: read, Written: written}, nil
}

func lastNumber(match string) (int64, error) {
	if match == "" {
		return 0, errors.New("pattern not found")
	}
	fields := strings.Fields(match)
	return strconv.ParseInt(fields[len(fields)-1], 10, 64)
}

// DiskIOSampler runs top once per call and parses its Disks line. It only
// works where top supports "-l1" (macOS).
type DiskIOSampler struct {
	logger *slog.Logger

	// Overridable for testing.
	runTop func(ctx context.Context) ([]byte, error)
}

// NewDiskIOSampler returns a sampler backed by "top -l1".
func NewDiskIOSampler(logger *slog.Logger) *DiskIOSampler {
	return &DiskIOSampler{
		logger: discardLogger(logger),
		runTop: func(ctx context.Context) ([]byte, error) {
			return exec.CommandContext(ctx, "top", "-l1").Output()
		},
	}
}

// Sample runs top and parses the result.
func (d *DiskIOSampler) Sample(ctx context.Context) (DiskIO, error) {
	out, err := d.runTop(ctx)
	if err != nil {
		return DiskIO{}, fmt.Errorf("sysmetrics: run top: %w", err)
	}
	counters, err := ParseTopDisks(string(out))
	if err != nil {
		return DiskIO{}, err
	}
	d.logger.Debug("disk io sampled", "read", counters.Read, "written", counters.Written)
	return counters, nil
}
