package indicator

import (
	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
)

// Palette keys read by Memory.
const (
	MemoryUsedGraphColor = "memoryUsedGraphColor"
	MemoryFreeGraphColor = "memoryFreeGraphColor"
	MemoryFreeTextColor  = "memoryFreeTextColor"
	MemoryLowTextColor   = "memoryLowUsedPercentTextColor"
	MemoryHighTextColor  = "memoryHighUsedPercentTextColor"
)

const memoryThreshold = 50

// Memory draws used memory at the bottom of each column with free memory
// stacked above it, plus free megabytes and the used percentage.
type Memory struct{}

var _ Indicator[MemorySample] = Memory{}

// Kind implements Indicator.
func (Memory) Kind() Kind { return KindMemory }

// ColorKeys implements Indicator.
func (Memory) ColorKeys() []string {
	return []string{MemoryUsedGraphColor, MemoryFreeGraphColor, MemoryFreeTextColor, MemoryLowTextColor, MemoryHighTextColor}
}

// StringKeys implements Indicator.
func (Memory) StringKeys() []string { return nil }

// Draw implements Indicator.
func (Memory) Draw(f Frame[MemorySample]) []canvas.Command {
	h := f.Height
	cmds := make([]canvas.Command, 0, 2*len(f.History)+2)

	for i, s := range f.History {
		total := s.Total()
		if total <= 0 {
			continue
		}
		x := float64(i)
		used := h * s.Used / total
		free := h * s.Free / total
		if used > 0 {
			cmds = append(cmds, rect(x, h-used, 1, used, f.Palette.Color(MemoryUsedGraphColor)))
		}
		if free > 0 {
			cmds = append(cmds, rect(x, h-used-free, 1, free, f.Palette.Color(MemoryFreeGraphColor)))
		}
	}

	cmds = append(cmds, text(format.Megabytes(f.Latest.Free), 2, -2, 10, f.Palette.Color(MemoryFreeTextColor), f.Width, h))

	percent := f.Latest.UsedPercent()
	color, y := f.Palette.Color(MemoryLowTextColor), h/3-2
	if percent > memoryThreshold {
		color, y = f.Palette.Color(MemoryHighTextColor), h/2
	}
	cmds = append(cmds, text(format.Percent(percent), 2, y, 13, color, f.Width, h))

	return cmds
}
