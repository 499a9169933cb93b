package indicator

import (
	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
)

// Palette keys read by Processor.
const (
	ProcessorSystemGraphColor = "processorSystemUsedGraphColor"
	ProcessorUserGraphColor   = "processorUserUsedGraphColor"
	ProcessorLowTextColor     = "processorLowUsedPercentTextColor"
	ProcessorHighTextColor    = "processorHighUsedPercentTextColor"
)

// processorThreshold is the total usage above which the percentage switches
// to the high colour and moves off the top edge.
const processorThreshold = 50

// Processor draws stacked system/user CPU columns and the total usage.
type Processor struct{}

var _ Indicator[ProcessorSample] = Processor{}

// Kind implements Indicator.
func (Processor) Kind() Kind { return KindProcessor }

// ColorKeys implements Indicator.
func (Processor) ColorKeys() []string {
	return []string{ProcessorSystemGraphColor, ProcessorUserGraphColor, ProcessorLowTextColor, ProcessorHighTextColor}
}

// StringKeys implements Indicator.
func (Processor) StringKeys() []string { return nil }

// Draw implements Indicator. Each column holds the system share at the
// bottom with the user share stacked on top; empty shares are not drawn.
func (Processor) Draw(f Frame[ProcessorSample]) []canvas.Command {
	h := f.Height
	cmds := make([]canvas.Command, 0, 2*len(f.History)+1)

	for i, s := range f.History {
		x := float64(i)
		system := clampPercent(s.System) / 100 * h
		user := clampPercent(s.User) / 100 * h
		if system+user > h {
			user = h - system
		}
		if system > 0 {
			cmds = append(cmds, rect(x, h-system, 1, system, f.Palette.Color(ProcessorSystemGraphColor)))
		}
		if user > 0 {
			cmds = append(cmds, rect(x, h-system-user, 1, user, f.Palette.Color(ProcessorUserGraphColor)))
		}
	}

	total := f.Latest.Total()
	color, y := f.Palette.Color(ProcessorLowTextColor), -2.0
	if total > processorThreshold {
		color, y = f.Palette.Color(ProcessorHighTextColor), h/4+2
	}
	cmds = append(cmds, text(format.Percent(total), 2, y, 12, color, f.Width, h))

	return cmds
}
