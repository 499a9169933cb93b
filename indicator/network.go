package indicator

import (
	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
)

// Settings keys read by Network.
const (
	NetworkDownloadTextColor = "networkDownloadTextColor"
	NetworkUploadTextColor   = "networkUploadTextColor"
	NetworkRateUnit          = "networkRateUnit"
	NetworkRateNextUnit      = "networkRateNextUnit"
)

// Network prints the current download and upload rates on two lines.
type Network struct{}

var _ Indicator[NetworkSample] = Network{}

// Kind implements Indicator.
func (Network) Kind() Kind { return KindNetwork }

// ColorKeys implements Indicator.
func (Network) ColorKeys() []string {
	return []string{NetworkDownloadTextColor, NetworkUploadTextColor}
}

// StringKeys implements Indicator.
func (Network) StringKeys() []string {
	return []string{NetworkRateUnit, NetworkRateNextUnit}
}

// Draw implements Indicator. Only the latest sample is shown.
func (Network) Draw(f Frame[NetworkSample]) []canvas.Command {
	h := f.Height
	scale := format.NetworkRate.WithUnits(f.Palette.String(NetworkRateUnit), f.Palette.String(NetworkRateNextUnit))

	in := "⇣" + scale.Format(format.KilobytesPerSecond(f.Latest.Incoming))
	out := "⇡" + scale.Format(format.KilobytesPerSecond(f.Latest.Outgoing))

	return []canvas.Command{
		text(in, 0, -2, 11, f.Palette.Color(NetworkDownloadTextColor), f.Width, h),
		text(out, 0, h/2-2, 11, f.Palette.Color(NetworkUploadTextColor), f.Width, h),
	}
}
