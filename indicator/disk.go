package indicator

import (
	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
	"gitlab.com/tinyland/lab/menu-meters/internal/format"
)

// Settings keys read by Disk.
const (
	DiskTotalTextColor = "diskTotalTextColor"
	DiskFreeTextColor  = "diskFreeTextColor"
	DiskSpaceUnit      = "diskSpaceUnit"
	DiskSpaceNextUnit  = "diskSpaceNextUnit"
)

// Disk prints total and free space of the watched volume.
type Disk struct{}

var _ Indicator[DiskSample] = Disk{}

// Kind implements Indicator.
func (Disk) Kind() Kind { return KindDisk }

// ColorKeys implements Indicator.
func (Disk) ColorKeys() []string {
	return []string{DiskTotalTextColor, DiskFreeTextColor}
}

// StringKeys implements Indicator.
func (Disk) StringKeys() []string {
	return []string{DiskSpaceUnit, DiskSpaceNextUnit}
}

// Draw implements Indicator. Total and free are scaled independently, so a
// 2TB volume with 300GB free prints "T 2.0TB" over "F 300GB".
func (Disk) Draw(f Frame[DiskSample]) []canvas.Command {
	h := f.Height
	scale := format.DiskSpace.WithUnits(f.Palette.String(DiskSpaceUnit), f.Palette.String(DiskSpaceNextUnit))

	return []canvas.Command{
		text("T "+scale.Format(f.Latest.Total), 0, -2, 10, f.Palette.Color(DiskTotalTextColor), f.Width, h),
		text("F "+scale.Format(f.Latest.Free), 0, h/2-2, 10, f.Palette.Color(DiskFreeTextColor), f.Width, h),
	}
}
