package layout

import "fmt"

// ZoneName identifies one of the five fixed vertical bands of the canvas.
type ZoneName string

const (
	ZoneRedBar   ZoneName = "RedBar"
	ZoneTitle    ZoneName = "Title"
	ZonePlotArea ZoneName = "PlotArea"
	ZoneXAxis    ZoneName = "XAxis"
	ZoneSource   ZoneName = "Source"
)

// Zone is a vertical band expressed as fractions of canvas height:
// [YMin, YMax).
type Zone struct {
	Name ZoneName `json:"name"`
	YMin float64  `json:"y_min"`
	YMax float64  `json:"y_max"`
}

// zoneOrder is the fixed top-to-bottom order of the bands.
var zoneOrder = []ZoneName{ZoneRedBar, ZoneTitle, ZonePlotArea, ZoneXAxis, ZoneSource} //nolint:gochecknoglobals // fixed band order

// DefaultZones returns the standard band boundaries.
func DefaultZones() []Zone {
	return []Zone{
		{Name: ZoneRedBar, YMin: 0.00, YMax: 0.03},
		{Name: ZoneTitle, YMin: 0.03, YMax: 0.15},
		{Name: ZonePlotArea, YMin: 0.15, YMax: 0.78},
		{Name: ZoneXAxis, YMin: 0.78, YMax: 0.88},
		{Name: ZoneSource, YMin: 0.88, YMax: 1.00},
	}
}

// validateZones checks that all five bands are present in order, do not
// overlap, and stay within the unit canvas.
func validateZones(zones []Zone) error {
	if len(zones) != len(zoneOrder) {
		return fmt.Errorf("%w: want %d zones, got %d", ErrInvalidZones, len(zoneOrder), len(zones))
	}
	prevMax := 0.0
	for i, z := range zones {
		if z.Name != zoneOrder[i] {
			return fmt.Errorf("%w: zone %d is %q, want %q", ErrInvalidZones, i, z.Name, zoneOrder[i])
		}
		if z.YMin >= z.YMax {
			return fmt.Errorf("%w: zone %q has empty range [%.3f, %.3f)", ErrInvalidZones, z.Name, z.YMin, z.YMax)
		}
		if z.YMin < prevMax {
			return fmt.Errorf("%w: zone %q overlaps previous band", ErrInvalidZones, z.Name)
		}
		prevMax = z.YMax
	}
	if prevMax > 1.0 {
		return fmt.Errorf("%w: zones exceed canvas height", ErrInvalidZones)
	}
	return nil
}

// zoneRect converts a band into a pixel rectangle spanning the full
// canvas width.
func zoneRect(z Zone, width, height float64) Rect {
	return Rect{X: 0, Y: z.YMin * height, W: width, H: (z.YMax - z.YMin) * height}
}
