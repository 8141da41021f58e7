package layout

import (
	"fmt"
	"strconv"

	"github.com/okian/linotype/internal/domain/model"
)

// seriesMapper projects data coordinates into the plot rectangle.
type seriesMapper struct {
	spec model.ChartSpec
	plot Rect

	xMin, xMax float64
	yMin, yMax float64
}

func newSeriesMapper(spec model.ChartSpec, plot Rect) (*seriesMapper, error) {
	m := &seriesMapper{spec: spec, plot: plot}

	first := true
	for _, s := range spec.Series {
		for _, p := range s.Points {
			if first {
				m.xMin, m.xMax = p.X, p.X
				m.yMin, m.yMax = p.Y, p.Y
				first = false
				continue
			}
			m.xMin = min(m.xMin, p.X)
			m.xMax = max(m.xMax, p.X)
			m.yMin = min(m.yMin, p.Y)
			m.yMax = max(m.yMax, p.Y)
		}
	}
	if first {
		return nil, ErrEmptySpec
	}
	return m, nil
}

// px maps a data x value to pixel space. A degenerate range maps to the
// plot center.
func (m *seriesMapper) px(x float64) float64 {
	if m.xMax == m.xMin {
		return m.plot.X + m.plot.W/2
	}
	return m.plot.X + (x-m.xMin)/(m.xMax-m.xMin)*m.plot.W
}

// py maps a data y value to pixel space; larger values sit higher.
func (m *seriesMapper) py(y float64) float64 {
	if m.yMax == m.yMin {
		return m.plot.Y + m.plot.H/2
	}
	return m.plot.Y + m.plot.H - (y-m.yMin)/(m.yMax-m.yMin)*m.plot.H
}

// paths projects every series. Lines and scatters become point lists;
// bars become boxes rising from the plot floor, with the point list
// carrying each bar's top center for label anchoring.
func (m *seriesMapper) paths() []SeriesPath {
	out := make([]SeriesPath, 0, len(m.spec.Series))
	for si, s := range m.spec.Series {
		sp := SeriesPath{Series: s.Name}
		for _, p := range s.Points {
			sp.Points = append(sp.Points, Point{X: m.px(p.X), Y: m.py(p.Y)})
		}
		if m.spec.Type == model.ChartBar {
			sp.Boxes = m.bars(si, s)
		}
		out = append(out, sp)
	}
	return out
}

// bars computes the grouped bar boxes for one series.
func (m *seriesMapper) bars(seriesIdx int, s model.Series) []Rect {
	nSeries := len(m.spec.Series)
	nPoints := len(s.Points)
	groupW := m.plot.W / float64(nPoints)
	barW := groupW / float64(nSeries+1)

	boxes := make([]Rect, 0, nPoints)
	for _, p := range s.Points {
		center := m.px(p.X)
		x := center - groupW/2 + barW*float64(seriesIdx) + barW/2
		if x < m.plot.X {
			x = m.plot.X
		}
		if x+barW > m.plot.Right() {
			x = m.plot.Right() - barW
		}
		top := m.py(p.Y)
		boxes = append(boxes, Rect{X: x, Y: top, W: barW, H: m.plot.Bottom() - top})
	}
	return boxes
}

// tick is one x-axis tick label and its pixel position.
type tick struct {
	text string
	px   float64
}

// xTicks returns n evenly spaced ticks across the x range.
func (m *seriesMapper) xTicks(n int) []tick {
	if n < 2 || m.xMax == m.xMin {
		return []tick{{text: formatTick(m.xMin), px: m.px(m.xMin)}}
	}
	ticks := make([]tick, 0, n)
	step := (m.xMax - m.xMin) / float64(n-1)
	for i := 0; i < n; i++ {
		v := m.xMin + step*float64(i)
		ticks = append(ticks, tick{text: formatTick(v), px: m.px(v)})
	}
	return ticks
}

func formatTick(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
