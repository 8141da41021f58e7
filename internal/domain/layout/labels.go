package layout

import (
	"fmt"

	"github.com/okian/linotype/internal/domain/model"
	"github.com/okian/linotype/pkg/metrics"
)

// labelDirection is the preferred offset direction of a label.
type labelDirection int

const (
	directionEnd   labelDirection = iota // to the right of the anchor
	directionAbove                       // above the anchor
)

// placeLabels resolves one inline label per series. Every label either
// gets a collision-free box inside the plot zone or a recorded failure;
// labels are never dropped and never left overlapping.
func (e *Engine) placeLabels(spec model.ChartSpec, res *LayoutResult, plot Rect) {
	plotZone := res.ZoneRect(ZonePlotArea)

	var placed []Rect
	for i, s := range spec.Series {
		path := res.Paths[i]
		pl, ok := e.placeOne(s.Name, path, i, res, plotZone, plot, placed)
		if !ok {
			res.Failures = append(res.Failures, PlacementFailure{
				Series: s.Name,
				Reason: fmt.Sprintf("no collision-free placement within %d attempts per anchor", e.nudgeBudget),
			})
			metrics.RecordLayoutError("label_placement_exhausted")
			continue
		}
		placed = append(placed, pl.FinalBox)
		res.Labels = append(res.Labels, pl)
	}
}

// placeOne tries the primary (end-of-line) anchor and then the mid-line
// fallback, nudging away from the x-axis at each collision.
func (e *Engine) placeOne(name string, path SeriesPath, seriesIdx int, res *LayoutResult, plotZone, plot Rect, placed []Rect) (LabelPlacement, bool) {
	last := path.Points[len(path.Points)-1]
	mid := path.Points[len(path.Points)/2]
	dir := e.preferredDirection(last, plot)

	anchors := []struct {
		p        Point
		fallback bool
	}{
		{p: last, fallback: false},
		{p: mid, fallback: true},
	}

	w := textWidth(name, labelFont)
	h := labelFont * lineHeightRatio

	for _, anchor := range anchors {
		box := e.candidateBox(anchor.p, dir, w, h, plotZone)
		nudges := 0
		for ; nudges <= e.nudgeBudget; nudges++ {
			if box.Within(plotZone) && !e.collides(box, seriesIdx, res, placed) {
				if anchor.fallback {
					metrics.RecordLabelFallback()
				}
				if nudges > 0 {
					metrics.RecordLabelNudge()
				}
				return LabelPlacement{
					Series:   name,
					Text:     name,
					Anchor:   anchor.p,
					Offset:   Point{X: box.X - anchor.p.X, Y: box.Y - anchor.p.Y},
					FinalBox: box,
					Nudges:   nudges,
					Fallback: anchor.fallback,
				}, true
			}
			// Nudge upward, never toward the x-axis band below the plot.
			box.Y -= e.nudgeStep
		}
	}
	return LabelPlacement{}, false
}

// preferredDirection picks end-of-line for most series and above-line
// for series whose final value sits near the plot floor, so the label
// cannot drift toward the x-axis boundary.
func (e *Engine) preferredDirection(last Point, plot Rect) labelDirection {
	if last.Y >= plot.Y+plot.H*(1-lowSeriesFraction) {
		return directionAbove
	}
	return directionEnd
}

// candidateBox builds the initial label box for an anchor, clamped
// horizontally into the plot zone.
func (e *Engine) candidateBox(anchor Point, dir labelDirection, w, h float64, plotZone Rect) Rect {
	var box Rect
	switch dir {
	case directionAbove:
		box = Rect{X: anchor.X - w/2, Y: anchor.Y - labelGap - h, W: w, H: h}
	default:
		box = Rect{X: anchor.X + labelGap, Y: anchor.Y - h/2, W: w, H: h}
	}
	if box.Right() > plotZone.Right()-sideMargin/4 {
		box.X = plotZone.Right() - sideMargin/4 - box.W
	}
	if box.X < plotZone.X {
		box.X = plotZone.X
	}
	return box
}

// collides reports whether box hits an already-placed label or a series
// it does not belong to. Overlap with the label's own series is allowed.
func (e *Engine) collides(box Rect, ownIdx int, res *LayoutResult, placed []Rect) bool {
	for _, r := range placed {
		if box.Intersects(r) {
			return true
		}
	}
	for i, p := range res.Paths {
		if i == ownIdx {
			continue
		}
		if res.Type == model.ChartBar {
			for _, b := range p.Boxes {
				if box.Intersects(b) {
					return true
				}
			}
			continue
		}
		if pathIntersectsRect(p.Points, box) {
			return true
		}
	}
	return false
}
