// Package layout computes pixel positions for every visual element of a
// chart inside five fixed vertical zones, and resolves inline-label
// collisions.
//
// Conventions:
// - The engine is stateless per call; nothing is retained between charts.
// - A coordinate outside its zone is a hard error, never a warning.
// - A label is placed collision-free or its failure is recorded; it is
//   never dropped silently.
package layout

import (
	"fmt"

	"github.com/okian/linotype/internal/domain/model"
	"github.com/okian/linotype/pkg/metrics"
)

// Default canvas and typography constants.
const (
	defaultCanvasWidth  = 1280.0
	defaultCanvasHeight = 720.0

	titleMaxFont    = 28.0
	titleMinFont    = 18.0
	subtitleMaxFont = 16.0
	subtitleMinFont = 12.0
	labelFont       = 13.0
	axisFont        = 12.0
	sourceFont      = 11.0

	// charWidthRatio approximates glyph width as a fraction of font size.
	charWidthRatio  = 0.55
	lineHeightRatio = 1.25

	sideMargin     = 24.0
	plotLeftInset  = 48.0
	plotRightInset = 96.0
	redBarWidth    = 56.0

	defaultNudgeStep   = 8.0
	defaultNudgeBudget = 8
	labelGap           = 6.0

	axisTickCount = 3

	// lowSeriesFraction marks a series as "low" when its final value sits
	// in the bottom quarter of the plotted value range; such labels are
	// offset above the line to stay clear of the axis boundary.
	lowSeriesFraction = 0.25
)

// Exported typography bounds for downstream validation.
const (
	TitleMaxFont    = titleMaxFont
	TitleMinFont    = titleMinFont
	SubtitleMaxFont = subtitleMaxFont
	SubtitleMinFont = subtitleMinFont
)

// DefaultNudgeStep is the pixel distance of one label nudge attempt;
// callers tuning the attempt budget pass it to WithNudgeBudget.
const DefaultNudgeStep = defaultNudgeStep

// Engine computes chart layouts.
type Engine struct {
	width  float64
	height float64
	zones  []Zone

	nudgeStep   float64
	nudgeBudget int
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCanvasSize sets the pixel canvas size.
func WithCanvasSize(width, height float64) Option {
	return func(e *Engine) {
		if width > 0 && height > 0 {
			e.width = width
			e.height = height
		}
	}
}

// WithZones overrides the default band boundaries.
func WithZones(zones []Zone) Option {
	return func(e *Engine) {
		if len(zones) > 0 {
			e.zones = zones
		}
	}
}

// WithNudgeBudget bounds label collision nudging: step is the pixel
// distance per attempt, budget the number of attempts per anchor.
func WithNudgeBudget(step float64, budget int) Option {
	return func(e *Engine) {
		if step > 0 {
			e.nudgeStep = step
		}
		if budget > 0 {
			e.nudgeBudget = budget
		}
	}
}

// NewEngine creates a layout engine, validating the zone set once.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		width:       defaultCanvasWidth,
		height:      defaultCanvasHeight,
		zones:       DefaultZones(),
		nudgeStep:   defaultNudgeStep,
		nudgeBudget: defaultNudgeBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := validateZones(e.zones); err != nil {
		return nil, err
	}
	return e, nil
}

// TextBox is a measured piece of text with its final position.
type TextBox struct {
	Text string  `json:"text"`
	Font float64 `json:"font"`
	Box  Rect    `json:"box"`
}

// LabelPlacement is the resolved position of one series' inline label.
type LabelPlacement struct {
	Series   string `json:"series"`
	Text     string `json:"text"`
	Anchor   Point  `json:"anchor"`
	Offset   Point  `json:"offset"`
	FinalBox Rect   `json:"final_box"`

	// Nudges counts collision nudges applied; Fallback marks placements
	// that moved to the secondary (mid-line) anchor.
	Nudges   int  `json:"nudges"`
	Fallback bool `json:"fallback"`
}

// PlacementFailure records a series whose label could not be placed
// collision-free within the attempt budget.
type PlacementFailure struct {
	Series string `json:"series"`
	Reason string `json:"reason"`
}

// SeriesPath is a series mapped to pixel space. Lines and scatters use
// Points; bars use Boxes.
type SeriesPath struct {
	Series string  `json:"series"`
	Points []Point `json:"points,omitempty"`
	Boxes  []Rect  `json:"boxes,omitempty"`
}

// LayoutResult is the full computed layout for one chart.
type LayoutResult struct {
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Type   model.ChartType `json:"type"`
	Zones  []Zone          `json:"zones"`

	RedBar   Rect       `json:"red_bar"`
	Title    TextBox    `json:"title"`
	Subtitle TextBox    `json:"subtitle"`

	Paths      []SeriesPath       `json:"paths"`
	Labels     []LabelPlacement   `json:"labels"`
	Failures   []PlacementFailure `json:"failures,omitempty"`
	AxisLabels []TextBox          `json:"axis_labels"`
	Source     TextBox            `json:"source"`
}

// ZoneRect returns the pixel rectangle of the named band.
func (r *LayoutResult) ZoneRect(name ZoneName) Rect {
	for _, z := range r.Zones {
		if z.Name == name {
			return zoneRect(z, r.Width, r.Height)
		}
	}
	return Rect{}
}

// Layout computes the layout for spec. The returned result may carry
// placement failures; those are data for the visual gate, not errors.
// Errors are reserved for invalid specs, title overflow at the floor
// font and zone violations.
func (e *Engine) Layout(spec model.ChartSpec) (*LayoutResult, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	res := &LayoutResult{
		Width:  e.width,
		Height: e.height,
		Type:   spec.Type,
		Zones:  append([]Zone(nil), e.zones...),
	}

	redBarZone := res.ZoneRect(ZoneRedBar)
	res.RedBar = Rect{X: 0, Y: redBarZone.Y, W: redBarWidth, H: redBarZone.H}

	if err := e.placeTitle(spec, res); err != nil {
		metrics.RecordLayoutError("title_overflow")
		return nil, err
	}

	plotRect := e.plotRect(res)
	mapper, err := newSeriesMapper(spec, plotRect)
	if err != nil {
		return nil, err
	}
	res.Paths = mapper.paths()

	e.placeLabels(spec, res, plotRect)
	e.placeAxisLabels(res, mapper)
	e.placeSource(spec, res)

	if err := e.verifyZones(res); err != nil {
		metrics.RecordLayoutError("zone_violation")
		return nil, err
	}
	return res, nil
}

func validateSpec(spec model.ChartSpec) error {
	switch spec.Type {
	case model.ChartLine, model.ChartBar, model.ChartScatter:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, spec.Type)
	}
	if len(spec.Series) == 0 {
		return ErrEmptySpec
	}
	for _, s := range spec.Series {
		if len(s.Points) == 0 {
			return fmt.Errorf("%w: series %q has no points", ErrEmptySpec, s.Name)
		}
	}
	if spec.Title == "" {
		return fmt.Errorf("%w: title is required", ErrEmptySpec)
	}
	return nil
}

// textWidth approximates the rendered width of text at a font size.
func textWidth(text string, font float64) float64 {
	return float64(len([]rune(text))) * font * charWidthRatio
}

// fitText steps the font down from maxFont to minFont until text fits
// maxWidth; ok is false when even the floor font overflows.
func fitText(text string, maxWidth, maxFont, minFont float64) (font float64, ok bool) {
	for f := maxFont; f >= minFont; f-- {
		if textWidth(text, f) <= maxWidth {
			return f, true
		}
	}
	return minFont, false
}

// placeTitle fits title and subtitle into the Title zone. Text is never
// shrunk below the floor font; overflow there is a hard error.
func (e *Engine) placeTitle(spec model.ChartSpec, res *LayoutResult) error {
	zone := res.ZoneRect(ZoneTitle)
	avail := zone.W - 2*sideMargin

	font, ok := fitText(spec.Title, avail, titleMaxFont, titleMinFont)
	if !ok {
		return fmt.Errorf("%w: %q needs %.0fpx, zone offers %.0fpx",
			ErrTitleOverflow, spec.Title, textWidth(spec.Title, titleMinFont), avail)
	}
	res.Title = TextBox{
		Text: spec.Title,
		Font: font,
		Box:  Rect{X: sideMargin, Y: zone.Y, W: textWidth(spec.Title, font), H: font * lineHeightRatio},
	}

	if spec.Subtitle == "" {
		return nil
	}
	subFont, ok := fitText(spec.Subtitle, avail, subtitleMaxFont, subtitleMinFont)
	if !ok {
		return fmt.Errorf("%w: subtitle %q does not fit", ErrTitleOverflow, spec.Subtitle)
	}
	subTop := res.Title.Box.Bottom()
	subH := subFont * lineHeightRatio
	if subTop+subH > zone.Bottom() {
		return fmt.Errorf("%w: subtitle exceeds the title zone", ErrTitleOverflow)
	}
	res.Subtitle = TextBox{
		Text: spec.Subtitle,
		Font: subFont,
		Box:  Rect{X: sideMargin, Y: subTop, W: textWidth(spec.Subtitle, subFont), H: subH},
	}
	return nil
}

// plotRect insets the PlotArea zone to leave room for the y scale on
// the left and inline labels on the right.
func (e *Engine) plotRect(res *LayoutResult) Rect {
	zone := res.ZoneRect(ZonePlotArea)
	return Rect{
		X: zone.X + plotLeftInset,
		Y: zone.Y + labelFont,
		W: zone.W - plotLeftInset - plotRightInset,
		H: zone.H - 2*labelFont,
	}
}

// placeAxisLabels puts tick labels for the x range inside the XAxis zone.
func (e *Engine) placeAxisLabels(res *LayoutResult, m *seriesMapper) {
	zone := res.ZoneRect(ZoneXAxis)
	ticks := m.xTicks(axisTickCount)
	for _, t := range ticks {
		w := textWidth(t.text, axisFont)
		x := t.px - w/2
		if x < zone.X {
			x = zone.X
		}
		if x+w > zone.Right() {
			x = zone.Right() - w
		}
		res.AxisLabels = append(res.AxisLabels, TextBox{
			Text: t.text,
			Font: axisFont,
			Box:  Rect{X: x, Y: zone.Y + 4, W: w, H: axisFont * lineHeightRatio},
		})
	}
}

// placeSource puts the attribution line inside the Source zone.
func (e *Engine) placeSource(spec model.ChartSpec, res *LayoutResult) {
	zone := res.ZoneRect(ZoneSource)
	text := spec.SourceLine
	if text == "" {
		text = "Source: not stated"
	}
	res.Source = TextBox{
		Text: text,
		Font: sourceFont,
		Box:  Rect{X: sideMargin, Y: zone.Y + 4, W: textWidth(text, sourceFont), H: sourceFont * lineHeightRatio},
	}
}

// verifyZones asserts every placed element sits inside its band. A
// violation here is a bug in placement, surfaced hard rather than
// published.
func (e *Engine) verifyZones(res *LayoutResult) error {
	titleZone := res.ZoneRect(ZoneTitle)
	plotZone := res.ZoneRect(ZonePlotArea)
	axisZone := res.ZoneRect(ZoneXAxis)
	sourceZone := res.ZoneRect(ZoneSource)
	redBarZone := res.ZoneRect(ZoneRedBar)

	if !res.RedBar.Within(redBarZone) {
		return fmt.Errorf("%w: red bar outside its band", ErrZoneViolation)
	}
	if !res.Title.Box.Within(titleZone) {
		return fmt.Errorf("%w: title outside the title zone", ErrZoneViolation)
	}
	if res.Subtitle.Text != "" && !res.Subtitle.Box.Within(titleZone) {
		return fmt.Errorf("%w: subtitle outside the title zone", ErrZoneViolation)
	}
	for _, p := range res.Paths {
		for _, pt := range p.Points {
			if !plotZone.Contains(pt) {
				return fmt.Errorf("%w: series %q plotted outside the plot area", ErrZoneViolation, p.Series)
			}
		}
		for _, b := range p.Boxes {
			if !b.Within(plotZone) {
				return fmt.Errorf("%w: series %q bar outside the plot area", ErrZoneViolation, p.Series)
			}
		}
	}
	for _, l := range res.Labels {
		if !l.FinalBox.Within(plotZone) {
			return fmt.Errorf("%w: label %q outside the plot area", ErrZoneViolation, l.Series)
		}
	}
	for _, a := range res.AxisLabels {
		if !a.Box.Within(axisZone) {
			return fmt.Errorf("%w: axis label %q outside the x-axis zone", ErrZoneViolation, a.Text)
		}
	}
	if !res.Source.Box.Within(sourceZone) {
		return fmt.Errorf("%w: source line outside the source zone", ErrZoneViolation)
	}
	return nil
}
