package gate

import (
	"fmt"
	"strings"

	"github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
)

// Visual check name constants, in gate order.
const (
	CheckLayoutIntegrity = "layout-integrity"
	CheckTypography      = "typography"
	CheckStyleCompliance = "style-compliance"
	CheckDataIntegrity   = "data-integrity"
	CheckExportQuality   = "export-quality"
)

// Visual quality thresholds.
const (
	maxLabeledSeries = 6
	minExportWidth   = 960.0
	minExportHeight  = 540.0
	minAspectRatio   = 1.2
	maxAspectRatio   = 2.0
)

// VisualArtifact is what the visual gate inspects: the chart spec and
// the layout computed from it.
type VisualArtifact struct {
	Spec   model.ChartSpec
	Layout *layout.LayoutResult
}

// Visual returns the visual gate with its fixed check order.
func Visual() *Gate {
	return New(VisualGate, []Check{
		{Name: CheckLayoutIntegrity, Run: checkLayoutIntegrity},
		{Name: CheckTypography, Run: checkTypography},
		{Name: CheckStyleCompliance, Run: checkStyleCompliance},
		{Name: CheckDataIntegrity, Run: checkDataIntegrity},
		{Name: CheckExportQuality, Run: checkExportQuality},
	})
}

func visual(artifact any) (VisualArtifact, bool) {
	a, ok := artifact.(VisualArtifact)
	if !ok || a.Layout == nil {
		return VisualArtifact{}, false
	}
	return a, true
}

// checkLayoutIntegrity re-verifies what the layout engine promised: no
// placement failures, no overlapping label boxes, every label inside
// the plot band.
func checkLayoutIntegrity(artifact any) (bool, bool, string) {
	a, ok := visual(artifact)
	if !ok {
		return false, false, "artifact is not a visual artifact"
	}
	if len(a.Layout.Failures) > 0 {
		reasons := make([]string, 0, len(a.Layout.Failures))
		for _, f := range a.Layout.Failures {
			reasons = append(reasons, fmt.Sprintf("%s: %s", f.Series, f.Reason))
		}
		return false, false, "label placement failed: " + strings.Join(reasons, "; ")
	}
	plotZone := a.Layout.ZoneRect(layout.ZonePlotArea)
	for i, l := range a.Layout.Labels {
		if !l.FinalBox.Within(plotZone) {
			return false, false, fmt.Sprintf("label %q sits outside the plot area", l.Series)
		}
		for _, other := range a.Layout.Labels[i+1:] {
			if l.FinalBox.Intersects(other.FinalBox) {
				return false, false, fmt.Sprintf("labels %q and %q overlap", l.Series, other.Series)
			}
		}
	}
	return true, false, fmt.Sprintf("%d labels placed collision-free", len(a.Layout.Labels))
}

// checkTypography verifies the fitted fonts stayed inside their bounds
// and the hierarchy reads title over subtitle over source.
func checkTypography(artifact any) (bool, bool, string) {
	a, ok := visual(artifact)
	if !ok {
		return false, false, "artifact is not a visual artifact"
	}
	t := a.Layout.Title.Font
	if t < layout.TitleMinFont || t > layout.TitleMaxFont {
		return false, false, fmt.Sprintf("title font %.0f outside [%.0f, %.0f]", t, layout.TitleMinFont, layout.TitleMaxFont)
	}
	if a.Layout.Subtitle.Text != "" {
		s := a.Layout.Subtitle.Font
		if s < layout.SubtitleMinFont || s > layout.SubtitleMaxFont {
			return false, false, fmt.Sprintf("subtitle font %.0f outside [%.0f, %.0f]", s, layout.SubtitleMinFont, layout.SubtitleMaxFont)
		}
		if s >= t {
			return false, false, "subtitle font is not smaller than the title font"
		}
	}
	return true, false, "typography within bounds"
}

// checkStyleCompliance enforces house chart style: bounded series count,
// an attributed source line, no shouting title.
func checkStyleCompliance(artifact any) (bool, bool, string) {
	a, ok := visual(artifact)
	if !ok {
		return false, false, "artifact is not a visual artifact"
	}
	if n := len(a.Spec.Series); n > maxLabeledSeries {
		return false, false, fmt.Sprintf("%d series exceed the house maximum of %d", n, maxLabeledSeries)
	}
	if !strings.HasPrefix(a.Spec.SourceLine, "Source:") {
		return false, false, "source line must start with \"Source:\""
	}
	if a.Spec.Title == strings.ToUpper(a.Spec.Title) && strings.ContainsAny(a.Spec.Title, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return false, false, "title is fully upper-cased"
	}
	return true, false, "chart style within house rules"
}

// checkDataIntegrity verifies every spec point survived the projection.
func checkDataIntegrity(artifact any) (bool, bool, string) {
	a, ok := visual(artifact)
	if !ok {
		return false, false, "artifact is not a visual artifact"
	}
	if len(a.Layout.Paths) != len(a.Spec.Series) {
		return false, false, fmt.Sprintf("layout has %d paths for %d series", len(a.Layout.Paths), len(a.Spec.Series))
	}
	for i, s := range a.Spec.Series {
		got := len(a.Layout.Paths[i].Points)
		if a.Spec.Type == model.ChartBar {
			got = len(a.Layout.Paths[i].Boxes)
		}
		if got != len(s.Points) {
			return false, false, fmt.Sprintf("series %q lost points in projection: %d of %d", s.Name, got, len(s.Points))
		}
	}
	return true, false, "all data points survived projection"
}

// checkExportQuality verifies the canvas is big enough to publish.
func checkExportQuality(artifact any) (bool, bool, string) {
	a, ok := visual(artifact)
	if !ok {
		return false, false, "artifact is not a visual artifact"
	}
	w, h := a.Layout.Width, a.Layout.Height
	if w < minExportWidth || h < minExportHeight {
		return false, false, fmt.Sprintf("canvas %.0fx%.0f below the %.0fx%.0f export minimum", w, h, minExportWidth, minExportHeight)
	}
	ratio := w / h
	if ratio < minAspectRatio || ratio > maxAspectRatio {
		return false, false, fmt.Sprintf("aspect ratio %.2f outside [%.1f, %.1f]", ratio, minAspectRatio, maxAspectRatio)
	}
	return true, false, fmt.Sprintf("canvas %.0fx%.0f suitable for export", w, h)
}
