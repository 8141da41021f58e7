// Package render turns a computed chart layout into an SVG document.
// Rendering is a pure function of the layout: it draws exactly the
// boxes and paths the engine resolved and does no positioning of its
// own.
package render

import (
	"fmt"
	"strings"

	"github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
)

// House palette, cycled per series.
var palette = []string{ //nolint:gochecknoglobals // fixed palette
	"#17648d",
	"#e3120b",
	"#66a0b2",
	"#7a2713",
	"#8aa8b2",
	"#333333",
}

const (
	backgroundColor = "#f3f1ea"
	redBarColor     = "#e3120b"
	textColor       = "#0c0c0c"
	mutedTextColor  = "#595959"
	fontFamily      = "Georgia, serif"

	lineStrokeWidth = 2.5
	scatterRadius   = 3.5
)

// seriesColor returns the palette color for a series index.
func seriesColor(i int) string {
	return palette[i%len(palette)]
}

// SVG renders the layout into a standalone SVG document.
func SVG(res *layout.LayoutResult) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		res.Width, res.Height, res.Width, res.Height)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="%.0f" height="%.0f" fill="%s"/>`+"\n", res.Width, res.Height, backgroundColor)
	fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		res.RedBar.X, res.RedBar.Y, res.RedBar.W, res.RedBar.H, redBarColor)

	writeText(&b, res.Title, textColor, "bold")
	if res.Subtitle.Text != "" {
		writeText(&b, res.Subtitle, mutedTextColor, "normal")
	}

	for i, p := range res.Paths {
		color := seriesColor(i)
		switch res.Type {
		case model.ChartBar:
			for _, box := range p.Boxes {
				fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
					box.X, box.Y, box.W, box.H, color)
			}
		case model.ChartScatter:
			for _, pt := range p.Points {
				fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
					pt.X, pt.Y, scatterRadius, color)
			}
		default:
			fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="%.1f"/>`+"\n",
				polylinePoints(p.Points), color, lineStrokeWidth)
		}
	}

	for i, l := range res.Labels {
		colorIdx := seriesIndex(res, l.Series)
		if colorIdx < 0 {
			colorIdx = i
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-family="%s" font-size="%.0f" fill="%s">%s</text>`+"\n",
			l.FinalBox.X, l.FinalBox.Bottom()-3, fontFamily, l.FinalBox.H/1.25, seriesColor(colorIdx), escape(l.Text))
	}

	for _, a := range res.AxisLabels {
		writeText(&b, a, mutedTextColor, "normal")
	}
	writeText(&b, res.Source, mutedTextColor, "normal")

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func writeText(b *strings.Builder, t layout.TextBox, color, weight string) {
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-family="%s" font-size="%.0f" font-weight="%s" fill="%s">%s</text>`+"\n",
		t.Box.X, t.Box.Bottom()-3, fontFamily, t.Font, weight, color, escape(t.Text))
}

func polylinePoints(pts []layout.Point) string {
	parts := make([]string, 0, len(pts))
	for _, p := range pts {
		parts = append(parts, fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
	}
	return strings.Join(parts, " ")
}

func seriesIndex(res *layout.LayoutResult, name string) int {
	for i, p := range res.Paths {
		if p.Series == name {
			return i
		}
	}
	return -1
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
