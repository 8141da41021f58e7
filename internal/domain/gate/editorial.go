package gate

import (
	"fmt"
	"regexp"
	"strings"
)

// Editorial check name constants, in gate order.
const (
	CheckOpeningStrength  = "opening-strength"
	CheckEvidenceSourcing = "evidence-sourcing"
	CheckVoiceCompliance  = "voice-compliance"
	CheckStructuralFlow   = "structural-flow"
	CheckChartIntegration = "chart-integration"
)

// Editorial heuristics thresholds.
const (
	openingMinWords   = 25
	openingMaxWords   = 150
	minEvidenceMarks  = 3
	minParagraphs     = 3
	maxParagraphWords = 250
)

// EditorialArtifact is what the editorial gate inspects.
type EditorialArtifact struct {
	Draft    string
	ChartRef string
}

var numberPattern = regexp.MustCompile(`\d`)

// bannedPhrases flag drafts that drift out of house voice.
var bannedPhrases = []string{ //nolint:gochecknoglobals // fixed style list
	"in conclusion",
	"very unique",
	"game-changer",
	"it goes without saying",
}

// Editorial returns the editorial gate with its fixed check order.
func Editorial() *Gate {
	return New(EditorialGate, []Check{
		{Name: CheckOpeningStrength, Run: checkOpeningStrength},
		{Name: CheckEvidenceSourcing, Run: checkEvidenceSourcing},
		{Name: CheckVoiceCompliance, Run: checkVoiceCompliance},
		{Name: CheckStructuralFlow, Run: checkStructuralFlow},
		{Name: CheckChartIntegration, Run: checkChartIntegration},
	})
}

func editorial(artifact any) (EditorialArtifact, bool) {
	a, ok := artifact.(EditorialArtifact)
	return a, ok
}

func paragraphs(draft string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(draft, "\r\n", "\n"), "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// checkOpeningStrength wants a substantial but bounded first paragraph.
func checkOpeningStrength(artifact any) (bool, bool, string) {
	a, ok := editorial(artifact)
	if !ok {
		return false, false, "artifact is not an editorial artifact"
	}
	paras := paragraphs(a.Draft)
	if len(paras) == 0 {
		return false, false, "draft is empty"
	}
	words := wordCount(paras[0])
	if words < openingMinWords {
		return false, false, fmt.Sprintf("opening paragraph has %d words, below the %d-word floor", words, openingMinWords)
	}
	if words > openingMaxWords {
		return false, false, fmt.Sprintf("opening paragraph has %d words, above the %d-word ceiling", words, openingMaxWords)
	}
	return true, false, fmt.Sprintf("opening paragraph has %d words", words)
}

// checkEvidenceSourcing wants the draft anchored in figures or named
// sources rather than assertion.
func checkEvidenceSourcing(artifact any) (bool, bool, string) {
	a, ok := editorial(artifact)
	if !ok {
		return false, false, "artifact is not an editorial artifact"
	}
	marks := len(numberPattern.FindAllString(a.Draft, -1))
	marks += strings.Count(strings.ToLower(a.Draft), "according to")
	if marks < minEvidenceMarks {
		return false, false, fmt.Sprintf("found %d evidence markers, need at least %d", marks, minEvidenceMarks)
	}
	return true, false, fmt.Sprintf("found %d evidence markers", marks)
}

// checkVoiceCompliance rejects exclamation marks and a short list of
// banned phrases.
func checkVoiceCompliance(artifact any) (bool, bool, string) {
	a, ok := editorial(artifact)
	if !ok {
		return false, false, "artifact is not an editorial artifact"
	}
	if strings.Contains(a.Draft, "!") {
		return false, false, "draft contains an exclamation mark"
	}
	lower := strings.ToLower(a.Draft)
	for _, phrase := range bannedPhrases {
		if strings.Contains(lower, phrase) {
			return false, false, fmt.Sprintf("draft contains banned phrase %q", phrase)
		}
	}
	return true, false, "no voice violations found"
}

// checkStructuralFlow wants several paragraphs of bounded length.
func checkStructuralFlow(artifact any) (bool, bool, string) {
	a, ok := editorial(artifact)
	if !ok {
		return false, false, "artifact is not an editorial artifact"
	}
	paras := paragraphs(a.Draft)
	if len(paras) < minParagraphs {
		return false, false, fmt.Sprintf("draft has %d paragraphs, need at least %d", len(paras), minParagraphs)
	}
	for i, p := range paras {
		if wc := wordCount(p); wc > maxParagraphWords {
			return false, false, fmt.Sprintf("paragraph %d has %d words, above the %d-word ceiling", i+1, wc, maxParagraphWords)
		}
	}
	return true, false, fmt.Sprintf("draft has %d well-sized paragraphs", len(paras))
}

// checkChartIntegration is NA when the article has no chart; otherwise
// the body must reference the chart artifact.
func checkChartIntegration(artifact any) (bool, bool, string) {
	a, ok := editorial(artifact)
	if !ok {
		return false, false, "artifact is not an editorial artifact"
	}
	if a.ChartRef == "" {
		return false, true, "article has no chart"
	}
	if !strings.Contains(a.Draft, a.ChartRef) {
		return false, false, fmt.Sprintf("draft does not reference chart artifact %q", a.ChartRef)
	}
	return true, false, "draft references the chart artifact"
}
