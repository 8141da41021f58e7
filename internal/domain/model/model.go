// Package model contains domain models passed between pipeline layers.
package model

import (
	"time"
)

// Topic is a candidate subject produced by the Discover stage. It is
// immutable once created; the consensus selector only reads it.
type Topic struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Vote is a single voter's score for a topic. Scores are integers in
// [0, 10]; anything outside that range is rejected at validation, never
// clamped.
type Vote struct {
	VoterID string `json:"voter_id"`
	TopicID string `json:"topic_id"`
	Score   int    `json:"score"`
}

// VoterSpec identifies one consensus voter. Weight defaults to 1 when
// unset; Persona is the prompt fragment handed to the oracle.
type VoterSpec struct {
	ID      string  `yaml:"id" json:"id"`
	Weight  float64 `yaml:"weight" json:"weight"`
	Persona string  `yaml:"persona" json:"persona"`
}

// ConsensusResult is the derived outcome of topic selection. It is never
// mutated after aggregation.
type ConsensusResult struct {
	WinningTopic   Topic                     `json:"winning_topic"`
	WeightedScore  float64                   `json:"weighted_score"`
	PerVoterScores map[string]map[string]int `json:"per_voter_scores"` // voterID -> topicID -> score
}

// SeriesPoint is one data point of a chart series.
type SeriesPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is one plotted data series.
type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// ChartType enumerates the supported plot kinds.
type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartBar     ChartType = "bar"
	ChartScatter ChartType = "scatter"
)

// ChartSpec describes the chart the Write stage asks for. Immutable once
// produced; the layout engine only reads it.
type ChartSpec struct {
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	Type       ChartType `json:"type"`
	Series     []Series  `json:"series"`
	SourceLine string    `json:"source_line"`
}

// CheckResult is one named gate check's outcome.
type CheckResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	NA        bool   `json:"na"`
	Rationale string `json:"rationale"`
}

// GateResult records a full gate evaluation. Once stored on a session it
// is never recomputed for that stage instance.
type GateResult struct {
	GateName      string        `json:"gate_name"`
	Checks        []CheckResult `json:"checks"`
	OverallPassed bool          `json:"overall_passed"`
}

// Status enumerates terminal and in-flight session states.
type Status string

const (
	StatusRunning     Status = "running"
	StatusPublished   Status = "published"
	StatusQuarantined Status = "quarantined"
)

// PipelineSession is the accumulating artifact threaded through all
// stages. The orchestrator owns it for the duration of one run; each
// stage writes only its own field.
type PipelineSession struct {
	ID               string       `json:"id"`
	Topic            *Topic       `json:"topic,omitempty"`
	ResearchFindings string       `json:"research_findings,omitempty"`
	ChartSpec        *ChartSpec   `json:"chart_spec,omitempty"`
	ArticleDraft     string       `json:"article_draft,omitempty"`
	ChartImageRef    string       `json:"chart_image_ref,omitempty"`
	GateResults      []GateResult `json:"gate_results,omitempty"`
	Status           Status       `json:"status"`
	StageCompleted   string       `json:"stage_completed,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of the session, used for snapshots and
// quarantine records so later mutation cannot leak into stored state.
func (s *PipelineSession) Clone() *PipelineSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.Topic != nil {
		t := *s.Topic
		out.Topic = &t
	}
	if s.ChartSpec != nil {
		cs := *s.ChartSpec
		cs.Series = make([]Series, len(s.ChartSpec.Series))
		for i, sr := range s.ChartSpec.Series {
			cs.Series[i] = Series{Name: sr.Name, Points: append([]SeriesPoint(nil), sr.Points...)}
		}
		out.ChartSpec = &cs
	}
	out.GateResults = make([]GateResult, len(s.GateResults))
	for i, gr := range s.GateResults {
		out.GateResults[i] = GateResult{
			GateName:      gr.GateName,
			Checks:        append([]CheckResult(nil), gr.Checks...),
			OverallPassed: gr.OverallPassed,
		}
	}
	return &out
}

// QuarantineRecord preserves a failed session with full rationale. The
// session itself is never deleted, only copied aside.
type QuarantineRecord struct {
	Session       *PipelineSession `json:"session"`
	FailureReport string           `json:"failure_report"`
	Annotation    string           `json:"annotation,omitempty"`
	QuarantinedAt time.Time        `json:"quarantined_at"`
}
