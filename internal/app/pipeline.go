// Package app wires the article pipeline: a quality-gated state machine
// that turns a topic into a published article or a quarantined session.
//
// The machine is linear with a single conditional edge:
//
//	Discover -> Select -> Research -> Write -> Chart -> Edit -> VisualQA -> Publish
//	                                   (fail at Edit/VisualQA/Chart) -> Quarantine
//
// Gate pass/fail is the only place generated content influences control
// flow. Each stage writes exactly one session field; the orchestrator
// hands stages a read-only view of everything earlier.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/linotype/internal/adapters/oracle"
	"github.com/okian/linotype/internal/adapters/repository"
	"github.com/okian/linotype/internal/domain/consensus"
	"github.com/okian/linotype/internal/domain/dedupe"
	"github.com/okian/linotype/internal/domain/gate"
	"github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
	"github.com/okian/linotype/pkg/logger"
	"github.com/okian/linotype/pkg/metrics"
)

// Stage names, in machine order.
const (
	StageDiscover = "discover"
	StageSelect   = "select"
	StageResearch = "research"
	StageWrite    = "write"
	StageChart    = "chart"
	StageEdit     = "edit"
	StageVisualQA = "visual-qa"
	StagePublish  = "publish"
)

// Quarantine annotation constants.
const (
	annotationGateFailure = "gate-failure"
	annotationLayoutError = "layout-error"
	annotationFatalError  = "fatal-error"
)

// defaultTopicCount is how many candidates discovery asks for.
const defaultTopicCount = 5

// chartRefName is the stable name the article body uses to reference
// the chart artifact; the publisher writes the image under this name
// next to the article.
const chartRefName = "chart.svg"

// Pipeline runs one session per Run call. Independent sessions may run
// concurrently; the quarantine and publish sinks are append-only, so no
// further locking is needed.
type Pipeline struct {
	oracle     oracle.Oracle
	policy     oracle.Policy
	selector   *consensus.Selector
	voters     []model.VoterSpec
	engine     *layout.Engine
	editorial  *gate.Gate
	visual     *gate.Gate
	deduper    dedupe.Deduper
	sessions   repository.SessionStore
	quarantine repository.QuarantineSink
	publisher  repository.Publisher
	topicCount int
	logger     logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithRetryPolicy sets the oracle retry policy for all stages.
func WithRetryPolicy(p oracle.Policy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithVoters sets the consensus voter roster.
func WithVoters(voters []model.VoterSpec) Option {
	return func(pl *Pipeline) {
		if len(voters) > 0 {
			pl.voters = voters
		}
	}
}

// WithSelector overrides the consensus selector.
func WithSelector(s *consensus.Selector) Option {
	return func(pl *Pipeline) {
		if s != nil {
			pl.selector = s
		}
	}
}

// WithLayoutEngine overrides the chart layout engine.
func WithLayoutEngine(e *layout.Engine) Option {
	return func(pl *Pipeline) {
		if e != nil {
			pl.engine = e
		}
	}
}

// WithDeduper overrides the topic deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(pl *Pipeline) {
		if d != nil {
			pl.deduper = d
		}
	}
}

// WithTopicCount sets how many candidate topics discovery requests.
func WithTopicCount(n int) Option {
	return func(pl *Pipeline) {
		if n > 0 {
			pl.topicCount = n
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(pl *Pipeline) {
		if l != nil {
			pl.logger = l
		}
	}
}

// New creates a pipeline around the given oracle and stores.
func New(o oracle.Oracle, sessions repository.SessionStore, quarantine repository.QuarantineSink, publisher repository.Publisher, opts ...Option) (*Pipeline, error) {
	engine, err := layout.NewEngine()
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		oracle:     o,
		policy:     oracle.DefaultPolicy(),
		voters:     consensus.DefaultVoters(),
		engine:     engine,
		editorial:  gate.Editorial(),
		visual:     gate.Visual(),
		deduper:    dedupe.NewInMemoryDeduper(),
		sessions:   sessions,
		quarantine: quarantine,
		publisher:  publisher,
		topicCount: defaultTopicCount,
		logger:     logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.selector == nil {
		p.selector = consensus.NewSelector(p.oracle, consensus.WithRetryPolicy(p.policy))
	}
	return p, nil
}

// Outcome is what the caller receives: exactly one of a publish
// reference, a quarantine reference, or (via the error return) a fatal
// failure naming the last completed stage.
type Outcome struct {
	Status        model.Status
	Session       *model.PipelineSession
	PublishRef    *repository.PublishResult
	QuarantineRef string
}

// Run executes one full session. Cancellation, whether it lands between
// stages or inside an oracle call, never writes quarantine.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	// Discover and Select run before any session exists; fatal errors
	// here surface directly to the caller.
	topics, err := p.stageDiscover(ctx)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", StageDiscover, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selection, err := p.stageSelect(ctx, topics)
	if err != nil {
		return nil, fmt.Errorf("stage %s (last completed: %s): %w", StageSelect, StageDiscover, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.PipelineSession{
		ID:             uuid.NewString(),
		Topic:          &selection.WinningTopic,
		Status:         model.StatusRunning,
		StageCompleted: StageSelect,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.snapshot(ctx, session)
	p.logger.Info(ctx, "topic selected",
		logger.String("session", session.ID),
		logger.String("topic", selection.WinningTopic.Title),
		logger.Float64("score", selection.WeightedScore),
	)

	// From Research onward a partial session exists; fatal oracle errors
	// are preserved in quarantine with a fatal-error annotation.
	findings, err := p.stageResearch(ctx, *session.Topic)
	if err != nil {
		return p.failFatal(ctx, session, StageResearch, err)
	}
	session.ResearchFindings = findings
	p.completeStage(ctx, session, StageResearch)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	draft, chartSpec, err := p.stageWrite(ctx, *session.Topic, session.ResearchFindings)
	if err != nil {
		return p.failFatal(ctx, session, StageWrite, err)
	}
	session.ArticleDraft = draft
	session.ChartSpec = chartSpec
	p.completeStage(ctx, session, StageWrite)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layoutRes, chartSVG, layoutErr := p.stageChart(ctx, session.ChartSpec)
	if layoutErr != nil {
		// A malformed chart is a quality failure, not a crash: the whole
		// session goes to quarantine with the layout error as rationale.
		return p.failQuarantine(ctx, session, annotationLayoutError,
			fmt.Sprintf("chart layout failed: %v", layoutErr))
	}
	session.ChartImageRef = chartRefName
	p.completeStage(ctx, session, StageChart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	editResult := p.editorial.Evaluate(gate.EditorialArtifact{
		Draft:    session.ArticleDraft,
		ChartRef: session.ChartImageRef,
	})
	session.GateResults = append(session.GateResults, editResult)
	p.completeStage(ctx, session, StageEdit)
	if !editResult.OverallPassed {
		return p.failQuarantine(ctx, session, annotationGateFailure, gateReport(editResult))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	visualResult := p.visual.Evaluate(gate.VisualArtifact{
		Spec:   *session.ChartSpec,
		Layout: layoutRes,
	})
	session.GateResults = append(session.GateResults, visualResult)
	p.completeStage(ctx, session, StageVisualQA)
	if !visualResult.OverallPassed {
		return p.failQuarantine(ctx, session, annotationGateFailure, gateReport(visualResult))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pubRes, err := p.publisher.Publish(ctx, repository.PublishRequest{
		Session:         session,
		ArticleMarkdown: session.ArticleDraft,
		ChartSVG:        chartSVG,
		ChartSpec:       session.ChartSpec,
	})
	if err != nil {
		return nil, fmt.Errorf("stage %s (last completed: %s): %w: %w", StagePublish, StageVisualQA, ErrPublishFailed, err)
	}
	session.Status = model.StatusPublished
	p.completeStage(ctx, session, StagePublish)
	metrics.RecordRunPublished()
	p.logger.Info(ctx, "session published",
		logger.String("session", session.ID),
		logger.String("article", pubRes.ArticlePath),
	)

	return &Outcome{
		Status:     model.StatusPublished,
		Session:    session,
		PublishRef: &pubRes,
	}, nil
}

// completeStage stamps the session and snapshots it.
func (p *Pipeline) completeStage(ctx context.Context, session *model.PipelineSession, stage string) {
	session.StageCompleted = stage
	session.UpdatedAt = time.Now().UTC()
	metrics.RecordStageCompleted(stage)
	p.snapshot(ctx, session)
}

// snapshot persists the session; a failed snapshot is logged, not
// fatal, since the session is still held in memory.
func (p *Pipeline) snapshot(ctx context.Context, session *model.PipelineSession) {
	if _, err := p.sessions.Save(ctx, session); err != nil {
		p.logger.Warn(ctx, "session snapshot failed",
			logger.String("session", session.ID),
			logger.Error(err),
		)
	}
}

// failQuarantine routes the whole session, including all prior
// artifacts, into the quarantine sink. This is terminal; there is no
// automatic re-entry.
func (p *Pipeline) failQuarantine(ctx context.Context, session *model.PipelineSession, annotation, report string) (*Outcome, error) {
	session.Status = model.StatusQuarantined
	session.UpdatedAt = time.Now().UTC()

	ref, err := p.quarantine.Write(ctx, &model.QuarantineRecord{
		Session:       session.Clone(),
		FailureReport: report,
		Annotation:    annotation,
		QuarantinedAt: session.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("write quarantine record for session %s: %w", session.ID, err)
	}
	p.snapshot(ctx, session)
	metrics.RecordRunQuarantined(annotation)
	p.logger.Warn(ctx, "session quarantined",
		logger.String("session", session.ID),
		logger.String("annotation", annotation),
		logger.String("record", ref),
	)
	return &Outcome{
		Status:        model.StatusQuarantined,
		Session:       session,
		QuarantineRef: ref,
	}, nil
}

// failFatal preserves the partial session in quarantine with a
// fatal-error annotation and surfaces the error to the caller.
// Cancellation means the caller discarded the work: it surfaces without
// a quarantine record, even when the retry loop classified it as fatal.
func (p *Pipeline) failFatal(ctx context.Context, session *model.PipelineSession, stage string, err error) (*Outcome, error) {
	if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		if _, qerr := p.failQuarantine(ctx, session, annotationFatalError,
			fmt.Sprintf("fatal error at stage %s: %v", stage, err)); qerr != nil {
			p.logger.Error(ctx, "quarantine write failed after fatal error", logger.Error(qerr))
		}
	}
	return nil, fmt.Errorf("stage %s (last completed: %s): %w", stage, session.StageCompleted, err)
}

// gateReport flattens every check's rationale, passed and failed, into
// the quarantine failure report.
func gateReport(result model.GateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "gate %s failed:\n", result.GateName)
	for _, c := range result.Checks {
		state := "FAIL"
		switch {
		case c.NA:
			state = "N/A"
		case c.Passed:
			state = "PASS"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", state, c.Name, c.Rationale)
	}
	return b.String()
}
