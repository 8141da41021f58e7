package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/linotype/internal/adapters/oracle"
	"github.com/okian/linotype/internal/adapters/render"
	"github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
	"github.com/okian/linotype/pkg/logger"
	"github.com/okian/linotype/pkg/metrics"
)

// timeStage records metrics for one stage invocation.
func timeStage(stage string) func() {
	start := time.Now()
	return func() {
		metrics.RecordStageLatency(stage, float64(time.Since(start).Milliseconds()))
	}
}

// stageDiscover asks the oracle for candidate topics and filters out
// ones the pipeline has already considered.
func (p *Pipeline) stageDiscover(ctx context.Context) ([]model.Topic, error) {
	defer timeStage(StageDiscover)()
	metrics.RecordOracleCall(StageDiscover)

	var topics []model.Topic
	_, err := p.policy.Do(ctx, func(ctx context.Context) (oracle.Response, error) {
		resp, err := p.oracle.Generate(ctx, oracle.Request{
			Prompt:      discoverPrompt(p.topicCount),
			Schema:      `{"topics": [{"title", "description", "relevance_score"}]}`,
			Temperature: 0.7,
		})
		if err != nil {
			return oracle.Response{}, err
		}
		parsed, perr := parseTopics(resp.Content)
		if perr != nil {
			return oracle.Response{}, oracle.Malformed(perr)
		}
		topics = parsed
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	fresh := topics[:0]
	for _, t := range topics {
		if p.deduper.SeenAndRecord(ctx, t.Title) {
			p.logger.Debug(ctx, "duplicate topic dropped", logger.String("title", t.Title))
			continue
		}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		return nil, ErrNoTopics
	}
	return fresh, nil
}

// stageSelect runs the weighted voter consensus over the candidates.
func (p *Pipeline) stageSelect(ctx context.Context, topics []model.Topic) (model.ConsensusResult, error) {
	defer timeStage(StageSelect)()
	return p.selector.Select(ctx, topics, p.voters)
}

// stageResearch gathers findings for the winning topic.
func (p *Pipeline) stageResearch(ctx context.Context, topic model.Topic) (string, error) {
	defer timeStage(StageResearch)()
	metrics.RecordOracleCall(StageResearch)

	resp, err := p.policy.Generate(ctx, p.oracle, oracle.Request{
		Prompt:      researchPrompt(topic),
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", oracle.Malformed(fmt.Errorf("research stage returned empty findings"))
	}
	return resp.Content, nil
}

// stageWrite produces the article draft and its chart specification in
// one structured reply.
func (p *Pipeline) stageWrite(ctx context.Context, topic model.Topic, findings string) (string, *model.ChartSpec, error) {
	defer timeStage(StageWrite)()
	metrics.RecordOracleCall(StageWrite)

	var draft string
	var spec *model.ChartSpec
	_, err := p.policy.Do(ctx, func(ctx context.Context) (oracle.Response, error) {
		resp, err := p.oracle.Generate(ctx, oracle.Request{
			Prompt:      writePrompt(topic, findings),
			Schema:      `{"article_markdown", "chart"}`,
			Temperature: 0.5,
		})
		if err != nil {
			return oracle.Response{}, err
		}
		d, s, perr := parseDraft(resp.Content)
		if perr != nil {
			return oracle.Response{}, oracle.Malformed(perr)
		}
		draft, spec = d, s
		return resp, nil
	})
	if err != nil {
		return "", nil, err
	}
	return draft, spec, nil
}

// stageChart lays the chart out and renders it. The engine is
// deterministic, so there is no retry; any error is a quality failure
// handled by the caller.
func (p *Pipeline) stageChart(_ context.Context, spec *model.ChartSpec) (*layout.LayoutResult, []byte, error) {
	defer timeStage(StageChart)()

	res, err := p.engine.Layout(*spec)
	if err != nil {
		return nil, nil, err
	}
	return res, render.SVG(res), nil
}

// Prompt builders. Wording is deliberately plain; the voice and style
// rules live in the gates, not in the prompts.

func discoverPrompt(n int) string {
	return fmt.Sprintf(`Propose %d data-driven article topics about current economic and
technology trends. Reply with JSON only:
{"topics": [{"title": string, "description": string, "relevance_score": number 0-1}]}`, n)
}

func researchPrompt(topic model.Topic) string {
	var b strings.Builder
	b.WriteString("Research the following article topic. Collect concrete figures,\n")
	b.WriteString("named sources and at least one numeric time series usable in a chart.\n\n")
	fmt.Fprintf(&b, "Title: %s\nDescription: %s\n", topic.Title, topic.Description)
	return b.String()
}

func writePrompt(topic model.Topic, findings string) string {
	var b strings.Builder
	b.WriteString("Write an article in house style from the findings below. Embed the\n")
	fmt.Fprintf(&b, "chart with the exact reference %q in the markdown body.\n", chartRefName)
	b.WriteString("Reply with JSON only:\n")
	b.WriteString(`{"article_markdown": string, "chart": {"title": string, "subtitle": string, "type": "line"|"bar"|"scatter", "series": [{"name": string, "points": [{"x": number, "y": number}]}], "source_line": string}}`)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Topic: %s\n\nFindings:\n%s\n", topic.Title, findings)
	return b.String()
}

// Reply parsers. A reply that fails to parse is a malformed oracle
// error and retried by the caller's policy.

func parseTopics(content string) ([]model.Topic, error) {
	var reply struct {
		Topics []struct {
			Title          string  `json:"title"`
			Description    string  `json:"description"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"topics"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	if len(reply.Topics) == 0 {
		return nil, fmt.Errorf("reply lists no topics")
	}
	topics := make([]model.Topic, 0, len(reply.Topics))
	for i, t := range reply.Topics {
		if t.Title == "" {
			return nil, fmt.Errorf("topic %d has no title", i)
		}
		topics = append(topics, model.Topic{
			ID:             fmt.Sprintf("t%d", i+1),
			Title:          t.Title,
			Description:    t.Description,
			RelevanceScore: t.RelevanceScore,
		})
	}
	return topics, nil
}

func parseDraft(content string) (string, *model.ChartSpec, error) {
	var reply struct {
		ArticleMarkdown string           `json:"article_markdown"`
		Chart           *model.ChartSpec `json:"chart"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return "", nil, fmt.Errorf("decode draft: %w", err)
	}
	if strings.TrimSpace(reply.ArticleMarkdown) == "" {
		return "", nil, fmt.Errorf("reply has no article body")
	}
	if reply.Chart == nil {
		return "", nil, fmt.Errorf("reply has no chart spec")
	}
	return reply.ArticleMarkdown, reply.Chart, nil
}
