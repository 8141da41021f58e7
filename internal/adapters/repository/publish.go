package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okian/linotype/internal/domain/model"
)

// FilePublisher writes the publish bundle: article markdown, the chart
// image with its spec as a pair, and run metadata.
type FilePublisher struct {
	root string
}

// NewFilePublisher creates a publisher rooted at dir.
func NewFilePublisher(dir string) *FilePublisher {
	return &FilePublisher{root: dir}
}

// publishMetadata is the sidecar record written next to the article.
type publishMetadata struct {
	SessionID   string             `json:"session_id"`
	TopicTitle  string             `json:"topic_title,omitempty"`
	GateResults []model.GateResult `json:"gate_results"`
	PublishedAt time.Time          `json:"published_at"`
}

// Publish writes all artifacts for one session under its own directory.
// Sessions are keyed by unique id, so the destination stays append-only
// across concurrent runs.
func (p *FilePublisher) Publish(_ context.Context, req PublishRequest) (PublishResult, error) {
	if req.Session == nil {
		return PublishResult{}, ErrNilSession
	}
	if req.ArticleMarkdown == "" {
		return PublishResult{}, ErrEmptyArticle
	}

	dir := filepath.Join(p.root, req.Session.ID)
	res := PublishResult{
		Dir:          dir,
		ArticlePath:  filepath.Join(dir, "article.md"),
		MetadataPath: filepath.Join(dir, "metadata.json"),
	}

	if err := writeFileExclusive(res.ArticlePath, []byte(req.ArticleMarkdown)); err != nil {
		return PublishResult{}, fmt.Errorf("publish article: %w", err)
	}

	if len(req.ChartSVG) > 0 {
		res.ChartImagePath = filepath.Join(dir, "chart.svg")
		if err := writeFileExclusive(res.ChartImagePath, req.ChartSVG); err != nil {
			return PublishResult{}, fmt.Errorf("publish chart image: %w", err)
		}
	}
	if req.ChartSpec != nil {
		specData, err := json.MarshalIndent(req.ChartSpec, "", "  ")
		if err != nil {
			return PublishResult{}, fmt.Errorf("marshal chart spec: %w", err)
		}
		res.ChartSpecPath = filepath.Join(dir, "chart.json")
		if err := writeFileExclusive(res.ChartSpecPath, specData); err != nil {
			return PublishResult{}, fmt.Errorf("publish chart spec: %w", err)
		}
	}

	meta := publishMetadata{
		SessionID:   req.Session.ID,
		GateResults: req.Session.GateResults,
		PublishedAt: time.Now().UTC(),
	}
	if req.Session.Topic != nil {
		meta.TopicTitle = req.Session.Topic.Title
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return PublishResult{}, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFileExclusive(res.MetadataPath, metaData); err != nil {
		return PublishResult{}, fmt.Errorf("publish metadata: %w", err)
	}
	return res, nil
}
