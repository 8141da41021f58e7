// Package repository provides the file-backed stores shared by pipeline
// runs: per-stage session snapshots, the quarantine sink and the publish
// destination.
//
// Conventions:
// - Snapshots are written atomically (write-temp-then-rename); a reader
//   never observes a partial file.
// - Quarantine and publish are append-only; existing files are never
//   overwritten.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/linotype/internal/domain/model"
)

// SessionStore persists per-stage snapshots for crash recovery and
// inspection.
type SessionStore interface {
	// Save writes the session snapshot and returns its path.
	Save(ctx context.Context, s *model.PipelineSession) (string, error)

	// Load reads a previously saved snapshot by session id.
	Load(ctx context.Context, sessionID string) (*model.PipelineSession, error)
}

// QuarantineSink accepts failed sessions. Write-only from the
// orchestrator's perspective.
type QuarantineSink interface {
	// Write stores the record under a deterministic name and returns
	// its path.
	Write(ctx context.Context, rec *model.QuarantineRecord) (string, error)
}

// PublishRequest hands the finished artifacts to the publish
// destination.
type PublishRequest struct {
	Session         *model.PipelineSession
	ArticleMarkdown string
	ChartSVG        []byte
	ChartSpec       *model.ChartSpec
}

// PublishResult names the files the publisher wrote.
type PublishResult struct {
	Dir            string `json:"dir"`
	ArticlePath    string `json:"article_path"`
	ChartImagePath string `json:"chart_image_path,omitempty"`
	ChartSpecPath  string `json:"chart_spec_path,omitempty"`
	MetadataPath   string `json:"metadata_path"`
}

// Publisher is the terminal success collaborator. Failure here is fatal
// to the run; no retry is defined.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}

// writeFileAtomic writes data to path via a temp file in the same
// directory plus rename, so concurrent readers see old or new content,
// never a torn write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// writeFileExclusive writes data to path, failing if the file exists.
func writeFileExclusive(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("open exclusive: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}
