package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/linotype/internal/domain/model"
)

// FileSessionStore keeps one JSON snapshot per session, overwritten
// atomically after each stage.
type FileSessionStore struct {
	root string
}

// NewFileSessionStore creates a session store rooted at dir.
func NewFileSessionStore(dir string) *FileSessionStore {
	return &FileSessionStore{root: dir}
}

func (s *FileSessionStore) path(sessionID string) string {
	return filepath.Join(s.root, sessionID+".json")
}

// Save snapshots the session. The write is atomic so a concurrent
// reader sees the previous stage's snapshot or this one, nothing else.
func (s *FileSessionStore) Save(_ context.Context, sess *model.PipelineSession) (string, error) {
	if sess == nil {
		return "", ErrNilSession
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	p := s.path(sess.ID)
	if err := writeFileAtomic(p, data); err != nil {
		return "", fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return p, nil
}

// Load reads a snapshot back, for inspection or crash recovery.
func (s *FileSessionStore) Load(_ context.Context, sessionID string) (*model.PipelineSession, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var sess model.PipelineSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}
