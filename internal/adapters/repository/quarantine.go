package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/okian/linotype/internal/domain/model"
)

// quarantineStamp makes file names sortable and unique per write.
const quarantineStamp = "20060102T150405.000000000Z"

// FileQuarantine is the append-only quarantine sink. Names are
// deterministic per (session, timestamp) so repeated inspection finds
// the same file; nothing is ever overwritten.
type FileQuarantine struct {
	root string
}

// NewFileQuarantine creates a quarantine sink rooted at dir.
func NewFileQuarantine(dir string) *FileQuarantine {
	return &FileQuarantine{root: dir}
}

// Write stores the record exclusively; an existing file of the same
// name is an error rather than an overwrite.
func (q *FileQuarantine) Write(_ context.Context, rec *model.QuarantineRecord) (string, error) {
	if rec == nil || rec.Session == nil {
		return "", ErrNilRecord
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal quarantine record: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", rec.Session.ID, rec.QuarantinedAt.UTC().Format(quarantineStamp))
	p := filepath.Join(q.root, name)
	if err := writeFileExclusive(p, data); err != nil {
		return "", fmt.Errorf("write quarantine record: %w", err)
	}
	return p, nil
}
