package consensus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/linotype/internal/domain/model"
)

// rosterFile is the on-disk shape of a voter roster.
type rosterFile struct {
	Voters []model.VoterSpec `yaml:"voters"`
}

// LoadRoster reads a YAML voter roster. IDs must be unique and weights
// non-negative; a zero weight means the default weight of 1.
func LoadRoster(path string) ([]model.VoterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes and validates roster bytes.
func ParseRoster(data []byte) ([]model.VoterSpec, error) {
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(rf.Voters) == 0 {
		return nil, fmt.Errorf("%w: roster lists no voters", ErrNoVoters)
	}

	seen := make(map[string]struct{}, len(rf.Voters))
	for i, v := range rf.Voters {
		if v.ID == "" {
			return nil, fmt.Errorf("voters[%d].id is required", i)
		}
		if _, dup := seen[v.ID]; dup {
			return nil, fmt.Errorf("voters[%d].id duplicates %q", i, v.ID)
		}
		seen[v.ID] = struct{}{}
		if v.Weight < 0 {
			return nil, fmt.Errorf("voters[%d].weight must not be negative", i)
		}
	}
	return rf.Voters, nil
}

// DefaultVoters returns the built-in roster used when no roster file is
// configured: three equal-weight editorial perspectives.
func DefaultVoters() []model.VoterSpec {
	return []model.VoterSpec{
		{ID: "news-editor", Weight: 1, Persona: "You are a news editor judging timeliness and reader interest."},
		{ID: "data-editor", Weight: 1, Persona: "You are a data editor judging whether the topic supports a strong chart."},
		{ID: "style-editor", Weight: 1, Persona: "You are a style editor judging clarity and scope of the topic."},
	}
}
