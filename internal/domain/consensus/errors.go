package consensus

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrEmptyTopicSet   = errors.New("empty topic set")
	ErrNoVoters        = errors.New("no voters configured")
	ErrNoQuorum        = errors.New("quorum not reached")
	ErrScoreOutOfRange = errors.New("vote score out of range")
	ErrUnknownTopic    = errors.New("vote references unknown topic")
	ErrDuplicateVote   = errors.New("duplicate vote for voter/topic pair")
)
