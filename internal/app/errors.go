package app

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrNoTopics      = errors.New("discovery produced no topics")
	ErrPublishFailed = errors.New("publish destination rejected the session")
)
