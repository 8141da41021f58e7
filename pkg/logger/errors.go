package logger

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrUnknownFormat = errors.New("unknown log format")
	ErrUnknownLevel  = errors.New("unknown log level")
)
