package repository

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrNilSession   = errors.New("nil session")
	ErrNilRecord    = errors.New("nil quarantine record")
	ErrEmptyArticle = errors.New("empty article body")
)
