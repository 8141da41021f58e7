package oracle

import (
	"context"
	"errors"
	"sync"
)

// Scripted is a deterministic oracle for tests and dry runs. Replies are
// consumed in FIFO order; an optional handler serves calls once the
// script is exhausted. Safe for concurrent use.
type Scripted struct {
	mu      sync.Mutex
	script  []Reply
	handler func(Request) (Response, error)
	calls   int
}

// Reply is one scripted outcome: either a response or an error.
type Reply struct {
	Response Response
	Err      error
}

// NewScripted creates a scripted oracle with the given canned replies.
func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{script: replies}
}

// WithHandler sets the fallback used after the script runs out.
func (s *Scripted) WithHandler(fn func(Request) (Response, error)) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
	return s
}

// Enqueue appends replies to the script.
func (s *Scripted) Enqueue(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, replies...)
}

// Calls returns how many times Generate has been invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Generate pops the next scripted reply.
func (s *Scripted) Generate(_ context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.script) > 0 {
		next := s.script[0]
		s.script = s.script[1:]
		return next.Response, next.Err
	}
	if s.handler != nil {
		return s.handler(req)
	}
	return Response{}, Fatal(errors.New("scripted oracle exhausted"))
}
