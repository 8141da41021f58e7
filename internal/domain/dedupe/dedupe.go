// Package dedupe filters near-duplicate topics out of discovery output.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"unicode"
)

// Deduper records seen topic titles so a topic the pipeline already
// considered is not proposed again.
type Deduper interface {
	// SeenAndRecord atomically checks whether title was seen and records
	// it if not. Returns true if the title was already seen.
	SeenAndRecord(ctx context.Context, title string) bool

	Size() int
}

// inMemoryDeduper keys on a normalized form of the title: lower-cased,
// punctuation stripped, whitespace collapsed. Titles differing only in
// case or punctuation count as duplicates.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
}

// Default bound on remembered titles.
const defaultMaxSize = 10000

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered titles; the oldest entry
// is evicted first. A non-positive size means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, title string) bool {
	key := Normalize(title)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.order) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Normalize reduces a title to its comparison key.
func Normalize(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
