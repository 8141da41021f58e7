// Package oracle defines the contract for the generation oracle: an
// opaque external service that turns a prompt plus a response schema
// into structured content.
//
// Conventions:
// - The concrete provider is chosen once at construction, never per call.
// - Errors carry a classification (transient, fatal, malformed) so the
//   caller's retry policy can act without inspecting provider details.
package oracle

import (
	"context"
)

// Request describes one generation call.
type Request struct {
	// Prompt is the full instruction text.
	Prompt string

	// Schema names the JSON shape the response must satisfy. Empty means
	// free-form text.
	Schema string

	// Temperature controls sampling randomness. Gate-backed calls must
	// use 0 so evaluation stays deterministic.
	Temperature float64
}

// Response is the oracle's structured reply.
type Response struct {
	Content string
}

// Oracle produces structured content from a prompt. Implementations are
// stateless between calls.
type Oracle interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Config selects and parameterizes a concrete oracle at construction.
type Config struct {
	// Provider is one of "openai", "anthropic" or "scripted".
	Provider string

	// Model names the provider model to use.
	Model string

	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string

	// APIKey authenticates against the provider. How the key reaches the
	// process is out of scope; it arrives here already resolved.
	APIKey string
}
