// Package inference defines the pluggable generation backend. Two
// implementations exist: VertexClient talks to the Vertex AI Gemini
// endpoint, MockClient answers deterministically without any network
// access. Both are selected once at startup by configuration.
package inference

import "context"

// Result holds a single completion from a backend.
type Result struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Client is a generation backend. Generate performs exactly one
// inference per invocation and returns the completion text verbatim.
type Client interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
	ModelName() string
}
