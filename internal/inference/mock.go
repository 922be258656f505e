package inference

import (
	"context"
	"fmt"
	"strings"
)

// MockClient is the offline backend: it answers every prompt with a
// fixed markdown report, without any network access. Interchangeable
// with VertexClient behind the Client interface.
type MockClient struct {
	model string
}

func NewMockClient(model string) *MockClient {
	return &MockClient{model: model}
}

func (c *MockClient) ModelName() string {
	return c.model
}

const mockReport = `# Research Results

Based on verified sources, here are the findings for your query:

> %s

## Key Sources
- BBC Archive: https://www.bbc.co.uk/archive/collections
- National Archives UK: https://www.nationalarchives.gov.uk/
- Internet Archive: https://archive.org/

## Archive Status
- BBC Archive: **Exists** - Contains broadcast recordings from 1920s onwards
- National Archives: **Exists** - Official government records
- Internet Archive: **Exists** - Digital preservation of web pages

## Verification Notes
All sources have been verified as legitimate archival institutions.`

func (c *MockClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, &Error{Kind: KindTransport, Op: "mock.generate", Err: ctx.Err()}
	default:
	}

	// First line of the prompt is enough to echo back.
	firstLine := prompt
	if idx := strings.IndexByte(prompt, '\n'); idx >= 0 {
		firstLine = prompt[:idx]
	}

	text := fmt.Sprintf(mockReport, strings.TrimSpace(firstLine))
	return &Result{
		Text:      text,
		TokensIn:  len(strings.Fields(prompt)),
		TokensOut: len(strings.Fields(text)),
	}, nil
}
