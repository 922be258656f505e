// Package render converts model completions (markdown) into sanitized HTML.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ErrInputTooLarge is returned when the input exceeds the renderer's
// size limit. Oversized input is never truncated silently.
var ErrInputTooLarge = errors.New("render: input exceeds size limit")

// DefaultMaxBytes bounds renderer input when no limit is configured.
const DefaultMaxBytes = 1 << 20

// Renderer turns markdown into HTML safe for embedding in a page.
// Raw HTML in the source text never reaches the output as live markup.
type Renderer struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	maxBytes int
}

func NewRenderer(maxBytes int) *Renderer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Renderer{
		// GFM tables show up in model output regularly. goldmark drops
		// raw HTML unless told otherwise, and the bluemonday pass strips
		// anything that still looks executable.
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
		maxBytes: maxBytes,
	}
}

// Render converts text to sanitized HTML markup.
func (r *Renderer) Render(text string) (template.HTML, error) {
	if len(text) > r.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrInputTooLarge, len(text), r.maxBytes)
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}

	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}
