// Package oracle talks to the external vision/language model consulted for
// document and profile-link verdicts. The model is treated as an untrusted,
// non-deterministic collaborator: requests pin temperature and output length,
// and callers never trust the reply format.
package oracle

import "context"

// Part is one piece of user content in a request: text, or an inline
// base64-encoded image.
type Part struct {
	Text        string
	ImageBase64 string
	ImageMIME   string
}

// Prompt is a fully assembled oracle request: a fixed system instruction
// (never user-influenced) plus variable user content.
type Prompt struct {
	System string
	Parts  []Part
}

// Client sends a prepared prompt and returns the raw response text.
// Implementations must surface transport, auth and rate-limit failures as
// ordinary errors; callers convert them into INDETERMINADO verdicts rather
// than retrying.
type Client interface {
	Send(ctx context.Context, p Prompt, maxTokens int32, temperature float32) (string, error)
}
