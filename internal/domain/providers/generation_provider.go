package providers

import (
	"context"
	"errors"
)

// ErrGenerationUnavailable indicates the text generation backend rejected or
// could not serve the request.
var ErrGenerationUnavailable = errors.New("text generation backend unavailable")

// TextGenerator defines the interface for the opaque text generation
// capability consumed by the pipeline. Implementations issue one completion
// per call; all prompt construction stays with the caller.
type TextGenerator interface {
	// Generate produces text for the given prompt
	Generate(ctx context.Context, prompt string) (string, error)
}
