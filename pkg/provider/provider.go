// Package provider dispatches chart analysis requests to a pluggable AI
// backend. Providers are a closed set of variants behind one capability
// interface; vision-capable variants attach the captured frame to the
// request, text-only variants disclaim the missing image in the prompt.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/menta2k/chart-watch/pkg/types"
)

// Known provider identifiers.
const (
	OpenAI     = "openai"
	Claude     = "claude"
	Perplexity = "perplexity"
	Gemini     = "gemini"
	Ollama     = "ollama"
)

// ErrMissingCredential is returned when the selected provider has no API key
// configured.
var ErrMissingCredential = errors.New("missing API credential")

// ErrUnknownProvider is returned for an identifier outside the known set.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider is an AI backend that turns a prompt (and optionally an image)
// into raw response text.
type Provider interface {
	// Analyze sends the instruction prompt and, for vision-capable
	// providers, the encoded image. It returns the raw textual body of
	// the model response.
	Analyze(ctx context.Context, prompt string, image []byte) (string, error)

	// Info returns static metadata used only for display.
	Info() types.ProviderInfo
}

// Error wraps a transport or auth failure with the provider name so status
// lines can attribute it.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapErr attaches the provider name unless the error already carries one.
func wrapErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Provider: provider, Err: err}
}
