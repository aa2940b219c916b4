package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/chart-watch/pkg/types"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2-vision:11b"
)

// OllamaProvider sends vision requests to a local Ollama daemon. It needs
// no API credential.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllama creates the Ollama variant against the given server URL. Empty
// arguments select the local daemon and the default vision model.
func NewOllama(serverURL, model string) (*OllamaProvider, error) {
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}

	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %v", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &OllamaProvider{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: Ollama, Model: p.model, SupportsVision: true}
}

func (p *OllamaProvider) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	// Local models on CPU can be slow; cap the wait only if the caller
	// didn't already.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
	}

	msg := api.Message{Role: "user", Content: prompt}
	if len(image) > 0 {
		msg.Images = []api.ImageData{api.ImageData(image)}
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: []api.Message{msg},
		Stream:   &streamFalse,
	}

	var responseContent string
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", wrapErr(Ollama, fmt.Errorf("chat error: %v", err))
	}
	if responseContent == "" {
		return "", wrapErr(Ollama, fmt.Errorf("empty response"))
	}
	return responseContent, nil
}
