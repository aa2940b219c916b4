package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/chart-watch/pkg/types"
)

const (
	perplexityEndpoint     = "https://api.perplexity.ai/chat/completions"
	defaultPerplexityModel = "sonar"
)

// PerplexityProvider is the text-only variant. It speaks the
// OpenAI-compatible chat protocol but cannot process images: the frame is
// dropped and the prompt carries a disclaimer instead, so the model
// explains that no visual read was possible.
type PerplexityProvider struct {
	apiKey string
	model  string
	httpc  *http.Client
}

// NewPerplexity creates the Perplexity variant. An empty model selects the
// default.
func NewPerplexity(apiKey, model string) *PerplexityProvider {
	if model == "" {
		model = defaultPerplexityModel
	}
	return &PerplexityProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
		httpc:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *PerplexityProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: Perplexity, Model: p.model, SupportsVision: false}
}

func (p *PerplexityProvider) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	_ = image // text-only: the frame is never attached

	req := chatCompletionRequest{
		Model:    p.model,
		Messages: []chatMessage{{Role: "user", Content: prompt + TextOnlyDisclaimer}},
	}

	text, err := doChatCompletion(ctx, p.httpc, perplexityEndpoint, p.apiKey, req)
	return text, wrapErr(Perplexity, err)
}
