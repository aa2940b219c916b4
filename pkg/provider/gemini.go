package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/menta2k/chart-watch/pkg/types"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider sends vision requests through the Google generative AI SDK.
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGemini creates the Gemini variant. An empty model selects the default.
func NewGemini(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
	}
}

func (p *GeminiProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: Gemini, Model: p.model, SupportsVision: true}
}

func (p *GeminiProvider) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	text, err := p.generate(ctx, prompt, image)
	return text, wrapErr(Gemini, err)
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string, image []byte) (string, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(p.model)
	if m == nil {
		return "", fmt.Errorf("model %q is nil", p.model)
	}

	parts := []genai.Part{}
	if len(image) > 0 {
		format := strings.TrimPrefix(sniffImageMIME(image), "image/")
		parts = append(parts, genai.ImageData(format, image))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response, no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response, no text parts")
	}
	return sb.String(), nil
}
