package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/chart-watch/pkg/types"
)

const (
	openAIEndpoint     = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o"
)

// OpenAI-compatible chat completion wire format, shared with the
// Perplexity variant which speaks the same protocol.
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIProvider sends vision requests to the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey string
	model  string
	httpc  *http.Client
}

// NewOpenAI creates the OpenAI variant. An empty model selects the default.
func NewOpenAI(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
		httpc:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *OpenAIProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: OpenAI, Model: p.model, SupportsVision: true}
}

func (p *OpenAIProvider) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	content := []contentPart{{Type: "text", Text: prompt}}
	if len(image) > 0 {
		dataURL := "data:" + sniffImageMIME(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
		content = append(content, contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL}})
	}

	req := chatCompletionRequest{
		Model:    p.model,
		Messages: []chatMessage{{Role: "user", Content: content}},
	}

	text, err := doChatCompletion(ctx, p.httpc, openAIEndpoint, p.apiKey, req)
	return text, wrapErr(OpenAI, err)
}

// doChatCompletion posts an OpenAI-compatible chat completion request and
// returns the first choice's content.
func doChatCompletion(ctx context.Context, httpc *http.Client, endpoint, apiKey string, reqBody chatCompletionRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("bad response JSON: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response, no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
