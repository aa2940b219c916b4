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
	claudeEndpoint     = "https://api.anthropic.com/v1/messages"
	claudeAPIVersion   = "2023-06-01"
	defaultClaudeModel = "claude-3-5-sonnet-latest"
	claudeMaxTokens    = 1024
)

type claudeContentBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string               `json:"role"`
		Content []claudeContentBlock `json:"content"`
	} `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ClaudeProvider sends vision requests to the Anthropic messages API.
type ClaudeProvider struct {
	apiKey string
	model  string
	httpc  *http.Client
}

// NewClaude creates the Claude variant. An empty model selects the default.
func NewClaude(apiKey, model string) *ClaudeProvider {
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
		httpc:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *ClaudeProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: Claude, Model: p.model, SupportsVision: true}
}

func (p *ClaudeProvider) Analyze(ctx context.Context, prompt string, image []byte) (string, error) {
	blocks := []claudeContentBlock{}
	if len(image) > 0 {
		blocks = append(blocks, claudeContentBlock{
			Type: "image",
			Source: &claudeSource{
				Type:      "base64",
				MediaType: sniffImageMIME(image),
				Data:      base64.StdEncoding.EncodeToString(image),
			},
		})
	}
	blocks = append(blocks, claudeContentBlock{Type: "text", Text: prompt})

	var req claudeRequest
	req.Model = p.model
	req.MaxTokens = claudeMaxTokens
	req.Messages = append(req.Messages, struct {
		Role    string               `json:"role"`
		Content []claudeContentBlock `json:"content"`
	}{Role: "user", Content: blocks})

	text, err := p.send(ctx, req)
	return text, wrapErr(Claude, err)
}

func (p *ClaudeProvider) send(ctx context.Context, reqBody claudeRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := p.httpc.Do(req)
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

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("bad response JSON: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("empty response, no text content")
}
