package provider

import (
	"fmt"
	"sync"
)

// Registry resolves provider identifiers to configured Provider instances.
// Credentials can be swapped at runtime (config hot reload), so access is
// guarded; resolution happens once per switch, not per cycle.
type Registry struct {
	mu        sync.RWMutex
	creds     map[string]string
	models    map[string]string
	ollamaURL string
}

// NewRegistry creates a registry over a provider-id → secret map and
// optional per-provider model overrides.
func NewRegistry(creds, models map[string]string, ollamaURL string) *Registry {
	if creds == nil {
		creds = map[string]string{}
	}
	if models == nil {
		models = map[string]string{}
	}
	return &Registry{creds: creds, models: models, ollamaURL: ollamaURL}
}

// Known lists the supported provider identifiers.
func Known() []string {
	return []string{OpenAI, Claude, Perplexity, Gemini, Ollama}
}

// SetCredentials replaces the credential map, e.g. after a config reload.
func (r *Registry) SetCredentials(creds map[string]string) {
	if creds == nil {
		creds = map[string]string{}
	}
	r.mu.Lock()
	r.creds = creds
	r.mu.Unlock()
}

// HasCredential reports whether the provider can be started. The local
// Ollama daemon needs no key.
func (r *Registry) HasCredential(id string) bool {
	if id == Ollama {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creds[id] != ""
}

// Resolve builds the provider for the given identifier, re-reading its
// credential. It fails with ErrUnknownProvider for identifiers outside the
// known set and ErrMissingCredential when no secret is configured.
func (r *Registry) Resolve(id string) (Provider, error) {
	r.mu.RLock()
	key := r.creds[id]
	model := r.models[id]
	ollamaURL := r.ollamaURL
	r.mu.RUnlock()

	switch id {
	case OpenAI, Claude, Perplexity, Gemini:
		if key == "" {
			return nil, fmt.Errorf("%s: %w", id, ErrMissingCredential)
		}
	case Ollama:
		return NewOllama(ollamaURL, model)
	default:
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownProvider)
	}

	switch id {
	case OpenAI:
		return NewOpenAI(key, model), nil
	case Claude:
		return NewClaude(key, model), nil
	case Perplexity:
		return NewPerplexity(key, model), nil
	default: // Gemini
		return NewGemini(key, model), nil
	}
}
