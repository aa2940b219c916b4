package provider

import (
	"errors"
	"testing"
)

func TestResolveKnownProviders(t *testing.T) {
	creds := map[string]string{
		OpenAI:     "sk-test",
		Claude:     "ant-test",
		Perplexity: "pplx-test",
		Gemini:     "gem-test",
	}
	reg := NewRegistry(creds, nil, "")

	for _, id := range Known() {
		p, err := reg.Resolve(id)
		if err != nil {
			t.Errorf("Resolve(%s) failed: %v", id, err)
			continue
		}
		info := p.Info()
		if info.ID != id {
			t.Errorf("Expected info ID %s, got %s", id, info.ID)
		}
		if info.Model == "" {
			t.Errorf("Expected a default model for %s", id)
		}
	}
}

func TestResolveMissingCredential(t *testing.T) {
	reg := NewRegistry(nil, nil, "")

	for _, id := range []string{OpenAI, Claude, Perplexity, Gemini} {
		_, err := reg.Resolve(id)
		if !errors.Is(err, ErrMissingCredential) {
			t.Errorf("Resolve(%s): expected ErrMissingCredential, got %v", id, err)
		}
	}

	// Ollama is local and needs no key.
	if _, err := reg.Resolve(Ollama); err != nil {
		t.Errorf("Resolve(ollama) should not require a credential: %v", err)
	}
}

func TestResolveUnknownProvider(t *testing.T) {
	reg := NewRegistry(map[string]string{"grok": "key"}, nil, "")
	if _, err := reg.Resolve("grok"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}
}

func TestHasCredential(t *testing.T) {
	reg := NewRegistry(map[string]string{OpenAI: "sk-test"}, nil, "")

	if !reg.HasCredential(OpenAI) {
		t.Error("Expected credential for openai")
	}
	if reg.HasCredential(Claude) {
		t.Error("Expected no credential for claude")
	}
	if !reg.HasCredential(Ollama) {
		t.Error("Expected ollama to pass the credential check")
	}
}

func TestSetCredentials(t *testing.T) {
	reg := NewRegistry(nil, nil, "")
	if reg.HasCredential(Claude) {
		t.Fatal("Expected no credential before reload")
	}

	reg.SetCredentials(map[string]string{Claude: "ant-test"})
	if !reg.HasCredential(Claude) {
		t.Error("Expected credential after reload")
	}
	if _, err := reg.Resolve(Claude); err != nil {
		t.Errorf("Resolve after reload failed: %v", err)
	}
}

func TestModelOverride(t *testing.T) {
	reg := NewRegistry(
		map[string]string{OpenAI: "sk-test"},
		map[string]string{OpenAI: "gpt-4o-mini"},
		"",
	)

	p, err := reg.Resolve(OpenAI)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := p.Info().Model; got != "gpt-4o-mini" {
		t.Errorf("Expected model override gpt-4o-mini, got %s", got)
	}
}

func TestProviderErrorWrapping(t *testing.T) {
	inner := errors.New("connection refused")
	err := wrapErr(OpenAI, inner)

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if pe.Provider != OpenAI {
		t.Errorf("Expected provider openai, got %s", pe.Provider)
	}
	if !errors.Is(err, inner) {
		t.Error("Expected wrapped error to match the original")
	}

	// Wrapping an already-attributed error keeps the original provider.
	double := wrapErr(Claude, err)
	var pe2 *Error
	if !errors.As(double, &pe2) || pe2.Provider != OpenAI {
		t.Errorf("Expected original attribution to survive, got %+v", pe2)
	}

	if wrapErr(OpenAI, nil) != nil {
		t.Error("Expected nil error to stay nil")
	}
}

func TestTextOnlyVariantIgnoresImage(t *testing.T) {
	p := NewPerplexity("pplx-test", "")
	if p.Info().SupportsVision {
		t.Error("Expected perplexity to report no vision support")
	}
}
