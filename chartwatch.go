// Package chartwatch provides periodic screen-region capture and AI-driven
// chart analysis.
//
// The package watches a user-selected rectangle of the screen, sends each
// captured frame to a configurable AI vision provider, and normalizes the
// response into a structured trading recommendation.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		chartwatch "github.com/menta2k/chart-watch"
//		"github.com/menta2k/chart-watch/internal/config"
//		"github.com/menta2k/chart-watch/pkg/types"
//	)
//
//	func main() {
//		cfg := config.Default()
//		creds := config.LoadCredentials("")
//
//		watcher := chartwatch.New(cfg, creds, nil)
//
//		if err := watcher.Loop().SetRegion(types.Region{X: 100, Y: 100, Width: 800, Height: 600}); err != nil {
//			log.Fatal(err)
//		}
//		if err := watcher.Loop().Start(); err != nil {
//			log.Fatal(err)
//		}
//		select {} // results arrive through the sink
//	}
//
// The package consists of four main components:
//
// 1. Capture (pkg/capture): grabs and crops the screen region
// 2. Provider (pkg/provider): the pluggable AI backends
// 3. Normalize (pkg/normalize): raw model text → structured payload
// 4. Monitor (pkg/monitor): the repeating analysis loop
//
// Providers are a closed set: openai, claude, perplexity (text-only),
// gemini, and a local ollama daemon. Switching providers re-resolves
// credentials and takes effect on the next cycle.
package chartwatch

import (
	"log/slog"

	"github.com/menta2k/chart-watch/internal/config"
	"github.com/menta2k/chart-watch/internal/sink"
	"github.com/menta2k/chart-watch/pkg/capture"
	"github.com/menta2k/chart-watch/pkg/monitor"
	"github.com/menta2k/chart-watch/pkg/provider"
)

// Version of the chart-watch library
const Version = "1.0.0"

// Watcher bundles a configured capture source, provider registry, sink,
// and analysis loop for one monitoring session.
type Watcher struct {
	registry *provider.Registry
	sink     *sink.ConsoleSink
	loop     *monitor.Loop
}

// New wires a session from configuration and provider credentials. An
// optional preview path makes every analysis write the captured frame
// there.
func New(cfg *config.Config, creds map[string]string, log *slog.Logger) *Watcher {
	return NewWithPreview(cfg, creds, log, "")
}

// NewWithPreview is New with a frame preview destination.
func NewWithPreview(cfg *config.Config, creds map[string]string, log *slog.Logger, previewPath string) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	registry := provider.NewRegistry(creds, cfg.Provider.Models, cfg.Provider.OllamaURL)
	consoleSink := sink.New(log, previewPath)

	capturer := capture.New(capture.Config{
		Display: cfg.Capture.Display,
		Format:  cfg.Capture.Format,
		Quality: cfg.Capture.Quality,
		Scale:   cfg.Capture.Scale,
	})

	loop := monitor.New(monitor.Config{
		ProviderID: cfg.Provider.Default,
		Interval:   cfg.Monitor.Interval(),
	}, capturer, registry, consoleSink, log)

	if cfg.Monitor.Region != nil {
		// Validated at config load; an invalid region is ignored here.
		_ = loop.SetRegion(*cfg.Monitor.Region)
	}

	return &Watcher{
		registry: registry,
		sink:     consoleSink,
		loop:     loop,
	}
}

// Loop returns the analysis loop control surface.
func (w *Watcher) Loop() *monitor.Loop {
	return w.loop
}

// Sink returns the session's presentation sink.
func (w *Watcher) Sink() *sink.ConsoleSink {
	return w.sink
}

// Registry returns the provider registry, e.g. for credential reloads.
func (w *Watcher) Registry() *provider.Registry {
	return w.registry
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
