// Package monitor runs the repeating capture → analyze → normalize →
// publish loop over a selected screen region. A single Loop instance owns
// all orchestration state for the session; UI or HTTP handlers drive it
// through the control surface and receive results through a Sink.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/menta2k/chart-watch/pkg/normalize"
	"github.com/menta2k/chart-watch/pkg/provider"
	"github.com/menta2k/chart-watch/pkg/types"
)

const (
	// DefaultInterval is the period between analysis cycles.
	DefaultInterval = 30 * time.Second
	// DefaultProbeDelay is the delay before the first cycle after Start,
	// keeping the start call itself cheap.
	DefaultProbeDelay = 1 * time.Second
)

// CaptureSource produces an encoded snapshot of a screen region.
type CaptureSource interface {
	Capture(region types.Region) ([]byte, error)
}

// ProviderRegistry resolves provider identifiers to providers.
type ProviderRegistry interface {
	Resolve(id string) (provider.Provider, error)
	HasCredential(id string) bool
}

// Sink receives loop output. Calls are push-only and fire-and-forget; a
// sink must never block for long or panic back into the loop.
type Sink interface {
	ReportStatus(text string)
	ReportAnalysis(payload types.AnalysisPayload, image []byte)
}

// PreconditionError blocks a start: the loop is not in a state where
// monitoring can begin. It is the only per-operation error surfaced to the
// caller; everything inside a cycle is downgraded to status text.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// Config holds loop timing and the initially selected provider.
type Config struct {
	ProviderID string
	Interval   time.Duration
	ProbeDelay time.Duration
}

// Status is the externally visible loop state.
type Status struct {
	ProviderID    string        `json:"provider_id"`
	HasCredential bool          `json:"has_credential"`
	Running       bool          `json:"running"`
	Region        *types.Region `json:"region,omitempty"`
}

// Loop is the analysis orchestrator.
type Loop struct {
	capture  CaptureSource
	registry ProviderRegistry
	sink     Sink
	log      *slog.Logger

	probeDelay time.Duration

	mu         sync.Mutex
	interval   time.Duration
	running    bool
	region     types.Region
	providerID string
	active     provider.Provider
	cancel     context.CancelFunc

	// busy makes cycle execution mutually exclusive: a cycle still in
	// flight when the next is due means the next one is dropped, not
	// queued.
	busy atomic.Bool

	// reload wakes the schedule so an interval change does not wait out
	// the old period first.
	reload chan struct{}
}

// New creates an idle loop. Zero timing values select the defaults.
func New(cfg Config, capture CaptureSource, registry ProviderRegistry, sink Sink, log *slog.Logger) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ProbeDelay <= 0 {
		cfg.ProbeDelay = DefaultProbeDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		capture:    capture,
		registry:   registry,
		sink:       sink,
		log:        log,
		interval:   cfg.Interval,
		probeDelay: cfg.ProbeDelay,
		providerID: cfg.ProviderID,
		reload:     make(chan struct{}, 1),
	}
}

// SetRegion replaces the monitored region. Allowed in either state; the
// next cycle captures the new region.
func (l *Loop) SetRegion(r types.Region) error {
	if !r.Valid() {
		return fmt.Errorf("region must have positive width and height, got %dx%d", r.Width, r.Height)
	}
	l.mu.Lock()
	l.region = r
	l.mu.Unlock()
	return nil
}

// SetInterval changes the cycle period. Allowed in either state; a running
// schedule restarts its wait with the new period.
func (l *Loop) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("interval must be positive, got %s", d)
	}
	l.mu.Lock()
	l.interval = d
	l.mu.Unlock()

	select {
	case l.reload <- struct{}{}:
	default:
	}
	return nil
}

func (l *Loop) currentInterval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// SwitchProvider re-resolves the provider for the given identifier. The
// switch is an explicit no-op when the identifier is unchanged; while
// running it takes effect on the next scheduled cycle, never retroactively.
func (l *Loop) SwitchProvider(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id == l.providerID {
		return nil
	}
	p, err := l.registry.Resolve(id)
	if err != nil {
		return err
	}
	l.providerID = id
	l.active = p
	return nil
}

// Start transitions Idle → Running. Both preconditions (configured region,
// credential for the active provider) must hold or the state is left
// unchanged.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return &PreconditionError{Reason: "already running"}
	}
	if !l.region.Valid() {
		return &PreconditionError{Reason: "no region selected"}
	}
	if !l.registry.HasCredential(l.providerID) {
		return &PreconditionError{Reason: fmt.Sprintf("no API credential for provider %q", l.providerID)}
	}

	p, err := l.registry.Resolve(l.providerID)
	if err != nil {
		return &PreconditionError{Reason: err.Error()}
	}
	l.active = p

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true

	go l.run(ctx)

	l.log.Info("monitoring started", "provider", l.providerID, "interval", l.interval)
	l.sink.ReportStatus(fmt.Sprintf("Monitoring started (%s, every %s)", l.providerID, l.interval))
	return nil
}

// Stop transitions Running → Idle. The schedule is cancelled; a cycle
// already in flight completes but its publish is suppressed by the running
// re-check. Stopping an idle loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	cancel()
	l.log.Info("monitoring stopped")
	l.sink.ReportStatus("Monitoring stopped")
}

// Config returns the externally visible loop state.
func (l *Loop) Config() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := Status{
		ProviderID:    l.providerID,
		HasCredential: l.registry.HasCredential(l.providerID),
		Running:       l.running,
	}
	if l.region.Valid() {
		r := l.region
		st.Region = &r
	}
	return st
}

func (l *Loop) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// run owns the schedule: one probe cycle after a short delay, then the
// configured period, re-read each wait so SetInterval applies to a running
// loop. Cycles execute synchronously in this goroutine, so the schedule
// itself can never overlap; the busy flag additionally guards against a
// stale goroutine from a previous session.
func (l *Loop) run(ctx context.Context) {
	probe := time.NewTimer(l.probeDelay)
	defer probe.Stop()

	select {
	case <-ctx.Done():
		return
	case <-probe.C:
		l.cycle()
	}

	for {
		wait := time.NewTimer(l.currentInterval())
		select {
		case <-ctx.Done():
			wait.Stop()
			return
		case <-l.reload:
			wait.Stop()
		case <-wait.C:
			l.cycle()
		}
	}
}

// cycle is one capture → analyze → normalize → publish pass. Every failure
// is downgraded to a status line; nothing here stops the loop.
func (l *Loop) cycle() {
	if !l.isRunning() {
		return
	}
	if !l.busy.CompareAndSwap(false, true) {
		l.log.Warn("previous analysis cycle still in flight, skipping")
		return
	}
	defer l.busy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			l.log.Error("analysis cycle panicked", "panic", r)
			l.sink.ReportStatus("Analysis cycle failed unexpectedly")
		}
	}()

	l.mu.Lock()
	region := l.region
	prov := l.active
	id := l.providerID
	l.mu.Unlock()

	l.sink.ReportStatus("Capturing chart region...")

	image, err := l.capture.Capture(region)
	if err != nil {
		l.log.Error("capture failed", "err", err)
		l.sink.ReportStatus(fmt.Sprintf("Capture failed: %v", err))
		return
	}

	l.sink.ReportStatus(fmt.Sprintf("Analyzing with %s...", id))

	// The schedule context is deliberately not threaded through here:
	// stopping clears the schedule but never interrupts an in-flight
	// provider call. Providers apply their own timeouts.
	raw, err := prov.Analyze(context.Background(), provider.AnalysisPrompt, image)
	if err != nil {
		l.log.Error("analysis failed", "provider", id, "err", err)
		l.sink.ReportStatus(fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	payload := normalize.Normalize(raw)

	// A stop issued while the provider call was in flight suppresses the
	// publish; the cycle's work is discarded, not delivered.
	if !l.isRunning() {
		return
	}

	l.sink.ReportAnalysis(payload, image)
	l.sink.ReportStatus(fmt.Sprintf("Analysis complete at %s", time.Now().Format("15:04:05")))
	l.log.Info("cycle complete",
		"provider", id,
		"decision", payload.Decision,
		"confidence", payload.Confidence,
	)
}
