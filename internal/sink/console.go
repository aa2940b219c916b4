// Package sink renders loop output. The console sink is the headless
// stand-in for the desktop overlay: status lines and decision banners go to
// the structured log, the latest payload is kept for the HTTP surface, and
// the captured frame can be written to disk as a preview.
package sink

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/chart-watch/pkg/types"
)

// LatestAnalysis is the most recent published result.
type LatestAnalysis struct {
	Payload    types.AnalysisPayload `json:"payload"`
	ReceivedAt time.Time             `json:"received_at"`
}

// ConsoleSink implements the loop's Sink. All methods are fire-and-forget:
// rendering problems are logged and never travel back into the loop.
type ConsoleSink struct {
	log         *slog.Logger
	previewPath string

	mu     sync.Mutex
	latest *LatestAnalysis
}

// New creates a console sink. A non-empty previewPath makes every analysis
// write the captured frame there as a PNG.
func New(log *slog.Logger, previewPath string) *ConsoleSink {
	if log == nil {
		log = slog.Default()
	}
	return &ConsoleSink{log: log, previewPath: previewPath}
}

// ReportStatus renders a status line.
func (s *ConsoleSink) ReportStatus(text string) {
	s.log.Info(text)
}

// ReportAnalysis renders the decision banner, scenario table, and levels,
// stores the payload for the HTTP surface, and writes the frame preview.
func (s *ConsoleSink) ReportAnalysis(payload types.AnalysisPayload, frame []byte) {
	s.mu.Lock()
	s.latest = &LatestAnalysis{Payload: payload, ReceivedAt: time.Now()}
	s.mu.Unlock()

	s.log.Info(fmt.Sprintf("%s (%d%%) %s", payload.Decision, payload.Confidence, payload.Reason))
	for _, sc := range payload.Scenarios {
		s.log.Info(fmt.Sprintf("  %s entry %s stop %s targets %s",
			sc.Side, sc.Entry, sc.Stop, strings.Join(sc.Targets, " / ")))
		if sc.Conditions != "" {
			s.log.Info("    if " + sc.Conditions)
		}
	}
	if len(payload.Levels.Support) > 0 || len(payload.Levels.Resistance) > 0 {
		s.log.Info(fmt.Sprintf("  S: %s  R: %s",
			strings.Join(payload.Levels.Support, " "),
			strings.Join(payload.Levels.Resistance, " ")))
	}

	if s.previewPath != "" {
		if err := s.writePreview(frame); err != nil {
			s.log.Warn("preview write failed", "err", err)
		}
	}
}

// Latest returns the most recent analysis, or nil before the first one.
func (s *ConsoleSink) Latest() *LatestAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// writePreview re-encodes the captured frame as a PNG at the configured
// path, whatever format the capturer produced.
func (s *ConsoleSink) writePreview(frame []byte) error {
	img, err := decodeFrame(frame)
	if err != nil {
		return err
	}
	return imaging.Save(img, s.previewPath)
}

// decodeFrame decodes an encoded frame with WebP support.
func decodeFrame(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("frame: unknown or unsupported format")
}
