// Package capture grabs an encoded snapshot of a rectangular screen region.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"

	"github.com/menta2k/chart-watch/pkg/types"
)

// ErrNoRegion is returned when a capture is requested without a configured region.
var ErrNoRegion = errors.New("capture: no region configured")

// Config controls how captured frames are produced.
type Config struct {
	Display int     // display index, 0 is the primary display
	Format  string  // jpg|png|webp
	Quality int     // JPEG/WebP quality (1-100)
	Scale   float64 // logical-to-physical pixel factor; 0 means auto-detect
}

// DefaultConfig returns a configuration suitable for most displays.
func DefaultConfig() Config {
	return Config{
		Display: 0,
		Format:  "png",
		Quality: 90,
		Scale:   0,
	}
}

// rasterFunc grabs the full raster of one display. Swappable in tests.
type rasterFunc func(display int) (*image.RGBA, error)

// Capturer produces encoded snapshots of screen regions.
type Capturer struct {
	cfg    Config
	raster rasterFunc
}

// New creates a Capturer with the given configuration.
func New(cfg Config) *Capturer {
	if cfg.Quality <= 0 {
		cfg.Quality = 90
	}
	if cfg.Format == "" {
		cfg.Format = "png"
	}
	return &Capturer{
		cfg:    cfg,
		raster: screenshot.CaptureDisplay,
	}
}

// Capture grabs the full display raster, crops it to the region scaled by
// the display's pixel density factor, and returns the encoded image. Every
// failure comes back as an error; nothing panics past this boundary.
func (c *Capturer) Capture(region types.Region) ([]byte, error) {
	if !region.Valid() {
		return nil, ErrNoRegion
	}

	full, err := c.raster(c.cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", c.cfg.Display, err)
	}

	scale := c.cfg.Scale
	if scale <= 0 {
		scale = detectScale(c.cfg.Display, full.Bounds())
	}

	rect := ScaleRect(region, scale).Intersect(full.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("capture: region %+v is outside display %d", region, c.cfg.Display)
	}

	cropped := imaging.Crop(full, rect)
	return c.encode(cropped)
}

// ScaleRect converts a logical region to physical pixel coordinates,
// rounding each edge to the nearest integer. High-density displays report
// logical coordinates smaller than the raster, so an unscaled crop would
// land on the wrong part of the screen.
func ScaleRect(r types.Region, scale float64) image.Rectangle {
	if scale <= 0 {
		scale = 1
	}
	return image.Rect(
		int(math.Round(float64(r.X)*scale)),
		int(math.Round(float64(r.Y)*scale)),
		int(math.Round(float64(r.X+r.Width)*scale)),
		int(math.Round(float64(r.Y+r.Height)*scale)),
	)
}

// detectScale compares the physical raster against the logical display
// bounds the OS reports. When both agree (or anything looks off) the factor
// is 1.
func detectScale(display int, raster image.Rectangle) float64 {
	if display < 0 || display >= screenshot.NumActiveDisplays() {
		return 1
	}
	logical := screenshot.GetDisplayBounds(display)
	if logical.Dx() <= 0 || raster.Dx() <= 0 {
		return 1
	}
	scale := float64(raster.Dx()) / float64(logical.Dx())
	if scale < 1 {
		return 1
	}
	return scale
}

func (c *Capturer) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(c.cfg.Format) {
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(c.cfg.Quality)}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.cfg.Quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("encode: unsupported format %q", c.cfg.Format)
	}
	return buf.Bytes(), nil
}
