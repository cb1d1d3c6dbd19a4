// Package pipeline drives the wear processor over whole images: load, run the
// selected per-pixel transform, optionally soften, write.
package pipeline

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/wsm/internal/imageio"
	"github.com/MeKo-Tech/wsm/internal/wear"
	"github.com/dustin/go-humanize"
)

// Options configure a Wearer beyond the processor settings.
type Options struct {
	Apply          ApplyOptions
	Soften         float32 // alpha blur sigma after wear mode; 0 disables
	PNGCompression string  // default, speed, best, none
}

// Report describes one processed image.
type Report struct {
	Input  string
	Output string
	Width  int
	Height int
	Points int
	Seed   int64
	Scale  float64
	Mode   wear.Mode
}

// Wearer applies wear to image files.
type Wearer struct {
	cfg         wear.Config
	opts        Options
	compression png.CompressionLevel
	logger      *slog.Logger
}

// NewWearer validates cfg and opts. cfg.Seed is replaced per call to Wear.
func NewWearer(cfg wear.Config, opts Options, logger *slog.Logger) (*Wearer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Soften < 0 {
		return nil, fmt.Errorf("soften sigma must be non-negative")
	}
	compression, err := imageio.ParsePNGCompression(opts.PNGCompression)
	if err != nil {
		return nil, err
	}

	return &Wearer{
		cfg:         cfg,
		opts:        opts,
		compression: compression,
		logger:      logger,
	}, nil
}

// Wear processes input and writes the result to output (input when empty).
func (w *Wearer) Wear(ctx context.Context, input, output string, seed int64) (Report, error) {
	if output == "" {
		output = input
	}
	report := Report{Input: input, Output: output, Seed: seed, Mode: w.opts.Apply.Mode}

	if _, err := imageio.FormatForPath(output); err != nil {
		return report, err
	}

	img, err := imageio.Load(input)
	if err != nil {
		return report, err
	}
	b := img.Bounds()
	report.Width, report.Height = b.Dx(), b.Dy()

	cfg := w.cfg
	cfg.Seed = seed
	proc, err := wear.New(report.Width, report.Height, cfg)
	if err != nil {
		return report, fmt.Errorf("failed to build wear processor for %s: %w", input, err)
	}
	report.Points = proc.PointCount()
	report.Scale = proc.Scale()

	w.log().Info("Erosion points generated",
		"input", input,
		"size", fmt.Sprintf("%dx%d", report.Width, report.Height),
		"points", humanize.Comma(int64(report.Points)),
		"seed", seed,
		"mode", report.Mode.String(),
	)

	if err := Apply(ctx, img, proc, w.opts.Apply); err != nil {
		return report, fmt.Errorf("failed to process %s: %w", input, err)
	}

	if w.opts.Soften > 0 && report.Mode == wear.ModeWear {
		SoftenAlpha(img, w.opts.Soften, proc.Eroded)
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := imageio.Save(output, img, w.compression); err != nil {
		return report, err
	}

	w.log().Debug("Image written", "output", output)
	return report, nil
}

func (w *Wearer) log() *slog.Logger {
	if w.logger != nil {
		return w.logger
	}
	return slog.Default()
}

// OutputPath derives where a worn copy of input is written.
// With neither dir nor suffix the input is overwritten in place.
func OutputPath(input, dir, suffix, ext string) string {
	if dir == "" && suffix == "" && ext == "" {
		return input
	}

	base := filepath.Base(input)
	inExt := filepath.Ext(base)
	stem := strings.TrimSuffix(base, inExt)
	if ext == "" {
		ext = inExt
	} else if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+suffix+ext)
}
