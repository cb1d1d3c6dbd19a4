package pipeline

import (
	"context"
	"image"
	"runtime"

	"github.com/MeKo-Tech/wsm/internal/wear"
	"golang.org/x/sync/errgroup"
)

// ApplyOptions selects the per-pixel transform run over an image.
type ApplyOptions struct {
	Mode     wear.Mode
	SetBlack bool // stamp opaque black before Mode runs
	Workers  int  // parallel rows; <= 0 uses runtime.NumCPU()
}

// Apply rewrites img in place, one row per task.
// Pixels are independent, so rows run in parallel against the read-only processor.
func Apply(ctx context.Context, img *image.NRGBA, proc *wear.Processor, opts ApplyOptions) error {
	b := img.Bounds()
	transform := proc.Func(opts.Mode)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for x := b.Min.X; x < b.Max.X; x++ {
				pos := image.Pt(x-b.Min.X, y-b.Min.Y)
				c := img.NRGBAAt(x, y)
				if opts.SetBlack {
					c = proc.SetBlack(pos, c)
				}
				img.SetNRGBA(x, y, transform(pos, c))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
