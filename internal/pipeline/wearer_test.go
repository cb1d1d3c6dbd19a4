package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/wsm/internal/imageio"
	"github.com/MeKo-Tech/wsm/internal/wear"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, imageio.Save(path, img, png.BestSpeed))
}

func TestWearerInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crate.png")
	writeFixture(t, path, solid(30, 20, color.NRGBA{R: 90, G: 80, B: 70, A: 255}))

	w, err := NewWearer(wear.DefaultConfig(0), Options{}, nil)
	require.NoError(t, err)

	report, err := w.Wear(context.Background(), path, "", 7)
	require.NoError(t, err)
	assert.Equal(t, path, report.Output)
	assert.Equal(t, 30, report.Width)
	assert.Equal(t, 20, report.Height)
	assert.Equal(t, 60, report.Points)
	assert.Equal(t, int64(7), report.Seed)
	assert.InDelta(t, 0.03, report.Scale, 1e-12)

	got, err := imageio.Load(path)
	require.NoError(t, err)

	// Re-running the same seed on the original pixels matches the file.
	want := solid(30, 20, color.NRGBA{R: 90, G: 80, B: 70, A: 255})
	proc, err := wear.New(30, 20, wear.DefaultConfig(7))
	require.NoError(t, err)
	require.NoError(t, Apply(context.Background(), want, proc, ApplyOptions{}))
	assert.Equal(t, want.Pix, got.Pix)
}

func TestWearerSeparateOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "nested", "out.bmp")
	src := solid(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	writeFixture(t, input, src)

	w, err := NewWearer(wear.DefaultConfig(0), Options{
		Apply: ApplyOptions{Mode: wear.ModeSetBlack},
	}, nil)
	require.NoError(t, err)

	_, err = w.Wear(context.Background(), input, output, 1)
	require.NoError(t, err)

	untouched, err := imageio.Load(input)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, untouched.Pix)

	out, err := imageio.Load(output)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(4, 4))
}

func TestWearerRejectsBadOutputBeforeReading(t *testing.T) {
	w, err := NewWearer(wear.DefaultConfig(0), Options{}, nil)
	require.NoError(t, err)

	_, err = w.Wear(context.Background(), "does-not-exist.png", "out.webp", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webp")
}

func TestWearerMissingInput(t *testing.T) {
	w, err := NewWearer(wear.DefaultConfig(0), Options{}, nil)
	require.NoError(t, err)

	_, err = w.Wear(context.Background(), filepath.Join(t.TempDir(), "nope.png"), "", 1)
	require.Error(t, err)
}

func TestNewWearerValidation(t *testing.T) {
	bad := wear.DefaultConfig(0)
	bad.PointFrequency = 0
	_, err := NewWearer(bad, Options{}, nil)
	assert.ErrorIs(t, err, wear.ErrInvalidConfig)

	_, err = NewWearer(wear.DefaultConfig(0), Options{PNGCompression: "ultra"}, nil)
	assert.Error(t, err)

	_, err = NewWearer(wear.DefaultConfig(0), Options{Soften: -1}, nil)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		dir    string
		suffix string
		ext    string
		want   string
	}{
		{name: "in place", input: "tex/wall.png", want: "tex/wall.png"},
		{name: "suffix", input: "tex/wall.png", suffix: "_worn", want: filepath.Join("tex", "wall_worn.png")},
		{name: "dir", input: "tex/wall.png", dir: "out", want: filepath.Join("out", "wall.png")},
		{name: "ext without dot", input: "tex/wall.webp", ext: "png", want: filepath.Join("tex", "wall.png")},
		{name: "all", input: "wall.tga.png", dir: "o", suffix: "-w", ext: ".bmp", want: filepath.Join("o", "wall.tga-w.bmp")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.input, tt.dir, tt.suffix, tt.ext))
		})
	}
}

func TestSoftenAlpha(t *testing.T) {
	img := solid(15, 15, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(7, 7, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	SoftenAlpha(img, 1.5, nil)

	center := img.NRGBAAt(7, 7)
	assert.Greater(t, center.A, uint8(0), "hole is filled in by neighbours")
	assert.Less(t, img.NRGBAAt(6, 7).A, uint8(255), "neighbour loses some alpha")
	assert.GreaterOrEqual(t, img.NRGBAAt(0, 0).A, uint8(254), "far corner unaffected")
	assert.Equal(t, uint8(10), center.R)
	assert.Equal(t, uint8(30), center.B)
}

func TestSoftenAlphaZeroSigmaNoop(t *testing.T) {
	img := solid(3, 3, color.NRGBA{A: 40})
	img.SetNRGBA(1, 1, color.NRGBA{A: 200})
	before := append([]uint8(nil), img.Pix...)

	SoftenAlpha(img, 0, nil)
	assert.Equal(t, before, img.Pix)
}

func TestSoftenAlphaKeepsHoles(t *testing.T) {
	img := solid(15, 15, color.NRGBA{A: 255})
	hole := image.Pt(7, 7)

	SoftenAlpha(img, 1.5, func(p image.Point) bool { return p == hole })

	assert.Equal(t, uint8(0), img.NRGBAAt(7, 7).A)
	assert.GreaterOrEqual(t, img.NRGBAAt(0, 0).A, uint8(254))
}

func TestWearerSoftenKeepsErodedPixelsTransparent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plate.png")
	writeFixture(t, path, solid(64, 64, color.NRGBA{R: 200, G: 200, B: 200, A: 255}))

	w, err := NewWearer(wear.DefaultConfig(0), Options{Soften: 2}, nil)
	require.NoError(t, err)
	_, err = w.Wear(context.Background(), path, "", 7)
	require.NoError(t, err)

	got, err := imageio.Load(path)
	require.NoError(t, err)

	proc, err := wear.New(64, 64, wear.DefaultConfig(7))
	require.NoError(t, err)
	require.NotZero(t, proc.PointCount())

	for _, p := range proc.Points() {
		require.Equal(t, uint8(0), got.NRGBAAt(p.Position.X, p.Position.Y).A, "point %v", p.Position)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if proc.Eroded(image.Pt(x, y)) {
				require.Equal(t, uint8(0), got.NRGBAAt(x, y).A, "eroded pixel %d,%d", x, y)
			}
		}
	}
}
