// Package imageio loads and saves images as NRGBA, picking the codec from the file extension.
package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp" // Register WebP decoder
	_ "image/gif"               // Register GIF decoder
)

// Format is an output codec.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// FormatForPath maps a file extension to an output format.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".webp":
		return "", fmt.Errorf("webp output is not supported, choose a .png output: %s", path)
	default:
		return "", fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}
}

// ParsePNGCompression maps a compression name to a png.CompressionLevel.
func ParsePNGCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("invalid png compression %q: must be default, speed, best or none", s)
	}
}

// Load decodes the image at path into a zero-origin NRGBA buffer.
func Load(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return ToNRGBA(src), nil
}

// ToNRGBA copies src into a new NRGBA image whose bounds start at the origin.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	// Copy NRGBA rows directly so colour under zero alpha survives.
	if n, ok := src.(*image.NRGBA); ok {
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			off := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], n.Pix[off:off+rowLen])
		}
		return dst
	}

	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Save encodes img to path in the format implied by its extension.
// The image is encoded into a temporary file next to path and renamed over it,
// so a failed encode leaves an existing file untouched.
func Save(path string, img image.Image, compression png.CompressionLevel) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}
	tmp := file.Name()
	defer os.Remove(tmp) // nolint:errcheck

	if err := encode(file, format, img, compression); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	if err := file.Chmod(mode); err != nil {
		file.Close()
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace image %s: %w", path, err)
	}
	return nil
}

func encode(w io.Writer, format Format, img image.Image, compression png.CompressionLevel) error {
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: compression}
		return enc.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
