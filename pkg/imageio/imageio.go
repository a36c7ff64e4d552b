// Package imageio converts provider image bytes to the requested output
// format and writes them to disk.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Output formats.
const (
	PNG = "png"
	JPG = "jpg"
)

// JPEGQuality is used for every jpg encode.
const JPEGQuality = 92

var (
	ErrEmptyImage        = errors.New("imageio: empty image data")
	ErrUnsupportedFormat = errors.New("imageio: unsupported output format")
)

// NormalizeFormat maps user input to PNG or JPG.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPG, nil
	default:
		return "", fmt.Errorf("%w: %q (use png or jpg)", ErrUnsupportedFormat, format)
	}
}

// Encoded is the converted image and its actual size.
type Encoded struct {
	Data   []byte
	Width  int
	Height int
}

// Convert decodes data (png, jpeg or webp) and re-encodes it as format.
// When width and height are positive and differ from the decoded size the
// image is resampled to exactly that size.
func Convert(data []byte, format string, width, height int) (*Encoded, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageio: decode: %w", err)
	}

	b := img.Bounds()
	if width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		img = Resize(img, width, height)
		b = img.Bounds()
	}

	var buf bytes.Buffer
	switch format {
	case PNG:
		err = png.Encode(&buf, img)
	case JPG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("imageio: encode %s: %w", format, err)
	}
	return &Encoded{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Resize scales img to width x height with Catmull-Rom resampling.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Save writes data to path, creating parent directories.
func Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("imageio: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("imageio: write %s: %w", path, err)
	}
	return nil
}
