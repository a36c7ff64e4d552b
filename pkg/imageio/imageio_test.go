package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeFormat(t *testing.T) {
	for in, want := range map[string]string{"png": PNG, "PNG": PNG, "jpg": JPG, "jpeg": JPG, ".JPG": JPG} {
		got, err := NormalizeFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeFormat("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestConvertPNGToJPG(t *testing.T) {
	enc, err := Convert(testPNG(t, 16, 24), "jpg", 16, 24)
	require.NoError(t, err)
	assert.Equal(t, 16, enc.Width)
	assert.Equal(t, 24, enc.Height)

	_, err = jpeg.Decode(bytes.NewReader(enc.Data))
	assert.NoError(t, err)
}

func TestConvertResamples(t *testing.T) {
	enc, err := Convert(testPNG(t, 32, 32), "png", 16, 24)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(enc.Data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestConvertKeepsSizeWhenUnspecified(t *testing.T) {
	enc, err := Convert(testPNG(t, 10, 12), "png", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, enc.Width)
	assert.Equal(t, 12, enc.Height)
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(nil, "png", 0, 0)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Convert([]byte("not an image"), "png", 0, 0)
	assert.ErrorContains(t, err, "decode")

	_, err = Convert(testPNG(t, 2, 2), "bmp", 0, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "male", "abc.png")
	require.NoError(t, Save(path, []byte("data")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}
