// Package normalize turns arbitrary raster images into fixed-size PNG icons.
//
// Scaling is a direct scale-to-fit with nearest-neighbour sampling: the aspect
// ratio is not preserved and no interpolation is applied, so the same input
// always produces the same pixels.
package normalize

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/oukeidos/iconic/internal/apperrors"
)

// Size is the edge length, in pixels, of every catalog icon.
const Size = 64

// MaxPixels caps the declared dimensions of an input image. Compressed size
// says little about decoded size, so the header is checked before decoding.
const MaxPixels = 4096 * 4096

// Output is the result of Process.
type Output struct {
	PNG     []byte
	Format  string
	Width   int
	Height  int
	Resized bool
}

// Decode reads any registered raster format.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", apperrors.New(apperrors.KindInvalidImage, "Image data is empty.", nil)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.InvalidImage(fmt.Errorf("decode header: %w", err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", apperrors.New(apperrors.KindInvalidImage, "Image has no pixels.", nil)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", apperrors.Newf(apperrors.KindInvalidImage, nil,
			"Image is %dx%d; at most %d pixels are accepted.", cfg.Width, cfg.Height, MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.InvalidImage(fmt.Errorf("decode: %w", err))
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", apperrors.New(apperrors.KindInvalidImage, "Image has no pixels.", nil)
	}
	return img, format, nil
}

// IsNormalized reports whether img already has the icon dimensions.
func IsNormalized(img image.Image) bool {
	b := img.Bounds()
	return b.Dx() == Size && b.Dy() == Size
}

// Normalize scales img to Size x Size. An image that already has the right
// dimensions is returned as is with resized=false.
func Normalize(img image.Image) (image.Image, bool) {
	if IsNormalized(img) {
		return img, false
	}
	dst := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, true
}

// EncodePNG encodes img with default compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Process decodes data, scales it if needed and returns PNG bytes. A PNG
// that is already Size x Size is passed through byte for byte.
func Process(data []byte) (Output, error) {
	img, format, err := Decode(data)
	if err != nil {
		return Output{}, err
	}
	b := img.Bounds()
	out := Output{Format: format, Width: b.Dx(), Height: b.Dy()}

	normalized, resized := Normalize(img)
	out.Resized = resized
	if !resized && format == "png" {
		out.PNG = data
		return out, nil
	}
	encoded, err := EncodePNG(normalized)
	if err != nil {
		return Output{}, err
	}
	out.PNG = encoded
	return out, nil
}
