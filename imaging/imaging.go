// Package imaging is the raster codec used when an image cannot be embedded
// as-is: it decodes common formats, resamples to a bounded width and
// re-encodes as baseline JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	// Registered decoders.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode decodes raw image bytes in any registered format.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decoding: %w", err)
	}
	return img, format, nil
}

// DecodeConfig returns the pixel dimensions and format without decoding
// pixel data.
func DecodeConfig(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("imaging: reading header: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// FitWidth scales (width, height) down so that width does not exceed
// maxWidth, preserving the aspect ratio. Images already narrow enough are
// returned unchanged. Fractional heights are truncated, never below 1.
func FitWidth(width, height, maxWidth int) (int, int) {
	if width <= maxWidth || width <= 0 {
		return width, height
	}
	h := int(float64(height) * float64(maxWidth) / float64(width))
	return maxWidth, max(h, 1)
}

// Resample scales img to exactly width x height onto an opaque white
// canvas. Transparent regions therefore come out white after JPEG encoding.
func Resample(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// EncodeJPEG encodes img as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Transcode decodes data, limits its width to maxWidth and returns JPEG
// bytes along with the resulting pixel size.
func Transcode(data []byte, maxWidth, quality int) (out []byte, width, height int, err error) {
	if maxWidth <= 0 {
		return nil, 0, 0, errors.New("imaging: max width must be positive")
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, 0, errors.New("imaging: empty image")
	}
	width, height = FitWidth(b.Dx(), b.Dy(), maxWidth)
	out, err = EncodeJPEG(Resample(img, width, height), quality)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, width, height, nil
}

// MaxWidthPixels converts a width limit in points to a whole pixel count.
func MaxWidthPixels(w float64) int {
	return int(math.Floor(w))
}
