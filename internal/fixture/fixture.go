// Package fixture generates small PDF and image inputs for tests and
// examples.
package fixture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/bmp"
)

// PDF returns a document of numPages pages, each width x height points,
// with the page number printed on it.
func PDF(numPages int, width, height float64) ([]byte, error) {
	sizes := make([]gofpdf.SizeType, numPages)
	for i := range sizes {
		sizes[i] = gofpdf.SizeType{Wd: width, Ht: height}
	}
	return MixedPDF(sizes...)
}

// MixedPDF returns a document with one page per size, in points. The
// first size is the document default.
func MixedPDF(sizes ...gofpdf.SizeType) ([]byte, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("fixture: no page sizes")
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           sizes[0],
	})
	pdf.SetFont("Helvetica", "", 14)
	for i, size := range sizes {
		pdf.AddPageFormat("P", size)
		pdf.Text(20, 30, fmt.Sprintf("Page %d of %d", i+1, len(sizes)))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("fixture: creating PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Image returns an opaque gradient image of the given size.
func Image(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// PNG returns an 8-bit RGBA PNG.
func PNG(width, height int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Image(width, height)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG16 returns a 16-bit PNG, which the PDF writer cannot embed directly.
func PNG16(width, height int) []byte {
	img := image.NewNRGBA64(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA64{R: uint16(x) << 8, G: 0x8000, B: 0x4000, A: 0xffff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG returns a baseline JPEG.
func JPEG(width, height int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Image(width, height), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GIF returns a paletted GIF.
func GIF(width, height int) []byte {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, Image(width, height), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// BMP returns a 24-bit BMP.
func BMP(width, height int) []byte {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, Image(width, height)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
