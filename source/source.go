// Package source turns input files into PageSources: an immutable,
// classified view of one file with its page count and first page size.
package source

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/imaging"
)

// Kind classifies a source file.
type Kind int

const (
	KindDocument Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "document"
}

// PageSource is one ingested input file. It is never mutated after
// Ingest returns; its bytes must be treated as read-only.
type PageSource struct {
	ID         string
	Name       string
	Kind       Kind
	Format     string // image format ("png", "jpeg", ...); "pdf" for documents
	PageCount  int
	PageWidth  float64 // first page, in points (pixels for images)
	PageHeight float64
	data       []byte
}

// Bytes returns the raw file contents. Callers must not modify them.
func (s *PageSource) Bytes() []byte {
	return s.data
}

// Reader returns a fresh reader over the file contents.
func (s *PageSource) Reader() io.ReadSeeker {
	return bytes.NewReader(s.data)
}

// IsDocument reports whether the source is a multi-page document.
func (s *PageSource) IsDocument() bool {
	return s.Kind == KindDocument
}

var imageExts = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
}

// Classify decides whether data is a document or an image, by content
// first and by file extension second.
func Classify(name string, data []byte) (Kind, string, error) {
	if bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), []byte("%PDF-")) {
		return KindDocument, "pdf", nil
	}
	if _, _, format, err := imaging.DecodeConfig(data); err == nil {
		return KindImage, format, nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".pdf" {
		return KindDocument, "pdf", nil
	}
	if format, ok := imageExts[ext]; ok {
		return KindImage, format, nil
	}
	return 0, "", fmt.Errorf("%w: %s", pdfnup.ErrUnsupportedFile, name)
}

// Ingest classifies and measures one file. Documents whose pages cannot
// be read are kept with a page count of 0; the failure is logged, not
// returned. Only unsupported files produce an error.
func Ingest(name string, data []byte, logger *slog.Logger) (*PageSource, error) {
	if logger == nil {
		logger = pdfnup.Config{}.Log()
	}
	kind, format, err := Classify(name, data)
	if err != nil {
		logger.Warn("skipping file", "file", name, "err", err)
		return nil, err
	}

	src := &PageSource{Name: name, Kind: kind, Format: format, data: data}
	switch kind {
	case KindDocument:
		info, err := container.Inspect(data)
		if err != nil {
			logger.Warn("page count unavailable", "file", name,
				"err", fmt.Errorf("%w: %v", pdfnup.ErrPageCountUnavailable, err))
			break
		}
		src.PageCount = info.PageCount
		first := info.First()
		src.PageWidth, src.PageHeight = first.Width, first.Height
	case KindImage:
		src.PageCount = 1
		w, h, _, err := imaging.DecodeConfig(data)
		if err != nil {
			logger.Warn("image size unavailable", "file", name, "err", err)
			break
		}
		src.PageWidth, src.PageHeight = float64(w), float64(h)
	}
	logger.Debug("ingested", "file", name, "kind", kind, "pages", src.PageCount,
		"width", src.PageWidth, "height", src.PageHeight)
	return src, nil
}
