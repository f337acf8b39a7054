package container

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// pdfcpuConfig returns a default pdfcpu configuration that never touches
// the user's config directory.
func pdfcpuConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// Size is a page size in points.
type Size struct {
	Width  float64
	Height float64
}

// Info summarizes the pages of a PDF.
type Info struct {
	PageCount int
	Pages     []Size
}

// First returns the size of the first page, or the zero Size.
func (i Info) First() Size {
	if len(i.Pages) == 0 {
		return Size{}
	}
	return i.Pages[0]
}

// Inspect reads the page count and page sizes of a PDF.
func Inspect(data []byte) (Info, error) {
	dims, err := api.PageDims(bytes.NewReader(data), pdfcpuConfig())
	if err != nil {
		return Info{}, fmt.Errorf("container: reading pages: %w", err)
	}
	info := Info{PageCount: len(dims), Pages: make([]Size, len(dims))}
	for i, d := range dims {
		info.Pages[i] = Size{Width: d.Width, Height: d.Height}
	}
	return info, nil
}

// optimize rewrites a PDF with object streams and an xref stream.
func optimize(data []byte) ([]byte, error) {
	conf := pdfcpuConfig()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, conf); err != nil {
		return nil, fmt.Errorf("container: optimizing: %w", err)
	}
	return out.Bytes(), nil
}
