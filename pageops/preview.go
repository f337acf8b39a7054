package pageops

import (
	"image"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/source"
)

// PreviewScale is the scale at which a Rasterizer renders a preview.
const PreviewScale = 0.5

// Rasterizer renders the first page of a PDF to an image.
type Rasterizer interface {
	RenderFirstPage(pdf []byte, scale float64) (image.Image, error)
}

// PreviewResult holds the first sheet built from the first document.
type PreviewResult struct {
	Output *Output
	// Image is nil when no rasterizer was given or rendering failed.
	Image image.Image
}

// Preview builds only the first output sheet of the first document in
// srcs, using cfg's N-up or combine settings. If r is non-nil the sheet is
// rendered; a rendering failure is logged and leaves Image nil.
func Preview(srcs []*source.PageSource, cfg pdfnup.Config, r Rasterizer) (*PreviewResult, error) {
	if cfg.Mode == pdfnup.ModeMerge {
		return nil, pdfnup.NewOpError("preview", "", pdfnup.ErrInvalidLayout)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	docs := source.Documents(srcs)
	if len(docs) == 0 {
		return nil, pdfnup.NewOpError("preview", "", pdfnup.ErrNoSources)
	}
	cfg.Preview = true

	first := docs[0]
	out, err := composeDocuments("preview", docs[:1], cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == pdfnup.ModeCombine {
		out.Name = CombinedName(1)
	} else {
		out.Name = NUpName(cfg.PagesPerSheet, first.Name)
	}

	res := &PreviewResult{Output: out}
	if r == nil {
		return res, nil
	}
	img, err := r.RenderFirstPage(out.Data, PreviewScale)
	if err != nil {
		cfg.Log().Warn("preview rendering failed", "file", first.Name, "err", err)
		return res, nil
	}
	res.Image = img
	return res, nil
}
