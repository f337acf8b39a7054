package pageops

import (
	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/imaging"
	"github.com/lvillar/pdfnup/source"
)

// MergeItem is one page of merged output: a document page or an image,
// already embedded, with the size it had before normalization.
type MergeItem struct {
	Source         string
	Kind           source.Kind
	Drawable       container.Drawable
	OriginalWidth  float64
	OriginalHeight float64
	// Strategy names the image strategy that succeeded; empty for pages.
	Strategy string
}

// ImageStrategy is one way of embedding image bytes.
type ImageStrategy struct {
	Name  string
	Embed func(doc *container.Document, data []byte) (container.Drawable, error)
}

// ImageStrategies returns the embedding cascade tried for every image:
// PNG as is, JPEG as is, then decode and re-encode as JPEG no wider than
// cfg.MaxMergeWidth.
func ImageStrategies(cfg pdfnup.Config) []ImageStrategy {
	return []ImageStrategy{
		{Name: "png", Embed: func(doc *container.Document, data []byte) (container.Drawable, error) {
			return doc.EmbedImage(data, container.PNG)
		}},
		{Name: "jpeg", Embed: func(doc *container.Document, data []byte) (container.Drawable, error) {
			return doc.EmbedImage(data, container.JPEG)
		}},
		{Name: "transcode", Embed: func(doc *container.Document, data []byte) (container.Drawable, error) {
			out, _, _, err := imaging.Transcode(data, imaging.MaxWidthPixels(cfg.MaxMergeWidth), cfg.JPEGQuality)
			if err != nil {
				return container.Drawable{}, err
			}
			return doc.EmbedImage(out, container.JPEG)
		}},
	}
}

// EmbedImage tries each strategy in order and returns the first success.
// When all fail the returned *pdfnup.ImageDecodeError lists every attempt.
func EmbedImage(doc *container.Document, name string, data []byte, strategies []ImageStrategy) (container.Drawable, string, error) {
	var attempts []pdfnup.StrategyError
	for _, s := range strategies {
		dr, err := s.Embed(doc, data)
		if err == nil {
			return dr, s.Name, nil
		}
		attempts = append(attempts, pdfnup.StrategyError{Strategy: s.Name, Err: err})
	}
	return container.Drawable{}, "", &pdfnup.ImageDecodeError{File: name, Attempts: attempts}
}

// AnalyzeMerge embeds every page and image of srcs into doc, in order, and
// returns the items together with the shared output width: the widest item
// clamped to cfg.MaxMergeWidth. Any failure aborts the analysis.
func AnalyzeMerge(doc *container.Document, srcs []*source.PageSource, cfg pdfnup.Config) ([]MergeItem, float64, error) {
	log := cfg.Log()
	strategies := ImageStrategies(cfg)

	var (
		items    []MergeItem
		maxWidth float64
	)
	add := func(it MergeItem) {
		items = append(items, it)
		maxWidth = max(maxWidth, min(it.OriginalWidth, cfg.MaxMergeWidth))
	}

	for i, src := range srcs {
		cfg.Report(pdfnup.Progress{
			Phase:   pdfnup.PhaseAnalyze,
			Percent: pdfnup.Band(0, 50, i+1, len(srcs)),
			Step:    i + 1,
			Steps:   len(srcs),
			Name:    src.Name,
		})

		if src.IsDocument() {
			if src.PageCount == 0 {
				return nil, 0, pdfnup.NewOpError("merge", src.Name, pdfnup.ErrPageCountUnavailable)
			}
			indices := make([]int, src.PageCount)
			for p := range indices {
				indices[p] = p
			}
			drs, err := doc.EmbedPages(sourceKey(src), src.Bytes(), indices)
			if err != nil {
				return nil, 0, pdfnup.NewOpError("merge", src.Name, err)
			}
			for _, dr := range drs {
				add(MergeItem{
					Source:         src.Name,
					Kind:           source.KindDocument,
					Drawable:       dr,
					OriginalWidth:  dr.Width,
					OriginalHeight: dr.Height,
				})
			}
			continue
		}

		dr, strategy, err := EmbedImage(doc, src.Name, src.Bytes(), strategies)
		if err != nil {
			log.Error("image could not be embedded", "file", src.Name, "err", err)
			return nil, 0, pdfnup.NewOpError("merge", src.Name, err)
		}
		log.Debug("embedded image", "file", src.Name, "strategy", strategy, "width", dr.Width, "height", dr.Height)
		add(MergeItem{
			Source:         src.Name,
			Kind:           source.KindImage,
			Drawable:       dr,
			OriginalWidth:  dr.Width,
			OriginalHeight: dr.Height,
			Strategy:       strategy,
		})
	}
	return items, maxWidth, nil
}

// Merge concatenates every page of every document and every image in srcs
// into one document. Each item gets its own sheet; all sheets share one
// width and keep the aspect ratio of their item. The operation is all or
// nothing: on error no bytes are returned.
func Merge(srcs []*source.PageSource, cfg pdfnup.Config) (*Output, error) {
	cfg.Mode = pdfnup.ModeMerge
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, pdfnup.NewOpError("merge", "", pdfnup.ErrNoSources)
	}
	log := cfg.Log()

	doc := container.New()
	items, width, err := AnalyzeMerge(doc, srcs, cfg)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || width <= 0 {
		return nil, pdfnup.NewOpError("merge", "", pdfnup.ErrNoPages)
	}
	log.Debug("merge analyzed", "items", len(items), "width", width)

	for i, it := range items {
		cfg.Report(pdfnup.Progress{
			Phase:   pdfnup.PhaseCreate,
			Percent: pdfnup.Band(50, 90, i+1, len(items)),
			Step:    i + 1,
			Steps:   len(items),
			Name:    it.Source,
		})
		height := width * it.OriginalHeight / it.OriginalWidth
		sheet, err := doc.AddSheet(width, height)
		if err == nil {
			err = doc.Draw(sheet, it.Drawable, 0, 0, width, height)
		}
		if err != nil {
			return nil, pdfnup.NewOpError("merge", it.Source, err)
		}
	}

	cfg.Report(pdfnup.Progress{Phase: pdfnup.PhaseSerialize, Percent: 95, Step: 1, Steps: 2})
	data, err := serialize("merge", doc, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Report(pdfnup.Progress{Phase: pdfnup.PhaseSerialize, Percent: 100, Step: 2, Steps: 2})

	log.Info("merged", "files", len(srcs), "pages", len(items), "bytes", len(data))
	return &Output{
		Name:   MergedName(len(srcs)),
		Data:   data,
		Sheets: len(items),
		Pages:  len(items),
		Width:  width,

		Placements: doc.Placements(),
	}, nil
}

