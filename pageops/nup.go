package pageops

import (
	"fmt"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/layout"
	"github.com/lvillar/pdfnup/source"
)

// pageRef addresses one page of one source.
type pageRef struct {
	src   *source.PageSource
	index int // 0-based
}

// NUp tiles the pages of one document onto sheets of cfg.PagesPerSheet
// slots. With cfg.Preview only the first sheet is built.
func NUp(src *source.PageSource, cfg pdfnup.Config) (*Output, error) {
	cfg.Mode = pdfnup.ModeNUp
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !src.IsDocument() {
		return nil, pdfnup.NewOpError("nup", src.Name, pdfnup.ErrUnsupportedFile)
	}
	out, err := composeDocuments("nup", []*source.PageSource{src}, cfg)
	if err != nil {
		return nil, err
	}
	out.Name = NUpName(cfg.PagesPerSheet, src.Name)
	return out, nil
}

// NUpBatch converts every document in srcs independently, skipping
// images. A file that fails is counted and logged; the remaining files are
// still converted.
func NUpBatch(srcs []*source.PageSource, cfg pdfnup.Config) *BatchResult {
	log := cfg.Log()
	docs := source.Documents(srcs)
	res := &BatchResult{}

	for i, src := range docs {
		cfg.Report(pdfnup.Progress{
			Phase:   pdfnup.PhaseConvert,
			Percent: pdfnup.Band(0, 100, i+1, len(docs)),
			Step:    i + 1,
			Steps:   len(docs),
			Name:    src.Name,
		})
		res.InputPages += src.PageCount

		out, err := NUp(src, cfg)
		if err != nil {
			log.Error("conversion failed", "file", src.Name, "err", err)
			res.Failed++
			res.Errors = append(res.Errors, err)
			continue
		}
		log.Info("converted", "file", src.Name, "output", out.Name, "sheets", out.Sheets)
		res.Succeeded++
		res.Outputs = append(res.Outputs, out)
	}

	if cfg.PagesPerSheet > 0 {
		res.ExpectedSheets = (res.InputPages + cfg.PagesPerSheet - 1) / cfg.PagesPerSheet
	}
	return res
}

// Combine places every page of every document in srcs, in order, on a
// single sheet cfg.PagesPerRow pages wide. Slot size is taken from the
// first page of the first document. Images are skipped.
func Combine(srcs []*source.PageSource, cfg pdfnup.Config) (*Output, error) {
	cfg.Mode = pdfnup.ModeCombine
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	docs := source.Documents(srcs)
	if len(docs) == 0 {
		return nil, pdfnup.NewOpError("combine", "", pdfnup.ErrNoSources)
	}
	out, err := composeDocuments("combine", docs, cfg)
	if err != nil {
		return nil, err
	}
	out.Name = CombinedName(len(docs))
	return out, nil
}

// composeDocuments plans and draws the pages of docs according to
// cfg.Mode, then serializes the result.
func composeDocuments(op string, docs []*source.PageSource, cfg pdfnup.Config) (*Output, error) {
	log := cfg.Log()

	var pages []pageRef
	for _, src := range docs {
		if src.PageCount == 0 {
			log.Warn("document has no readable pages", "op", op, "file", src.Name)
		}
		for i := 0; i < src.PageCount; i++ {
			pages = append(pages, pageRef{src: src, index: i})
		}
	}
	if len(pages) == 0 {
		return nil, pdfnup.NewOpError(op, docs[0].Name, pdfnup.ErrNoPages)
	}

	unit := pages[0].src
	param := cfg.PagesPerSheet
	if cfg.Mode == pdfnup.ModeCombine {
		param = cfg.PagesPerRow
	}
	plan, err := layout.New(cfg.Mode, param, len(pages), unit.PageWidth, unit.PageHeight)
	if err != nil {
		return nil, err
	}
	log.Debug("layout planned", "op", op, "plan", plan.String())

	doc := container.New()
	sheets := plan.SheetsToProcess(cfg.Preview)
	placed := 0
	for i := 0; i < sheets; i++ {
		n, err := composeSheet(doc, plan, i, pages, cfg)
		if err != nil {
			return nil, pdfnup.NewOpError(op, unit.Name, err)
		}
		placed += n
	}

	data, err := serialize(op, doc, cfg)
	if err != nil {
		return nil, err
	}
	return &Output{
		Data:   data,
		Sheets: sheets,
		Pages:  placed,
		Plan:   plan,

		Placements: doc.Placements(),
	}, nil
}

// composeSheet builds sheet i of plan and returns the number of pages
// drawn on it.
func composeSheet(doc *container.Document, plan layout.Plan, i int, pages []pageRef, cfg pdfnup.Config) (int, error) {
	sheet, err := doc.AddSheet(plan.SheetWidth, plan.SheetHeight)
	if err != nil {
		return 0, err
	}
	start, end := plan.SheetRange(i)
	drawables, err := embedPages(doc, pages[start:end])
	if err != nil {
		return 0, err
	}
	for j, dr := range drawables {
		x, y := plan.Origin(j)
		// Pages keep their native size.
		if err := doc.Draw(sheet, dr, x, y, dr.Width, dr.Height); err != nil {
			return 0, err
		}
		cfg.Log().Debug("placed page", "sheet", i, "slot", j, "x", x, "y", y, "w", dr.Width, "h", dr.Height)
	}
	return len(drawables), nil
}

// embedPages imports refs in order, batching consecutive pages of the same
// source into one import call.
func embedPages(doc *container.Document, refs []pageRef) ([]container.Drawable, error) {
	out := make([]container.Drawable, 0, len(refs))
	for i := 0; i < len(refs); {
		src := refs[i].src
		j := i
		indices := make([]int, 0, len(refs)-i)
		for ; j < len(refs) && refs[j].src == src; j++ {
			indices = append(indices, refs[j].index)
		}
		drs, err := doc.EmbedPages(sourceKey(src), src.Bytes(), indices)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		out = append(out, drs...)
		i = j
	}
	return out, nil
}
