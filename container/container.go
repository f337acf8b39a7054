// Package container builds output PDF documents out of sheets and
// drawables.
//
// Source PDF pages are imported as form XObject templates through gofpdi and
// placed with gofpdf; raster images are registered with gofpdf directly.
// Coordinates passed to Draw use a bottom-left origin; the conversion to
// gofpdf's top-left user space happens here and nowhere else.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
)

// ImageFormat names an image encoding the writer can embed without
// transcoding.
type ImageFormat string

const (
	PNG  ImageFormat = "PNG"
	JPEG ImageFormat = "JPG"
)

// Kind distinguishes imported pages from images.
type Kind int

const (
	KindPage Kind = iota
	KindImage
)

// Drawable is an embedded page or image ready to be placed on a sheet.
// Width and Height are its native size in points.
type Drawable struct {
	Kind   Kind
	Width  float64
	Height float64
	tpl    int
	image  string
}

// Sheet is one page of the output document.
type Sheet struct {
	Index  int
	Width  float64
	Height float64
}

// Placement records one Draw call. X and Y are the bottom-left corner in
// sheet space; Top is the distance of the drawable's top edge from the
// sheet's top edge, as handed to the writer.
type Placement struct {
	Sheet  int
	Kind   Kind
	X, Y   float64
	Width  float64
	Height float64
	Top    float64
}

// Tuning controls serialization.
type Tuning struct {
	// ObjectStreams rewrites the output with compressed object and
	// cross-reference streams.
	ObjectStreams bool
	// CreationDate, if set, replaces the current time in the document info.
	CreationDate time.Time
}

// Document is an output PDF under construction. It is not safe for
// concurrent use.
type Document struct {
	pdf     *gofpdf.Fpdf
	imp     *gofpdi.Importer
	streams map[string]*io.ReadSeeker
	current int
	sheets  int
	images  int
	placed  []Placement
}

// A4 fallback used when a source page reports no media box.
const (
	defaultWidth  = 595.28
	defaultHeight = 841.89
)

// New creates an empty document measured in points.
func New() *Document {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("pdfnup", true)
	return &Document{
		pdf:     pdf,
		imp:     gofpdi.NewImporter(),
		streams: make(map[string]*io.ReadSeeker),
		current: -1,
	}
}

// SheetCount returns the number of sheets added so far.
func (d *Document) SheetCount() int {
	return d.sheets
}

// AddSheet appends a sheet of the given size and makes it current.
func (d *Document) AddSheet(width, height float64) (Sheet, error) {
	if width <= 0 || height <= 0 {
		return Sheet{}, fmt.Errorf("container: invalid sheet size %gx%g", width, height)
	}
	d.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	if d.pdf.Err() {
		return Sheet{}, fmt.Errorf("container: adding sheet: %w", d.pdf.Error())
	}
	s := Sheet{Index: d.sheets, Width: width, Height: height}
	d.current = s.Index
	d.sheets++
	return s, nil
}

// EmbedPages imports the pages at the given 0-based indices of the PDF in
// data. key identifies the source; pages of one source share a parsed
// reader, so callers must pass the same key and bytes for one file.
func (d *Document) EmbedPages(key string, data []byte, indices []int) (drawables []Drawable, err error) {
	if d.pdf.Err() {
		return nil, d.pdf.Error()
	}
	rs, ok := d.streams[key]
	if !ok {
		var r io.ReadSeeker = bytes.NewReader(data)
		rs = &r
		d.streams[key] = rs
	}

	// gofpdi panics on sources it cannot parse.
	defer func() {
		if r := recover(); r != nil {
			drawables = nil
			err = fmt.Errorf("container: importing %s: %v", key, r)
		}
	}()

	drawables = make([]Drawable, 0, len(indices))
	for _, i := range indices {
		tpl, w, h := d.importPage(rs, i+1)
		if d.pdf.Err() {
			return nil, fmt.Errorf("container: importing %s page %d: %w", key, i+1, d.pdf.Error())
		}
		drawables = append(drawables, Drawable{Kind: KindPage, Width: w, Height: h, tpl: tpl})
	}
	return drawables, nil
}

// importPage imports one 1-based page and returns its template id and
// media box size.
func (d *Document) importPage(rs *io.ReadSeeker, pageNum int) (tpl int, w, h float64) {
	tpl = d.imp.ImportPageFromStream(d.pdf, rs, pageNum, "/MediaBox")
	sizes := d.imp.GetPageSizes()
	if dims, ok := sizes[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w = mb["w"]
			h = mb["h"]
		}
	}
	if w == 0 || h == 0 {
		w, h = defaultWidth, defaultHeight
	}
	return tpl, w, h
}

// EmbedImage registers image bytes of the given format. A failed attempt
// leaves the document usable, so callers may retry with another format.
func (d *Document) EmbedImage(data []byte, format ImageFormat) (Drawable, error) {
	if d.pdf.Err() {
		return Drawable{}, d.pdf.Error()
	}
	name := fmt.Sprintf("img%d", d.images)
	d.images++

	info := d.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: string(format)}, bytes.NewReader(data))
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return Drawable{}, fmt.Errorf("container: embedding %s image: %w", format, err)
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return Drawable{}, fmt.Errorf("container: %s image has no size", format)
	}
	return Drawable{Kind: KindImage, Width: info.Width(), Height: info.Height(), image: name}, nil
}

// Draw places dr on sheet s with its lower-left corner at (x, y), scaled to
// w x h. Only the most recently added sheet can be drawn on.
func (d *Document) Draw(s Sheet, dr Drawable, x, y, w, h float64) error {
	if s.Index != d.current {
		return fmt.Errorf("container: sheet %d is not current", s.Index)
	}
	top := s.Height - y - h
	switch dr.Kind {
	case KindPage:
		d.imp.UseImportedTemplate(d.pdf, dr.tpl, x, top, w, h)
	case KindImage:
		d.pdf.ImageOptions(dr.image, x, top, w, h, false, gofpdf.ImageOptions{}, 0, "")
	default:
		return fmt.Errorf("container: unknown drawable kind %d", dr.Kind)
	}
	if d.pdf.Err() {
		return fmt.Errorf("container: drawing on sheet %d: %w", s.Index, d.pdf.Error())
	}
	d.placed = append(d.placed, Placement{
		Sheet:  s.Index,
		Kind:   dr.Kind,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		Top:    top,
	})
	return nil
}

// Placements returns every successful Draw in call order.
func (d *Document) Placements() []Placement {
	return append([]Placement(nil), d.placed...)
}

// Serialize closes the document and returns its bytes. The document cannot
// be modified afterwards.
func (d *Document) Serialize(t Tuning) ([]byte, error) {
	if d.sheets == 0 {
		return nil, errors.New("container: document has no sheets")
	}
	if !t.CreationDate.IsZero() {
		d.pdf.SetCreationDate(t.CreationDate)
	}
	d.pdf.SetCatalogSort(true)

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("container: writing: %w", err)
	}
	if !t.ObjectStreams {
		return buf.Bytes(), nil
	}
	return optimize(buf.Bytes())
}
