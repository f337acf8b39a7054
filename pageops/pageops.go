// Package pageops composes ingested sources into new PDF documents.
//
// Three operations are provided: N-up tiling of each document onto fixed
// grids, combining every page of a batch onto a single sheet, and merging
// documents and images into one document whose pages share a width.
//
// Source pages are imported as templates into a fresh container document
// and drawn at their native size; only merge rescales.
// Every call is sequential and self-contained: nothing is cached between
// calls and no two files are processed at the same time.
package pageops

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/layout"
	"github.com/lvillar/pdfnup/source"
)

// Output is one generated PDF.
type Output struct {
	Name   string
	Data   []byte
	Sheets int // sheets written
	Pages  int // source pages and images placed
	Plan   layout.Plan
	// Width is the shared sheet width of merged output; zero otherwise.
	Width float64
	// Placements lists every page and image drawn, in drawing order.
	Placements []container.Placement
}

// BatchResult summarizes a Run or NUpBatch call.
type BatchResult struct {
	Outputs    []*Output
	Succeeded  int
	Failed     int
	Errors     []error
	InputPages int
	// ExpectedSheets is the output sheet count implied by the input page
	// total: 1 for combine, ceil(InputPages/pagesPerSheet) for N-up and
	// InputPages for merge.
	ExpectedSheets int
}

// Request is everything a composition call needs.
type Request struct {
	Sources []*source.PageSource
	Config  pdfnup.Config
}

// Run validates the configuration and dispatches on its mode. Invalid
// layouts fail before any source is read. N-up errors are reported per
// file in the result; combine and merge errors abort the call.
func Run(req Request) (*BatchResult, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case pdfnup.ModeNUp:
		if len(source.Documents(req.Sources)) == 0 {
			return nil, pdfnup.NewOpError("nup", "", pdfnup.ErrNoSources)
		}
		return NUpBatch(req.Sources, cfg), nil
	case pdfnup.ModeCombine:
		out, err := Combine(req.Sources, cfg)
		if err != nil {
			return nil, err
		}
		return single(out, out.Pages, 1), nil
	case pdfnup.ModeMerge:
		out, err := Merge(req.Sources, cfg)
		if err != nil {
			return nil, err
		}
		return single(out, out.Pages, out.Pages), nil
	}
	return nil, fmt.Errorf("%w: %v", pdfnup.ErrInvalidLayout, cfg.Mode)
}

func single(out *Output, pages, expected int) *BatchResult {
	return &BatchResult{
		Outputs:        []*Output{out},
		Succeeded:      1,
		InputPages:     pages,
		ExpectedSheets: expected,
	}
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// sanitizeName reduces a user supplied file name to a safe base name.
func sanitizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		return "document.pdf"
	}
	return name
}

// NUpName returns the output name for an N-up conversion of original.
func NUpName(pagesPerSheet int, original string) string {
	return fmt.Sprintf("nup_%dx1_%s", pagesPerSheet, sanitizeName(original))
}

// MergedName returns the output name for a merge of fileCount files.
func MergedName(fileCount int) string {
	return fmt.Sprintf("merged_%d_files.pdf", fileCount)
}

// CombinedName returns the output name for a combine of fileCount files.
func CombinedName(fileCount int) string {
	return fmt.Sprintf("combined_%d_files.pdf", fileCount)
}

// sourceKey identifies a source inside one container document.
func sourceKey(src *source.PageSource) string {
	return fmt.Sprintf("%p", src)
}

func tuning(cfg pdfnup.Config) container.Tuning {
	return container.Tuning{
		ObjectStreams: cfg.UseObjectStreams(),
		CreationDate:  cfg.CreationDate,
	}
}

// serialize writes doc, mapping writer failures to ErrSerialization.
func serialize(op string, doc *container.Document, cfg pdfnup.Config) ([]byte, error) {
	data, err := doc.Serialize(tuning(cfg))
	if err != nil {
		return nil, pdfnup.NewOpError(op, "", fmt.Errorf("%w: %v", pdfnup.ErrSerialization, err))
	}
	return data, nil
}
