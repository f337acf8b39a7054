// Package layout plans output sheet geometry for N-up and combine
// composition.
//
// A Plan is pure data: it never reads files. The coordinate origin is the
// bottom-left corner of a sheet, and grid rows are numbered from the top,
// so row r occupies y = SheetHeight - (r+1)*UnitHeight.
package layout

import (
	"fmt"

	"github.com/lvillar/pdfnup"
)

type grid struct{ cols, rows int }

// grids is the closed table of supported pages-per-sheet values.
var grids = map[int]grid{
	1:  {1, 1},
	2:  {2, 1},
	4:  {2, 2},
	6:  {3, 2},
	8:  {4, 2},
	9:  {3, 3},
	12: {4, 3},
}

// Grid returns the column and row count for a pages-per-sheet value.
func Grid(pagesPerSheet int) (cols, rows int, err error) {
	g, ok := grids[pagesPerSheet]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d pages per sheet", pdfnup.ErrInvalidLayout, pagesPerSheet)
	}
	return g.cols, g.rows, nil
}

// Supported lists the valid pages-per-sheet values in ascending order.
func Supported() []int {
	return []int{1, 2, 4, 6, 8, 9, 12}
}

// Plan describes the sheets produced for one source page sequence.
type Plan struct {
	Mode        pdfnup.Mode
	Cols, Rows  int
	PerSheet    int // source pages assigned to each sheet
	PageCount   int
	SheetCount  int
	UnitWidth   float64
	UnitHeight  float64
	SheetWidth  float64
	SheetHeight float64
}

// Slot is the grid cell of one source page.
type Slot struct {
	Sheet int
	Col   int
	Row   int
}

// New plans the layout for mode. param is pages per sheet for ModeNUp and
// pages per row for ModeCombine.
func New(mode pdfnup.Mode, param, pageCount int, unitWidth, unitHeight float64) (Plan, error) {
	switch mode {
	case pdfnup.ModeNUp:
		return NUp(param, pageCount, unitWidth, unitHeight)
	case pdfnup.ModeCombine:
		return Combine(param, pageCount, unitWidth, unitHeight)
	}
	return Plan{}, fmt.Errorf("%w: mode %v has no grid", pdfnup.ErrInvalidLayout, mode)
}

// NUp plans a fixed grid from the pages-per-sheet table. The last sheet
// holds the remainder when pageCount is not a multiple of pagesPerSheet.
func NUp(pagesPerSheet, pageCount int, unitWidth, unitHeight float64) (Plan, error) {
	cols, rows, err := Grid(pagesPerSheet)
	if err != nil {
		return Plan{}, err
	}
	if pageCount < 0 {
		return Plan{}, fmt.Errorf("%w: negative page count %d", pdfnup.ErrInvalidLayout, pageCount)
	}
	return Plan{
		Mode:        pdfnup.ModeNUp,
		Cols:        cols,
		Rows:        rows,
		PerSheet:    pagesPerSheet,
		PageCount:   pageCount,
		SheetCount:  ceilDiv(pageCount, pagesPerSheet),
		UnitWidth:   unitWidth,
		UnitHeight:  unitHeight,
		SheetWidth:  unitWidth * float64(cols),
		SheetHeight: unitHeight * float64(rows),
	}, nil
}

// Combine plans a single sheet holding every page, pagesPerRow pages wide.
// The sheet grows in height with pageCount; no upper bound is applied.
func Combine(pagesPerRow, pageCount int, unitWidth, unitHeight float64) (Plan, error) {
	if pagesPerRow < 1 || pagesPerRow > pdfnup.MaxPagesPerRow {
		return Plan{}, fmt.Errorf("%w: %d pages per row", pdfnup.ErrInvalidLayout, pagesPerRow)
	}
	if pageCount < 0 {
		return Plan{}, fmt.Errorf("%w: negative page count %d", pdfnup.ErrInvalidLayout, pageCount)
	}
	rows := ceilDiv(pageCount, pagesPerRow)
	return Plan{
		Mode:        pdfnup.ModeCombine,
		Cols:        pagesPerRow,
		Rows:        rows,
		PerSheet:    pageCount,
		PageCount:   pageCount,
		SheetCount:  1,
		UnitWidth:   unitWidth,
		UnitHeight:  unitHeight,
		SheetWidth:  unitWidth * float64(pagesPerRow),
		SheetHeight: unitHeight * float64(rows),
	}, nil
}

// Slot returns the cell of the j-th page placed on a sheet (0-based within
// that sheet).
func (p Plan) Slot(sheet, j int) Slot {
	return Slot{Sheet: sheet, Col: j % p.Cols, Row: j / p.Cols}
}

// SlotOf returns the cell of the global page index n.
func (p Plan) SlotOf(n int) Slot {
	if p.PerSheet == 0 {
		return Slot{}
	}
	return p.Slot(n/p.PerSheet, n%p.PerSheet)
}

// Origin returns the bottom-left corner of the j-th slot on a sheet.
func (p Plan) Origin(j int) (x, y float64) {
	s := p.Slot(0, j)
	x = float64(s.Col) * p.UnitWidth
	y = p.SheetHeight - float64(s.Row+1)*p.UnitHeight
	return x, y
}

// SheetRange returns the half-open range of source page indices that
// belong to sheet i.
func (p Plan) SheetRange(i int) (start, end int) {
	if p.Mode == pdfnup.ModeCombine {
		return 0, p.PageCount
	}
	start = i * p.PerSheet
	end = min(start+p.PerSheet, p.PageCount)
	if start > end {
		start = end
	}
	return start, end
}

// SheetsToProcess returns how many sheets composition builds. A preview
// builds at most the first sheet; the plan itself is unchanged.
func (p Plan) SheetsToProcess(preview bool) int {
	if preview {
		return min(1, p.SheetCount)
	}
	return p.SheetCount
}

// String returns a short human-readable description of the grid.
func (p Plan) String() string {
	return fmt.Sprintf("%s %dx%d, %d sheet(s) of %.2fx%.2f", p.Mode, p.Cols, p.Rows, p.SheetCount, p.SheetWidth, p.SheetHeight)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
