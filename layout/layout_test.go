package layout_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/layout"
)

func TestGridTable(t *testing.T) {
	want := map[int][2]int{
		1: {1, 1}, 2: {2, 1}, 4: {2, 2}, 6: {3, 2}, 8: {4, 2}, 9: {3, 3}, 12: {4, 3},
	}
	for _, v := range layout.Supported() {
		cols, rows, err := layout.Grid(v)
		if err != nil {
			t.Fatalf("Grid(%d): %v", v, err)
		}
		if got := [2]int{cols, rows}; got != want[v] {
			t.Errorf("Grid(%d) = %v, want %v", v, got, want[v])
		}
		if cols*rows != v {
			t.Errorf("Grid(%d): cols*rows = %d", v, cols*rows)
		}
	}
}

func TestGridInvalid(t *testing.T) {
	for _, v := range []int{-1, 0, 3, 5, 7, 10, 11, 13, 16} {
		if _, _, err := layout.Grid(v); !errors.Is(err, pdfnup.ErrInvalidLayout) {
			t.Errorf("Grid(%d): expected ErrInvalidLayout, got %v", v, err)
		}
		if _, err := layout.NUp(v, 10, 100, 100); !errors.Is(err, pdfnup.ErrInvalidLayout) {
			t.Errorf("NUp(%d): expected ErrInvalidLayout, got %v", v, err)
		}
	}
}

func TestNUpSheetCount(t *testing.T) {
	for _, v := range layout.Supported() {
		for n := 0; n <= 30; n++ {
			p, err := layout.NUp(v, n, 10, 20)
			if err != nil {
				t.Fatal(err)
			}
			want := (n + v - 1) / v
			if p.SheetCount != want {
				t.Errorf("v=%d n=%d: sheets = %d, want %d", v, n, p.SheetCount, want)
			}
			if p.SheetCount == 0 {
				continue
			}
			start, end := p.SheetRange(p.SheetCount - 1)
			last := end - start
			wantLast := v
			if r := n % v; r != 0 {
				wantLast = r
			}
			if last != wantLast {
				t.Errorf("v=%d n=%d: last sheet holds %d, want %d", v, n, last, wantLast)
			}
		}
	}
}

func TestNUpGeometry(t *testing.T) {
	p, err := layout.NUp(6, 7, 595, 842)
	if err != nil {
		t.Fatal(err)
	}
	want := layout.Plan{
		Mode:        pdfnup.ModeNUp,
		Cols:        3,
		Rows:        2,
		PerSheet:    6,
		PageCount:   7,
		SheetCount:  2,
		UnitWidth:   595,
		UnitHeight:  842,
		SheetWidth:  1785,
		SheetHeight: 1684,
	}
	if d := cmp.Diff(want, p); d != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", d)
	}
}

func TestOriginTopToBottom(t *testing.T) {
	p, err := layout.NUp(4, 4, 100, 200)
	if err != nil {
		t.Fatal(err)
	}
	type pt struct{ X, Y float64 }
	var got []pt
	for j := 0; j < 4; j++ {
		x, y := p.Origin(j)
		got = append(got, pt{x, y})
	}
	want := []pt{{0, 200}, {100, 200}, {0, 0}, {100, 0}}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("origins (-want +got):\n%s", d)
	}
}

func TestTwoUpFourPages(t *testing.T) {
	p, err := layout.New(pdfnup.ModeNUp, 2, 4, 300, 400)
	if err != nil {
		t.Fatal(err)
	}
	if p.SheetCount != 2 || p.Cols != 2 || p.Rows != 1 {
		t.Fatalf("unexpected plan %v", p)
	}
	for i := 0; i < 2; i++ {
		start, end := p.SheetRange(i)
		if end-start != 2 {
			t.Errorf("sheet %d holds %d pages", i, end-start)
		}
	}
	if got := p.SlotOf(3); got != (layout.Slot{Sheet: 1, Col: 1, Row: 0}) {
		t.Errorf("SlotOf(3) = %+v", got)
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		perRow, pages int
		rows          int
	}{
		{1, 1, 1},
		{1, 5, 5},
		{3, 7, 3},
		{8, 8, 1},
		{8, 100, 13},
	}
	for _, tc := range tests {
		p, err := layout.Combine(tc.perRow, tc.pages, 50, 70)
		if err != nil {
			t.Fatal(err)
		}
		if p.SheetCount != 1 {
			t.Errorf("combine sheets = %d", p.SheetCount)
		}
		if p.Rows != tc.rows {
			t.Errorf("perRow=%d pages=%d: rows = %d, want %d", tc.perRow, tc.pages, p.Rows, tc.rows)
		}
		if p.SheetWidth != 50*float64(tc.perRow) || p.SheetHeight != 70*float64(tc.rows) {
			t.Errorf("sheet size %gx%g", p.SheetWidth, p.SheetHeight)
		}
		if start, end := p.SheetRange(0); start != 0 || end != tc.pages {
			t.Errorf("range = [%d,%d)", start, end)
		}
	}
}

func TestCombineInvalid(t *testing.T) {
	for _, r := range []int{0, 9, -3} {
		if _, err := layout.Combine(r, 4, 1, 1); !errors.Is(err, pdfnup.ErrInvalidLayout) {
			t.Errorf("Combine(%d): expected ErrInvalidLayout, got %v", r, err)
		}
	}
	if _, err := layout.New(pdfnup.ModeMerge, 1, 1, 1, 1); !errors.Is(err, pdfnup.ErrInvalidLayout) {
		t.Errorf("merge has no grid, got %v", err)
	}
}

func TestPreviewTruncates(t *testing.T) {
	p, _ := layout.NUp(2, 9, 1, 1)
	if got := p.SheetsToProcess(true); got != 1 {
		t.Errorf("preview sheets = %d", got)
	}
	if got := p.SheetsToProcess(false); got != 5 {
		t.Errorf("sheets = %d", got)
	}
	empty, _ := layout.NUp(2, 0, 1, 1)
	if got := empty.SheetsToProcess(true); got != 0 {
		t.Errorf("empty preview sheets = %d", got)
	}
}
