package container_test

import (
	"math"
	"testing"
	"time"

	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/internal/fixture"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestInspect(t *testing.T) {
	data, err := fixture.PDF(3, 300, 400)
	if err != nil {
		t.Fatal(err)
	}
	info, err := container.Inspect(data)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.PageCount != 3 {
		t.Fatalf("expected 3 pages, got %d", info.PageCount)
	}
	if first := info.First(); !near(first.Width, 300) || !near(first.Height, 400) {
		t.Errorf("first page is %gx%g", first.Width, first.Height)
	}
}

func TestInspectGarbage(t *testing.T) {
	if _, err := container.Inspect([]byte("%PDF-1.4 nothing here")); err == nil {
		t.Error("expected error for broken PDF")
	}
}

func TestEmbedPagesAndSerialize(t *testing.T) {
	src, err := fixture.PDF(4, 200, 100)
	if err != nil {
		t.Fatal(err)
	}

	doc := container.New()
	drawables, err := doc.EmbedPages("src", src, []int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(drawables) != 4 {
		t.Fatalf("expected 4 drawables, got %d", len(drawables))
	}
	for i, dr := range drawables {
		if !near(dr.Width, 200) || !near(dr.Height, 100) {
			t.Errorf("page %d native size %gx%g", i, dr.Width, dr.Height)
		}
	}

	sheet, err := doc.AddSheet(400, 200)
	if err != nil {
		t.Fatal(err)
	}
	for j, dr := range drawables {
		x := float64(j%2) * 200
		y := 200 - float64(j/2+1)*100
		if err := doc.Draw(sheet, dr, x, y, dr.Width, dr.Height); err != nil {
			t.Fatalf("draw %d: %v", j, err)
		}
	}

	out, err := doc.Serialize(container.Tuning{CreationDate: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	info, err := container.Inspect(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.PageCount != 1 || !near(info.First().Width, 400) || !near(info.First().Height, 200) {
		t.Errorf("unexpected output %+v", info)
	}
}

func TestDrawConvertsToTopLeft(t *testing.T) {
	src, err := fixture.PDF(1, 100, 50)
	if err != nil {
		t.Fatal(err)
	}
	doc := container.New()
	pages, err := doc.EmbedPages("src", src, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	img, err := doc.EmbedImage(fixture.PNG(20, 10), container.PNG)
	if err != nil {
		t.Fatal(err)
	}

	sheet, err := doc.AddSheet(400, 200)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Draw(sheet, pages[0], 10, 20, 100, 50); err != nil {
		t.Fatal(err)
	}
	if err := doc.Draw(sheet, img, 300, 0, 20, 10); err != nil {
		t.Fatal(err)
	}

	want := []container.Placement{
		{Sheet: 0, Kind: container.KindPage, X: 10, Y: 20, Width: 100, Height: 50, Top: 130},
		{Sheet: 0, Kind: container.KindImage, X: 300, Y: 0, Width: 20, Height: 10, Top: 190},
	}
	got := doc.Placements()
	if len(got) != len(want) {
		t.Fatalf("got %d placements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("placement %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// A failed draw records nothing.
	if _, err := doc.AddSheet(10, 10); err != nil {
		t.Fatal(err)
	}
	if err := doc.Draw(sheet, img, 0, 0, 1, 1); err == nil {
		t.Fatal("expected error drawing on a finished sheet")
	}
	if n := len(doc.Placements()); n != 2 {
		t.Errorf("got %d placements after failed draw, want 2", n)
	}
}

func TestEmbedImageFallback(t *testing.T) {
	doc := container.New()

	if _, err := doc.EmbedImage(fixture.JPEG(40, 30), container.PNG); err == nil {
		t.Fatal("expected JPEG bytes to fail as PNG")
	}
	dr, err := doc.EmbedImage(fixture.JPEG(40, 30), container.JPEG)
	if err != nil {
		t.Fatalf("document should stay usable after a failed attempt: %v", err)
	}
	if !near(dr.Width, 40) || !near(dr.Height, 30) {
		t.Errorf("image size %gx%g", dr.Width, dr.Height)
	}

	sheet, err := doc.AddSheet(40, 30)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Draw(sheet, dr, 0, 0, 40, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Serialize(container.Tuning{}); err != nil {
		t.Fatal(err)
	}
}

func TestEmbedSixteenBitPNGFails(t *testing.T) {
	doc := container.New()
	if _, err := doc.EmbedImage(fixture.PNG16(8, 8), container.PNG); err == nil {
		t.Error("expected 16-bit PNG to be rejected")
	}
}

func TestEmbedPagesUnreadable(t *testing.T) {
	doc := container.New()
	if _, err := doc.EmbedPages("bad", []byte("not a pdf at all"), []int{0}); err == nil {
		t.Error("expected import error")
	}
}

func TestDrawOnStaleSheet(t *testing.T) {
	doc := container.New()
	first, _ := doc.AddSheet(10, 10)
	if _, err := doc.AddSheet(10, 10); err != nil {
		t.Fatal(err)
	}
	dr, err := doc.EmbedImage(fixture.PNG(4, 4), container.PNG)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Draw(first, dr, 0, 0, 4, 4); err == nil {
		t.Error("expected error drawing on a finished sheet")
	}
}

func TestSerializeEmpty(t *testing.T) {
	if _, err := container.New().Serialize(container.Tuning{}); err == nil {
		t.Error("expected error for empty document")
	}
}

func TestSerializeObjectStreams(t *testing.T) {
	doc := container.New()
	dr, err := doc.EmbedImage(fixture.PNG(20, 10), container.PNG)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		s, err := doc.AddSheet(20, 10)
		if err != nil {
			t.Fatal(err)
		}
		if err := doc.Draw(s, dr, 0, 0, 20, 10); err != nil {
			t.Fatal(err)
		}
	}
	out, err := doc.Serialize(container.Tuning{ObjectStreams: true})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	info, err := container.Inspect(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", info.PageCount)
	}
}
