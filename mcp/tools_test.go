package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/internal/fixture"
)

func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func writeTestPDF(t *testing.T, dir, name string, numPages int, w, h float64) string {
	t.Helper()
	data, err := fixture.PDF(numPages, w, h)
	if err != nil {
		t.Fatal(err)
	}
	return writeTestFile(t, dir, name, data)
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) ToolResult {
	t.Helper()
	resp := sendRequest(t, s, "tools/call", 1, map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	resultBytes, _ := json.Marshal(resp.Result)
	var result ToolResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("decoding tool result: %v", err)
	}
	return result
}

func newToolServer() *Server {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)
	RegisterDefaultResources(s)
	return s
}

func TestDefaultToolsAndResources(t *testing.T) {
	s := newToolServer()
	var names []string
	for name := range s.tools {
		names = append(names, name)
	}
	var uris []string
	for uri := range s.resources {
		uris = append(uris, uri)
	}
	sortStrings := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	wantTools := []string{"combine_pdf", "inspect_files", "merge_files", "nup_pdf", "plan_layout", "preview_nup"}
	if d := cmp.Diff(wantTools, names, sortStrings); d != "" {
		t.Errorf("tools (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{"nup://layouts", "pdf://pages"}, uris, sortStrings); d != "" {
		t.Errorf("resources (-want +got):\n%s", d)
	}
}

func TestPlanLayoutTool(t *testing.T) {
	result := callTool(t, newToolServer(), "plan_layout", map[string]interface{}{
		"mode":          "nup",
		"pagesPerSheet": 4,
		"pageCount":     5,
		"pageWidth":     100,
		"pageHeight":    200,
	})
	if result.IsError {
		t.Fatalf("tool error: %s", result.Content[0].Text)
	}

	var plan struct {
		Cols, Rows  int
		SheetCount  int
		SheetWidth  float64
		SheetHeight float64
		FirstSheet  []struct {
			Page, Col, Row int
			X, Y           float64
		}
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), &plan); err != nil {
		t.Fatal(err)
	}
	if plan.Cols != 2 || plan.Rows != 2 || plan.SheetCount != 2 {
		t.Errorf("grid %dx%d, %d sheets", plan.Cols, plan.Rows, plan.SheetCount)
	}
	if plan.SheetWidth != 200 || plan.SheetHeight != 400 {
		t.Errorf("sheet %gx%g", plan.SheetWidth, plan.SheetHeight)
	}
	var origins [][2]float64
	for _, s := range plan.FirstSheet {
		origins = append(origins, [2]float64{s.X, s.Y})
	}
	want := [][2]float64{{0, 200}, {100, 200}, {0, 0}, {100, 0}}
	if d := cmp.Diff(want, origins); d != "" {
		t.Errorf("origins (-want +got):\n%s", d)
	}
}

func TestPlanLayoutToolInvalid(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unsupported grid", map[string]interface{}{"pagesPerSheet": 5}},
		{"fractional grid", map[string]interface{}{"pagesPerSheet": 2.5}},
		{"fractional row", map[string]interface{}{"mode": "combine", "pagesPerRow": 1.5}},
		{"fractional page count", map[string]interface{}{"pagesPerSheet": 2, "pageCount": 4.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"pageCount": 5, "pageWidth": 100, "pageHeight": 100}
			for k, v := range tt.args {
				args[k] = v
			}
			result := callTool(t, newToolServer(), "plan_layout", args)
			if !result.IsError || !strings.Contains(result.Content[0].Text, "invalid layout") {
				t.Errorf("expected invalid layout error, got %+v", result)
			}
		})
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{"whole": 4.0, "half": 2.5, "text": "4"}

	if n, ok, err := intArg(args, "whole"); err != nil || !ok || n != 4 {
		t.Errorf("whole = %d, %v, %v", n, ok, err)
	}
	if _, ok, err := intArg(args, "missing"); err != nil || ok {
		t.Errorf("missing = %v, %v", ok, err)
	}
	if _, ok, err := intArg(args, "text"); err != nil || ok {
		t.Errorf("text = %v, %v", ok, err)
	}
	if _, _, err := intArg(args, "half"); !errors.Is(err, pdfnup.ErrInvalidLayout) {
		t.Errorf("half: expected ErrInvalidLayout, got %v", err)
	}
}

func TestNUpToolRejectsFractionalGrid(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir, "doc.pdf", 4, 100, 100)
	result := callTool(t, newToolServer(), "nup_pdf", map[string]interface{}{
		"paths":         []interface{}{path},
		"pagesPerSheet": 2.5,
		"outputDir":     dir,
	})
	if !result.IsError || !strings.Contains(result.Content[0].Text, "invalid layout") {
		t.Errorf("expected invalid layout error, got %+v", result)
	}
}

func TestInspectFilesTool(t *testing.T) {
	dir := t.TempDir()
	paths := []interface{}{
		writeTestPDF(t, dir, "doc.pdf", 3, 300, 400),
		writeTestFile(t, dir, "a.png", fixture.PNG(20, 10)),
		writeTestFile(t, dir, "notes.txt", []byte("hello")),
	}
	result := callTool(t, newToolServer(), "inspect_files", map[string]interface{}{"paths": paths})

	var got struct {
		Files []struct {
			Name, Kind string
			Pages      int
		}
		Skipped    int
		TotalPages int
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Files) != 2 || got.Skipped != 1 || got.TotalPages != 4 {
		t.Fatalf("unexpected inspection: %+v", got)
	}
	if got.Files[0].Kind != "document" || got.Files[1].Kind != "image" {
		t.Errorf("kinds %q, %q", got.Files[0].Kind, got.Files[1].Kind)
	}
}

func TestNUpTool(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	paths := []interface{}{
		writeTestPDF(t, in, "a.pdf", 4, 100, 100),
		writeTestPDF(t, in, "b.pdf", 3, 100, 100),
	}
	result := callTool(t, newToolServer(), "nup_pdf", map[string]interface{}{
		"paths":         paths,
		"pagesPerSheet": 2,
		"outputDir":     out,
	})
	if result.IsError {
		t.Fatalf("tool error: %s", result.Content[0].Text)
	}
	if !strings.Contains(result.Content[0].Text, "2 succeeded, 0 failed") {
		t.Errorf("unexpected summary: %s", result.Content[0].Text)
	}

	for name, sheets := range map[string]int{"nup_2x1_a.pdf": 2, "nup_2x1_b.pdf": 2} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("missing output: %v", err)
		}
		info, err := container.Inspect(data)
		if err != nil {
			t.Fatal(err)
		}
		if info.PageCount != sheets {
			t.Errorf("%s: %d sheets, want %d", name, info.PageCount, sheets)
		}
	}
}

func TestCombineTool(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	paths := []interface{}{
		writeTestPDF(t, in, "a.pdf", 2, 100, 100),
		writeTestPDF(t, in, "b.pdf", 2, 100, 100),
	}
	result := callTool(t, newToolServer(), "combine_pdf", map[string]interface{}{
		"paths":       paths,
		"pagesPerRow": 2,
		"outputDir":   out,
	})
	if result.IsError {
		t.Fatalf("tool error: %s", result.Content[0].Text)
	}
	data, err := os.ReadFile(filepath.Join(out, "combined_2_files.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	info, err := container.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if first := info.First(); info.PageCount != 1 || first.Width != 200 || first.Height != 200 {
		t.Errorf("got %d sheets, first %gx%g", info.PageCount, first.Width, first.Height)
	}
}

func TestMergeToolAbortsOnBadImage(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	paths := []interface{}{
		writeTestPDF(t, in, "a.pdf", 1, 100, 100),
		writeTestFile(t, in, "broken.png", []byte("definitely not an image")),
	}
	result := callTool(t, newToolServer(), "merge_files", map[string]interface{}{
		"paths":     paths,
		"outputDir": out,
	})
	if !result.IsError || !strings.Contains(result.Content[0].Text, "broken.png") {
		t.Errorf("expected error naming the file, got %+v", result)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("expected no output files, found %d", len(entries))
	}
}

func TestMergeToolProgress(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      9,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name": "merge_files",
			"arguments": map[string]interface{}{
				"paths": []interface{}{
					writeTestPDF(t, in, "a.pdf", 1, 100, 100),
					writeTestFile(t, in, "b.png", fixture.PNG(50, 50)),
				},
				"outputDir": out,
			},
			"_meta": map[string]interface{}{"progressToken": "tok"},
		},
	}
	reqBytes, _ := json.Marshal(req)

	var output bytes.Buffer
	s := NewServerWithIO(bytes.NewReader(append(reqBytes, '\n')), &output)
	RegisterDefaultTools(s)
	s.Run()

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	// Two analysis steps, two creation steps, two serialization steps and
	// the response.
	if len(lines) != 7 {
		t.Fatalf("expected 7 messages, got %d: %s", len(lines), output.String())
	}
	var progress []float64
	for _, line := range lines[:6] {
		var n struct {
			Method string
			Params struct {
				ProgressToken string
				Progress      float64
			}
		}
		if err := json.Unmarshal([]byte(line), &n); err != nil {
			t.Fatal(err)
		}
		if n.Method != "notifications/progress" || n.Params.ProgressToken != "tok" {
			t.Errorf("unexpected notification: %s", line)
		}
		progress = append(progress, n.Params.Progress)
	}
	if d := cmp.Diff([]float64{25, 50, 70, 90, 95, 100}, progress); d != "" {
		t.Errorf("progress (-want +got):\n%s", d)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal([]byte(lines[6]), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == nil || string(*resp.ID) != "9" {
		t.Errorf("last message is not the response: %s", lines[6])
	}
	if _, err := os.Stat(filepath.Join(out, "merged_2_files.pdf")); err != nil {
		t.Error(err)
	}
}

func TestPreviewTool(t *testing.T) {
	in := t.TempDir()
	result := callTool(t, newToolServer(), "preview_nup", map[string]interface{}{
		"paths":         []interface{}{writeTestPDF(t, in, "a.pdf", 9, 100, 100)},
		"pagesPerSheet": 4,
	})
	if result.IsError || len(result.Content) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	data, err := base64.StdEncoding.DecodeString(result.Content[1].Data)
	if err != nil {
		t.Fatal(err)
	}
	info, err := container.Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if info.PageCount != 1 {
		t.Errorf("preview has %d sheets", info.PageCount)
	}
}

func TestPagesResource(t *testing.T) {
	p := writeTestPDF(t, t.TempDir(), "doc.pdf", 2, 300, 400)
	resp := sendRequest(t, newToolServer(), "resources/read", 1, map[string]interface{}{
		"uri": "pdf://pages?path=" + p,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var pages struct {
		NumPages int
		Pages    []struct{ Width, Height float64 }
	}
	readResourceJSON(t, resp, &pages)
	if pages.NumPages != 2 || len(pages.Pages) != 2 || pages.Pages[1].Width != 300 {
		t.Errorf("unexpected page info: %+v", pages)
	}
}

func readResourceJSON(t *testing.T, resp jsonrpcResponse, v interface{}) {
	t.Helper()
	resultBytes, _ := json.Marshal(resp.Result)
	var result struct {
		Contents []ResourceContent
	}
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), v); err != nil {
		t.Fatal(err)
	}
}

func TestLayoutsResource(t *testing.T) {
	resp := sendRequest(t, newToolServer(), "resources/read", 1, map[string]interface{}{
		"uri": "nup://layouts",
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var layouts struct {
		NUp []struct{ PagesPerSheet, Cols, Rows int }
	}
	readResourceJSON(t, resp, &layouts)
	if len(layouts.NUp) != 7 || layouts.NUp[6].PagesPerSheet != 12 || layouts.NUp[6].Cols != 4 {
		t.Errorf("unexpected layouts: %+v", layouts.NUp)
	}
}
