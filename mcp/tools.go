package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/layout"
	"github.com/lvillar/pdfnup/pageops"
	"github.com/lvillar/pdfnup/source"
)

// RegisterDefaultTools adds all built-in composition tools to the server.
func RegisterDefaultTools(s *Server) {
	s.AddTool(planLayoutTool())
	s.AddTool(inspectFilesTool(s))
	s.AddTool(nupPDFTool(s))
	s.AddTool(combinePDFTool(s))
	s.AddTool(mergeFilesTool(s))
	s.AddTool(previewNUpTool(s))
}

var pathsSchema = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "string"},
	"description": "Paths to PDF or image files, in order",
}

func planLayoutTool() Tool {
	return Tool{
		Name:        "plan_layout",
		Description: "Compute the sheet geometry for an N-up or combine layout without reading any file: grid, sheet count, sheet size and slot origins of the first sheet.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"mode": map[string]interface{}{
					"type": "string",
					"enum": []string{"nup", "combine"},
				},
				"pagesPerSheet": map[string]interface{}{
					"type":        "integer",
					"description": "N-up grid size: 1, 2, 4, 6, 8, 9 or 12",
				},
				"pagesPerRow": map[string]interface{}{
					"type":        "integer",
					"description": "Combine row width, 1 to 8",
				},
				"pageCount":  map[string]interface{}{"type": "integer"},
				"pageWidth":  map[string]interface{}{"type": "number", "description": "Source page width in points"},
				"pageHeight": map[string]interface{}{"type": "number", "description": "Source page height in points"},
			},
			"required": []string{"pageCount", "pageWidth", "pageHeight"},
		},
		Handler: handlePlanLayout,
	}
}

func handlePlanLayout(args map[string]interface{}, _ pdfnup.ProgressFunc) (ToolResult, error) {
	cfg, err := configFromArgs(args, pdfnup.ModeNUp)
	if err != nil {
		return ToolResult{}, err
	}
	if cfg.Mode == pdfnup.ModeMerge {
		return ToolResult{}, fmt.Errorf("%w: merge has no grid", pdfnup.ErrInvalidLayout)
	}
	pageCount, _, err := intArg(args, "pageCount")
	if err != nil {
		return ToolResult{}, err
	}
	w, _ := args["pageWidth"].(float64)
	h, _ := args["pageHeight"].(float64)

	param := cfg.PagesPerSheet
	if cfg.Mode == pdfnup.ModeCombine {
		param = cfg.PagesPerRow
	}
	plan, err := layout.New(cfg.Mode, param, pageCount, w, h)
	if err != nil {
		return ToolResult{}, err
	}

	start, end := plan.SheetRange(0)
	slots := make([]map[string]interface{}, 0, end-start)
	for j := 0; j < end-start; j++ {
		x, y := plan.Origin(j)
		slot := plan.Slot(0, j)
		slots = append(slots, map[string]interface{}{
			"page": start + j + 1,
			"col":  slot.Col,
			"row":  slot.Row,
			"x":    x,
			"y":    y,
		})
	}
	return jsonResult(map[string]interface{}{
		"mode":        plan.Mode.String(),
		"cols":        plan.Cols,
		"rows":        plan.Rows,
		"sheetCount":  plan.SheetCount,
		"sheetWidth":  plan.SheetWidth,
		"sheetHeight": plan.SheetHeight,
		"firstSheet":  slots,
	})
}

func inspectFilesTool(s *Server) Tool {
	return Tool{
		Name:        "inspect_files",
		Description: "Classify input files as documents or images and report their page counts and first page sizes. Unsupported files are skipped.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"paths": pathsSchema,
			},
			"required": []string{"paths"},
		},
		Handler: func(args map[string]interface{}, _ pdfnup.ProgressFunc) (ToolResult, error) {
			paths, err := stringsArg(args, "paths")
			if err != nil {
				return ToolResult{}, err
			}
			reg := source.NewRegistry(s.logger)
			reg.AddPaths(paths...)

			files := make([]map[string]interface{}, 0, reg.Len())
			for _, src := range reg.Sources() {
				files = append(files, map[string]interface{}{
					"id":     src.ID,
					"name":   src.Name,
					"kind":   src.Kind.String(),
					"format": src.Format,
					"pages":  src.PageCount,
					"width":  src.PageWidth,
					"height": src.PageHeight,
				})
			}
			return jsonResult(map[string]interface{}{
				"files":      files,
				"skipped":    len(paths) - reg.Len(),
				"totalPages": reg.TotalPages(),
			})
		},
	}
}

func nupPDFTool(s *Server) Tool {
	return Tool{
		Name:        "nup_pdf",
		Description: "Tile the pages of each PDF onto sheets of a fixed grid and write one nup_<n>x1_<name> file per input into outputDir. Images are skipped; a failing file does not stop the rest.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"paths": pathsSchema,
				"pagesPerSheet": map[string]interface{}{
					"type":        "integer",
					"description": "1, 2, 4, 6, 8, 9 or 12 (default 2)",
				},
				"outputDir": map[string]interface{}{
					"type":        "string",
					"description": "Directory for the output files",
				},
			},
			"required": []string{"paths", "outputDir"},
		},
		Handler: func(args map[string]interface{}, progress pdfnup.ProgressFunc) (ToolResult, error) {
			args["mode"] = "nup"
			return s.runAndWrite(args, progress)
		},
	}
}

func combinePDFTool(s *Server) Tool {
	return Tool{
		Name:        "combine_pdf",
		Description: "Place every page of every PDF on a single sheet, pagesPerRow pages wide, and write it to outputDir as combined_<count>_files.pdf.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"paths": pathsSchema,
				"pagesPerRow": map[string]interface{}{
					"type":        "integer",
					"description": "1 to 8 (default 1)",
				},
				"outputDir": map[string]interface{}{"type": "string"},
			},
			"required": []string{"paths", "outputDir"},
		},
		Handler: func(args map[string]interface{}, progress pdfnup.ProgressFunc) (ToolResult, error) {
			args["mode"] = "combine"
			return s.runAndWrite(args, progress)
		},
	}
}

func mergeFilesTool(s *Server) Tool {
	return Tool{
		Name:        "merge_files",
		Description: "Merge PDFs and images into one PDF whose pages all share the same width (at most maxWidth points) and write it to outputDir as merged_<count>_files.pdf. Fails as a whole if any file cannot be embedded.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"paths": pathsSchema,
				"maxWidth": map[string]interface{}{
					"type":        "number",
					"description": "Width cap in points (default 800)",
				},
				"outputDir": map[string]interface{}{"type": "string"},
			},
			"required": []string{"paths", "outputDir"},
		},
		Handler: func(args map[string]interface{}, progress pdfnup.ProgressFunc) (ToolResult, error) {
			args["mode"] = "merge"
			return s.runAndWrite(args, progress)
		},
	}
}

func previewNUpTool(s *Server) Tool {
	return Tool{
		Name:        "preview_nup",
		Description: "Build only the first output sheet for the first PDF and return it as base64.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"paths":         pathsSchema,
				"mode":          map[string]interface{}{"type": "string", "enum": []string{"nup", "combine"}},
				"pagesPerSheet": map[string]interface{}{"type": "integer"},
				"pagesPerRow":   map[string]interface{}{"type": "integer"},
			},
			"required": []string{"paths"},
		},
		Handler: func(args map[string]interface{}, _ pdfnup.ProgressFunc) (ToolResult, error) {
			cfg, err := configFromArgs(args, pdfnup.ModeNUp)
			if err != nil {
				return ToolResult{}, err
			}
			cfg.Logger = s.logger
			srcs, err := s.loadSources(args)
			if err != nil {
				return ToolResult{}, err
			}
			res, err := pageops.Preview(srcs, cfg, nil)
			if err != nil {
				return ToolResult{}, err
			}
			out := res.Output
			return ToolResult{
				Content: []ContentBlock{
					{
						Type: "text",
						Text: fmt.Sprintf("Preview of %s: %d pages on %gx%g (%d bytes)",
							out.Name, out.Pages, out.Plan.SheetWidth, out.Plan.SheetHeight, len(out.Data)),
					},
					{
						Type:     "text",
						MIMEType: "application/pdf",
						Data:     base64.StdEncoding.EncodeToString(out.Data),
					},
				},
			}, nil
		},
	}
}

// runAndWrite runs one composition request and writes its outputs.
func (s *Server) runAndWrite(args map[string]interface{}, progress pdfnup.ProgressFunc) (ToolResult, error) {
	cfg, err := configFromArgs(args, pdfnup.ModeNUp)
	if err != nil {
		return ToolResult{}, err
	}
	cfg.Logger = s.logger
	cfg.Progress = progress

	dir, ok := args["outputDir"].(string)
	if !ok || dir == "" {
		return ToolResult{}, fmt.Errorf("missing 'outputDir' argument")
	}
	srcs, err := s.loadSources(args)
	if err != nil {
		return ToolResult{}, err
	}

	res, err := pageops.Run(pageops.Request{Sources: srcs, Config: cfg})
	if err != nil {
		return ToolResult{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ToolResult{}, fmt.Errorf("creating output directory: %w", err)
	}

	var b strings.Builder
	for _, out := range res.Outputs {
		path := filepath.Join(dir, out.Name)
		if err := os.WriteFile(path, out.Data, 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		fmt.Fprintf(&b, "Wrote %s (%d sheets, %d bytes)\n", path, out.Sheets, len(out.Data))
	}
	for _, err := range res.Errors {
		fmt.Fprintf(&b, "Failed: %v\n", err)
	}
	fmt.Fprintf(&b, "%d succeeded, %d failed; %d input pages, %d output sheets expected",
		res.Succeeded, res.Failed, res.InputPages, res.ExpectedSheets)

	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: b.String()}},
		IsError: res.Succeeded == 0,
	}, nil
}

func (s *Server) loadSources(args map[string]interface{}) ([]*source.PageSource, error) {
	paths, err := stringsArg(args, "paths")
	if err != nil {
		return nil, err
	}
	reg := source.NewRegistry(s.logger)
	reg.AddPaths(paths...)
	if reg.Len() == 0 {
		return nil, pdfnup.ErrNoSources
	}
	return reg.Sources(), nil
}

// configFromArgs builds and validates a Config from tool arguments.
func configFromArgs(args map[string]interface{}, def pdfnup.Mode) (pdfnup.Config, error) {
	mode := def
	if m, ok := args["mode"].(string); ok && m != "" {
		var err error
		if mode, err = pdfnup.ParseMode(m); err != nil {
			return pdfnup.Config{}, err
		}
	}
	opts := []pdfnup.Option{pdfnup.WithMode(mode)}
	n, ok, err := intArg(args, "pagesPerSheet")
	if err != nil {
		return pdfnup.Config{}, err
	}
	if ok {
		opts = append(opts, pdfnup.WithPagesPerSheet(n))
	}
	if n, ok, err = intArg(args, "pagesPerRow"); err != nil {
		return pdfnup.Config{}, err
	}
	if ok {
		opts = append(opts, pdfnup.WithPagesPerRow(n))
	}
	if w, ok := args["maxWidth"].(float64); ok {
		opts = append(opts, pdfnup.WithMaxMergeWidth(w))
	}
	cfg := pdfnup.NewConfig(opts...)
	return cfg, cfg.Validate()
}

// intArg reads an integer argument. A fractional number is a layout error
// rather than being truncated.
func intArg(args map[string]interface{}, key string) (int, bool, error) {
	// JSON numbers decode as float64.
	f, ok := args[key].(float64)
	if !ok {
		return 0, false, nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %v", pdfnup.ErrInvalidLayout, key, f)
	}
	return int(f), true, nil
}

func stringsArg(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing '%s' argument", key)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if p, ok := v.(string); ok && p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func jsonResult(v interface{}) (ToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(jsonBytes)}},
	}, nil
}
