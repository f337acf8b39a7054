package mcp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/container"
	"github.com/lvillar/pdfnup/layout"
)

// RegisterDefaultResources adds the built-in resources to the server.
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URI:         "pdf://pages",
		Name:        "PDF Page Info",
		Description: "Get page information from a PDF (count, dimensions). Pass the file path as a query parameter: pdf://pages?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handlePagesResource,
	})

	s.AddResource(Resource{
		URI:         "nup://layouts",
		Name:        "Supported Layouts",
		Description: "The N-up grids and combine row widths accepted by the composition tools.",
		MIMEType:    "application/json",
		Handler:     handleLayoutsResource,
	})
}

func extractPathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Query().Get("path")
}

func handlePagesResource(uri string) ([]ResourceContent, error) {
	path := extractPathFromURI(uri)
	if path == "" {
		return nil, fmt.Errorf("missing 'path' parameter in URI")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	info, err := container.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdfnup.ErrPageCountUnavailable, err)
	}

	pages := make([]map[string]interface{}, 0, len(info.Pages))
	for i, p := range info.Pages {
		pages = append(pages, map[string]interface{}{
			"page":   i + 1,
			"width":  p.Width,
			"height": p.Height,
		})
	}

	return jsonContent(uri, map[string]interface{}{
		"numPages": info.PageCount,
		"pages":    pages,
	})
}

func handleLayoutsResource(uri string) ([]ResourceContent, error) {
	grids := make([]map[string]interface{}, 0, len(layout.Supported()))
	for _, n := range layout.Supported() {
		cols, rows, err := layout.Grid(n)
		if err != nil {
			return nil, err
		}
		grids = append(grids, map[string]interface{}{
			"pagesPerSheet": n,
			"cols":          cols,
			"rows":          rows,
		})
	}

	return jsonContent(uri, map[string]interface{}{
		"nup": grids,
		"combine": map[string]interface{}{
			"minPagesPerRow": 1,
			"maxPagesPerRow": pdfnup.MaxPagesPerRow,
		},
		"merge": map[string]interface{}{
			"defaultMaxWidth": pdfnup.DefaultMaxMergeWidth,
		},
	})
}

func jsonContent(uri string, v interface{}) ([]ResourceContent, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(jsonBytes),
	}}, nil
}
