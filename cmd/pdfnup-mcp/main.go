// Command pdfnup-mcp is an MCP (Model Context Protocol) server that exposes
// PDF N-up, combine and merge composition to AI assistants.
//
// # Installation
//
//	go install github.com/lvillar/pdfnup/cmd/pdfnup-mcp@latest
//
// # Available Tools
//
//   - plan_layout: Compute sheet geometry without reading files
//   - inspect_files: Classify inputs and report page counts
//   - nup_pdf: Tile each PDF onto fixed grids
//   - combine_pdf: Put every page of a batch on one sheet
//   - merge_files: Merge PDFs and images at a shared width
//   - preview_nup: Build the first sheet only
//
// # Available Resources
//
//   - pdf://pages?path=... : Get page information
//   - nup://layouts : Supported grids and row widths
//
// Logs go to stderr; set PDFNUP_DEBUG=1 for debug output.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lvillar/pdfnup/mcp"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("PDFNUP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	server := mcp.NewServer()
	server.SetLogger(logger)

	mcp.RegisterDefaultTools(server)
	mcp.RegisterDefaultResources(server)

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfnup-mcp: %v\n", err)
		os.Exit(1)
	}
}
