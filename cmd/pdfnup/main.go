// Pdfnup tiles, combines or merges PDF files and images.
//
// Usage:
//
//	pdfnup [-mode nup|combine|merge] [-n 2] [-row 1] [-width 800] [-d dir] [-f] [-v] file...
//
// In nup mode every PDF is written to its own nup_<n>x1_<name> file and a
// failing file does not stop the others. Combine places every page of all
// PDFs on one sheet; merge concatenates PDFs and images at one page width.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/lvillar/pdfnup"
	"github.com/lvillar/pdfnup/pageops"
	"github.com/lvillar/pdfnup/source"
)

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdfnup:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("pdfnup", flag.ContinueOnError)
	flags.SetOutput(stderr)
	mode := flags.String("mode", "nup", "composition mode: nup, combine or merge")
	perSheet := flags.Int("n", pdfnup.DefaultPagesPerSheet, "pages per sheet in nup mode (1, 2, 4, 6, 8, 9, 12)")
	perRow := flags.Int("row", pdfnup.DefaultPagesPerRow, "pages per row in combine mode (1-8)")
	width := flags.Float64("width", pdfnup.DefaultMaxMergeWidth, "maximum page width in merge mode, in points")
	dir := flags.String("d", ".", "output directory")
	force := flags.Bool("f", false, "overwrite output files if they exist")
	preview := flags.Bool("preview", false, "build only the first sheet of each output")
	verbose := flags.Bool("v", false, "log debug output")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return errors.New("no input files given")
	}

	m, err := pdfnup.ParseMode(*mode)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := pdfnup.NewConfig(
		pdfnup.WithMode(m),
		pdfnup.WithPagesPerSheet(*perSheet),
		pdfnup.WithPagesPerRow(*perRow),
		pdfnup.WithMaxMergeWidth(*width),
		pdfnup.WithPreview(*preview),
		pdfnup.WithLogger(logger),
		pdfnup.WithProgress(progressPrinter(stderr)),
	)
	// Fail on a bad layout before reading any input.
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := source.NewRegistry(logger)
	reg.AddPaths(flags.Args()...)
	if reg.Len() == 0 {
		return pdfnup.ErrNoSources
	}

	res, err := pageops.Run(pageops.Request{Sources: reg.Sources(), Config: cfg})
	endProgress(stderr)
	if err != nil {
		return err
	}

	// Check every target before writing any.
	if !*force {
		for _, out := range res.Outputs {
			path := filepath.Join(*dir, out.Name)
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				return fmt.Errorf("output file %q already exists", path)
			}
		}
	}
	for _, out := range res.Outputs {
		path := filepath.Join(*dir, out.Name)
		if err := os.WriteFile(path, out.Data, 0644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%d sheets\n", path, out.Sheets)
	}
	fmt.Fprintf(stdout, "%d files processed, %d failed, %d input pages\n", res.Succeeded, res.Failed, res.InputPages)
	if res.Succeeded == 0 {
		return errors.Join(res.Errors...)
	}
	return nil
}

// progressPrinter returns a ProgressFunc that redraws one status line, or
// nil when w is not a terminal.
func progressPrinter(w io.Writer) pdfnup.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	return func(p pdfnup.Progress) {
		fmt.Fprintf(w, "\r\033[K%3d%% %s %s", p.Percent, p.Phase, p.Name)
	}
}

func endProgress(w io.Writer) {
	if isTerminal(w) {
		fmt.Fprint(w, "\r\033[K")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
