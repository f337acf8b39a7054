package pdfnup

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Mode selects how sources are composed into the output document.
type Mode int

const (
	// ModeNUp tiles several source pages onto each output sheet.
	ModeNUp Mode = iota
	// ModeCombine places all pages of the batch on a single sheet.
	ModeCombine
	// ModeMerge concatenates documents and images with a shared page width.
	ModeMerge
)

func (m Mode) String() string {
	switch m {
	case ModeNUp:
		return "nup"
	case ModeCombine:
		return "combine"
	case ModeMerge:
		return "merge"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name ("nup", "combine" or "merge") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nup", "n-up":
		return ModeNUp, nil
	case "combine":
		return ModeCombine, nil
	case "merge":
		return ModeMerge, nil
	}
	return 0, fmt.Errorf("pdfnup: unknown mode %q", s)
}

// Defaults applied by NewConfig.
const (
	DefaultPagesPerSheet = 2
	DefaultPagesPerRow   = 1
	DefaultMaxMergeWidth = 800
	DefaultJPEGQuality   = 80
	MaxPagesPerRow       = 8
)

// Config is the full set of recognized options for one composition call.
// A Config is a plain value; nothing in it outlives the call it is passed to.
type Config struct {
	Mode          Mode
	PagesPerSheet int // ModeNUp only
	PagesPerRow   int // ModeCombine only
	Preview       bool

	MaxMergeWidth float64
	JPEGQuality   int

	// ObjectStreams requests compressed object and xref streams when the
	// container is serialized. A nil value means the per-mode default.
	ObjectStreams *bool
	CreationDate  time.Time

	Logger   *slog.Logger
	Progress ProgressFunc
}

// Option is a functional option for configuring a composition call via NewConfig.
type Option func(*Config)

// WithMode sets the composition mode.
func WithMode(m Mode) Option {
	return func(c *Config) {
		c.Mode = m
	}
}

// WithPagesPerSheet sets the N-up grid size. Valid values are 1, 2, 4, 6, 8, 9 and 12.
func WithPagesPerSheet(n int) Option {
	return func(c *Config) {
		c.PagesPerSheet = n
	}
}

// WithPagesPerRow sets the number of columns used by ModeCombine (1 to 8).
func WithPagesPerRow(n int) Option {
	return func(c *Config) {
		c.PagesPerRow = n
	}
}

// WithPreview limits composition to the first output sheet.
func WithPreview(preview bool) Option {
	return func(c *Config) {
		c.Preview = preview
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithProgress installs a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Config) {
		c.Progress = fn
	}
}

// WithMaxMergeWidth caps the shared sheet width of merged output.
func WithMaxMergeWidth(w float64) Option {
	return func(c *Config) {
		c.MaxMergeWidth = w
	}
}

// WithJPEGQuality sets the quality (1-100) used when an image is transcoded.
func WithJPEGQuality(q int) Option {
	return func(c *Config) {
		c.JPEGQuality = q
	}
}

// WithObjectStreams forces object stream compression on or off.
func WithObjectStreams(on bool) Option {
	return func(c *Config) {
		c.ObjectStreams = &on
	}
}

// WithCreationDate pins the creation date written into the output.
func WithCreationDate(t time.Time) Option {
	return func(c *Config) {
		c.CreationDate = t
	}
}

// NewConfig builds a Config from functional options.
// If no options are specified, it describes a 2-up conversion.
//
// Example:
//
//	cfg := pdfnup.NewConfig(
//	    pdfnup.WithMode(pdfnup.ModeNUp),
//	    pdfnup.WithPagesPerSheet(4),
//	)
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Mode:          ModeNUp,
		PagesPerSheet: DefaultPagesPerSheet,
		PagesPerRow:   DefaultPagesPerRow,
		MaxMergeWidth: DefaultMaxMergeWidth,
		JPEGQuality:   DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Validate checks the layout parameters relevant to the configured mode.
// It never touches input files.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeNUp:
		switch c.PagesPerSheet {
		case 1, 2, 4, 6, 8, 9, 12:
		default:
			return fmt.Errorf("%w: %d pages per sheet", ErrInvalidLayout, c.PagesPerSheet)
		}
	case ModeCombine:
		if c.PagesPerRow < 1 || c.PagesPerRow > MaxPagesPerRow {
			return fmt.Errorf("%w: %d pages per row", ErrInvalidLayout, c.PagesPerRow)
		}
	case ModeMerge:
		if c.MaxMergeWidth <= 0 {
			return fmt.Errorf("%w: max merge width %g", ErrInvalidLayout, c.MaxMergeWidth)
		}
	default:
		return fmt.Errorf("%w: %v", ErrInvalidLayout, c.Mode)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d", ErrInvalidLayout, c.JPEGQuality)
	}
	return nil
}

// Log returns the configured logger, or one that discards everything.
func (c Config) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// UseObjectStreams reports whether serialization should write object
// streams. Merge output uses them unless told otherwise.
func (c Config) UseObjectStreams() bool {
	if c.ObjectStreams != nil {
		return *c.ObjectStreams
	}
	return c.Mode == ModeMerge
}
