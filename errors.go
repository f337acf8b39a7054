package pdfnup

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds of layout planning and composition.
var (
	ErrInvalidLayout        = errors.New("pdfnup: invalid layout")
	ErrUnsupportedFile      = errors.New("pdfnup: unsupported file type")
	ErrPageCountUnavailable = errors.New("pdfnup: page count unavailable")
	ErrImageDecode          = errors.New("pdfnup: image could not be embedded")
	ErrSerialization        = errors.New("pdfnup: serialization failed")
	ErrNoSources            = errors.New("pdfnup: no input files")
	ErrNoPages              = errors.New("pdfnup: no pages to compose")
)

// OpError represents an error that occurred during a specific operation.
// It wraps an underlying error and names the operation and, when known,
// the input file it concerns.
type OpError struct {
	Op   string // operation name, e.g. "nup", "merge", "ingest"
	File string // input file name, may be empty
	Err  error  // underlying error
}

func (e *OpError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.File != "" {
		return fmt.Sprintf("pdfnup.%s %s: %s", e.Op, e.File, msg)
	}
	return fmt.Sprintf("pdfnup.%s: %s", e.Op, msg)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError creates a new OpError wrapping err with operation context.
func NewOpError(op, file string, err error) *OpError {
	return &OpError{Op: op, File: file, Err: err}
}

// StrategyError records the failure of one named image embedding strategy.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e StrategyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

// ImageDecodeError is returned when every embedding strategy failed for an
// image. Attempts holds one entry per strategy, in the order they were tried.
type ImageDecodeError struct {
	File     string
	Attempts []StrategyError
}

func (e *ImageDecodeError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("pdfnup: image %s could not be embedded (%s)", e.File, strings.Join(parts, "; "))
}

// Is reports ErrImageDecode as a match so callers can test the kind.
func (e *ImageDecodeError) Is(target error) bool {
	return target == ErrImageDecode
}

// Unwrap exposes every strategy failure to errors.Is and errors.As.
func (e *ImageDecodeError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}
