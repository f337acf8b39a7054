package pdfnup

import "math"

// Phase identifies which stage of an operation a Progress value belongs to.
type Phase int

const (
	PhaseConvert   Phase = iota // N-up batch, one step per file
	PhaseAnalyze                // merge analysis, 0-50%
	PhaseCreate                 // merge sheet creation, 50-90%
	PhaseSerialize              // merge serialization, 90-100%
)

func (p Phase) String() string {
	switch p {
	case PhaseConvert:
		return "convert"
	case PhaseAnalyze:
		return "analyze"
	case PhaseCreate:
		return "create"
	case PhaseSerialize:
		return "serialize"
	}
	return "unknown"
}

// Progress is reported between steps of a long-running operation.
type Progress struct {
	Phase   Phase
	Percent int
	Step    int // 1-based step within the phase
	Steps   int
	Name    string // file being processed, if any
}

// ProgressFunc observes progress. It runs synchronously between steps.
type ProgressFunc func(Progress)

// Band maps step (1-based) of total onto the percentage range [lo, hi].
func Band(lo, hi, step, total int) int {
	if total <= 0 {
		return hi
	}
	return lo + int(math.Round(float64(step)/float64(total)*float64(hi-lo)))
}

// Report sends p to the configured observer, if any.
func (c Config) Report(p Progress) {
	if c.Progress != nil {
		c.Progress(p)
	}
}
