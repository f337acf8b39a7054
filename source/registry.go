package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/lvillar/pdfnup"
)

// File is a named input handed to Registry.AddAll.
type File struct {
	Name string
	Data []byte
}

// Registry is the ordered list of ingested sources shared by every mode.
// The running page total is maintained incrementally from the page count
// cached at ingestion; removal never re-reads a file.
type Registry struct {
	mu      sync.Mutex
	sources []*PageSource
	total   int
	next    int
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = pdfnup.Config{}.Log()
	}
	return &Registry{logger: logger}
}

// Add ingests one file and appends it.
func (r *Registry) Add(name string, data []byte) (*PageSource, error) {
	src, err := Ingest(name, data, r.logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	src.ID = strconv.Itoa(r.next)
	r.sources = append(r.sources, src)
	r.total += src.PageCount
	return src, nil
}

// AddAll ingests files in order. A file that cannot be ingested is logged
// and skipped; the rest of the batch is still added. It returns the added
// sources and the number of pages they contribute.
func (r *Registry) AddAll(files []File) (added []*PageSource, pages int) {
	for _, f := range files {
		src, err := r.Add(f.Name, f.Data)
		if err != nil {
			continue
		}
		added = append(added, src)
		pages += src.PageCount
	}
	return added, pages
}

// AddPaths reads files from disk and adds them like AddAll.
func (r *Registry) AddPaths(paths ...string) (added []*PageSource, pages int) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			r.logger.Warn("skipping file", "file", p, "err", err)
			continue
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return r.AddAll(files)
}

// Remove drops the source with the given id and subtracts its cached page
// count from the total, which never goes below zero.
func (r *Registry) Remove(id string) (*PageSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sources {
		if s.ID != id {
			continue
		}
		r.sources = append(r.sources[:i:i], r.sources[i+1:]...)
		r.total = max(0, r.total-s.PageCount)
		return s, nil
	}
	return nil, fmt.Errorf("source: no file with id %q", id)
}

// Move reorders the list, moving the source at index from to index to.
func (r *Registry) Move(from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.sources)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("source: move %d -> %d out of range [0, %d)", from, to, n)
	}
	s := r.sources[from]
	r.sources = append(r.sources[:from], r.sources[from+1:]...)
	r.sources = append(r.sources[:to], append([]*PageSource{s}, r.sources[to:]...)...)
	return nil
}

// Clear removes every source.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = nil
	r.total = 0
}

// Sources returns a snapshot of the ordered sources.
func (r *Registry) Sources() []*PageSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*PageSource(nil), r.sources...)
}

// Documents returns the PDF sources in order, skipping images.
func (r *Registry) Documents() []*PageSource {
	return Documents(r.Sources())
}

// Len returns the number of sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}

// TotalPages returns the running page total.
func (r *Registry) TotalPages() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Documents filters srcs down to multi-page documents.
func Documents(srcs []*PageSource) []*PageSource {
	var docs []*PageSource
	for _, s := range srcs {
		if s.IsDocument() {
			docs = append(docs, s)
		}
	}
	return docs
}

// New builds a PageSource without registering it. It is a convenience for
// callers that manage their own lists.
func New(id, name string, data []byte, logger *slog.Logger) (*PageSource, error) {
	src, err := Ingest(name, data, logger)
	if err != nil {
		return nil, err
	}
	src.ID = id
	return src, nil
}
