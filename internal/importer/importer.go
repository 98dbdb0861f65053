package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// Parser decodes an export file into raw rows using a column layout.
type Parser interface {
	Parse(r io.Reader, layout Layout) ([]model.RawRow, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// ForPath picks a parser from the file extension.
func (r *Registry) ForPath(path string) (Parser, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, fmt.Errorf("file %s has no extension", filepath.Base(path))
	}
	p := r.Get(ext)
	if p == nil {
		return nil, fmt.Errorf("unsupported file type %q (expected %s)", "."+ext, strings.Join(r.Formats(), ", "))
	}
	return p, nil
}

// Formats returns the registered formats as ".ext" names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for _, k := range []string{"xlsx", "csv"} {
		if _, ok := r.parsers[k]; ok {
			out = append(out, "."+k)
		}
	}
	for k := range r.parsers {
		if k != "xlsx" && k != "csv" {
			out = append(out, "."+k)
		}
	}
	return out
}

// Supports reports whether a file name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, err := r.ForPath(name)
	return err == nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&XLSXParser{})
	r.Register(&CSVParser{})
	return r
}

// ReadFile opens path and parses it with the parser matching its extension.
func (r *Registry) ReadFile(path string, layout Layout) ([]model.RawRow, error) {
	p, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rows, err := p.Parse(f, layout)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// processedDir is the subdirectory, next to the input, for archived files.
const processedDir = "processed"

// Archive moves a consumed input into a processed/ directory beside it and
// returns the new path.
func Archive(path string) (string, error) {
	dstDir := filepath.Join(filepath.Dir(path), processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", filepath.Base(path), err)
	}
	return dst, nil
}

// rowsFromRecords maps decoded records (header first) onto layout, skipping
// the header and fully blank rows. Line numbers are 1-based file rows.
func rowsFromRecords(records [][]string, layout Layout) []model.RawRow {
	if len(records) <= 1 {
		return nil
	}

	var rows []model.RawRow
	for i, rec := range records[1:] {
		row := layout.Row(rec, i+2)
		if row.IsBlank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
