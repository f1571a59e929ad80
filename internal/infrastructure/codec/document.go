// Package codec reads and writes history documents in the benchmark action's
// JSON shape, optionally wrapped as a data.js script.
package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// JSPrefix is the assignment the chart page expects at the top of data.js.
const JSPrefix = "window.BENCHMARK_DATA = "

// Decode parses a JSON document or a data.js script.
func Decode(data []byte) (domain.Document, error) {
	body := bytes.TrimSpace(data)
	if rest, ok := bytes.CutPrefix(body, []byte(strings.TrimSpace(JSPrefix))); ok {
		body = bytes.TrimSpace(rest)
	}
	body = bytes.TrimSpace(bytes.TrimSuffix(body, []byte(";")))
	if len(body) == 0 {
		return domain.Document{}, &domain.ValidationError{Field: "document", Reason: "empty input"}
	}

	var doc domain.Document
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&doc); err != nil {
		return domain.Document{}, &domain.ValidationError{Field: "document", Reason: err.Error()}
	}
	if dec.More() {
		return domain.Document{}, &domain.ValidationError{Field: "document", Reason: "trailing data after document"}
	}
	if doc.Entries == nil {
		doc.Entries = map[string][]domain.BenchmarkRun{}
	}
	return doc, nil
}

// Encode renders doc as indented JSON, or as data.js when js is set.
func Encode(doc domain.Document, js bool) ([]byte, error) {
	if doc.Entries == nil {
		doc.Entries = map[string][]domain.BenchmarkRun{}
	}
	var buf bytes.Buffer
	if js {
		buf.WriteString(JSPrefix)
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// IsScript reports whether path should hold the data.js form.
func IsScript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".js")
}

// DecodeRun parses a single run object, as posted by CI.
func DecodeRun(data []byte) (domain.BenchmarkRun, error) {
	var run domain.BenchmarkRun
	if err := json.Unmarshal(data, &run); err != nil {
		return domain.BenchmarkRun{}, &domain.ValidationError{Field: "run", Reason: err.Error()}
	}
	return run, nil
}

// FileSource reads a document from disk.
type FileSource struct {
	Path string
}

// Name implements ports.DocumentSource.
func (f FileSource) Name() string {
	return f.Path
}

// Document implements ports.DocumentSource.
func (f FileSource) Document(ctx context.Context) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return domain.Document{}, err
	}
	return Decode(data)
}

var _ ports.DocumentSource = FileSource{}
