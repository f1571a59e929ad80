// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The history store, renderer and alerting logic depend
// only on these interfaces; storage backends, tool output parsers, metrics and
// logging live in the infrastructure layer.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., HistoryRepository, Extractor)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"io"

	"github.com/doeshing/benchhist/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.benchhist/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// HistoryRepository persists whole history documents.
// Save must be all-or-nothing: a failed Save leaves the previous content readable.
type HistoryRepository interface {
	Load(ctx context.Context) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
	Path() string
	Close() error
}

// DocumentSource yields one history document to merge, e.g. an exported data.js.
type DocumentSource interface {
	Name() string
	Document(ctx context.Context) (domain.Document, error)
}

// Extractor converts raw benchmark tool output into samples.
type Extractor interface {
	Tool() string
	Extract(r io.Reader) ([]domain.BenchmarkSample, error)
}

// MetricsRecorder receives store activity for export to a metrics backend.
type MetricsRecorder interface {
	IngestObserved(group string, err error)
	GroupSizeObserved(group string, runs int)
	SampleObserved(group string, sample domain.BenchmarkSample)
	TrimObserved(group string, removed int)
	LastUpdateObserved(epochMillis int64)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) IngestObserved(string, error)                   {}
func (NopMetrics) GroupSizeObserved(string, int)                  {}
func (NopMetrics) SampleObserved(string, domain.BenchmarkSample) {}
func (NopMetrics) TrimObserved(string, int)                       {}
func (NopMetrics) LastUpdateObserved(int64)                       {}

var _ MetricsRecorder = NopMetrics{}
