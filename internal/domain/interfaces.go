package domain

import (
	"context"
	"time"
)

// ContentExtractor converts one PDF into backend-consumable content.
type ContentExtractor interface {
	// Extract reads the file at path. Fails with *UnreadablePdfError.
	Extract(ctx context.Context, path string) (*DocumentContent, error)
}

// ExtractionBackend sends content to a model and returns a structured payload.
type ExtractionBackend interface {
	// ExtractStructured fails with *BackendError.
	ExtractStructured(ctx context.Context, content *DocumentContent, model ModelDescriptor) (*ExtractionResult, error)

	// Name returns the backend identifier.
	Name() string
}

// TableInterpreter turns an extracted table into a written report. Backends
// that can answer free-form prompts implement it next to ExtractionBackend.
type TableInterpreter interface {
	// Interpret fails with *BackendError.
	Interpret(ctx context.Context, prompt string, model ModelDescriptor) (string, Usage, error)
}

// BackendRegistry manages available extraction backends.
type BackendRegistry interface {
	// Register adds a backend to the registry.
	Register(ctx context.Context, backend ExtractionBackend) error

	// Get retrieves a backend by name.
	Get(ctx context.Context, name string) (ExtractionBackend, error)

	// ForModel returns the backend that serves the given model.
	ForModel(ctx context.Context, model ModelDescriptor) (ExtractionBackend, error)

	// List returns the registered backend names.
	List(ctx context.Context) ([]string, error)
}

// ResultSink appends records to the line-delimited record store.
type ResultSink interface {
	// Append writes one record atomically. Fails with *SinkWriteError.
	Append(ctx context.Context, record ResultRecord) error
}

// SummaryStore persists the run summary, overwriting any previous one.
type SummaryStore interface {
	Save(ctx context.Context, summary CostSummary) error
	Load(ctx context.Context) (CostSummary, error)
}

// RunLedger keeps the history of run summaries.
type RunLedger interface {
	// RecordRun stores one run summary.
	RecordRun(ctx context.Context, summary CostSummary) error

	// Merged folds every run since the given time into one summary.
	Merged(ctx context.Context, since time.Time) (CostSummary, error)
}

// PayloadCache stores backend results by content key.
type PayloadCache interface {
	// Get returns ErrCacheMiss when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores data under key for ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
