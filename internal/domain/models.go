package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModelDescriptor describes one selectable extraction model and its pricing.
type ModelDescriptor struct {
	ID                 string  `json:"id"`
	Description        string  `json:"description"`
	InputPerMTok       float64 `json:"input_per_mtok"`        // USD per 1M input tokens
	CachedInputPerMTok float64 `json:"cached_input_per_mtok"` // USD per 1M cached input tokens
	OutputPerMTok      float64 `json:"output_per_mtok"`       // USD per 1M output tokens
	Backend            string  `json:"backend"`
}

// ExtractionRequest is created once per input file.
type ExtractionRequest struct {
	Path  string
	Model ModelDescriptor
	Index int
}

// DocumentContent is the representation of a PDF that backends consume.
type DocumentContent struct {
	Filename  string
	MIMEType  string
	Data      []byte
	SizeBytes int64
	SHA256    string
}

// Usage tracks token consumption reported by a backend.
type Usage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

// ExtractionResult is what a backend returns on success.
type ExtractionResult struct {
	Payload map[string]any
	Usage   Usage
	Cached  bool
}

// ExtractionOutcome holds either a success or a failure, never both.
type ExtractionOutcome struct {
	result *ExtractionResult
	err    error
}

// Succeeded builds a success outcome.
func Succeeded(result ExtractionResult) ExtractionOutcome {
	return ExtractionOutcome{result: &result, err: nil}
}

// Failed builds a failure outcome. A nil error is recorded as ErrUnknownFailure.
func Failed(err error) ExtractionOutcome {
	if err == nil {
		err = ErrUnknownFailure
	}
	return ExtractionOutcome{result: nil, err: err}
}

// OK reports whether the outcome is a success.
func (o ExtractionOutcome) OK() bool {
	return o.result != nil
}

// Result returns the success variant.
func (o ExtractionOutcome) Result() (ExtractionResult, bool) {
	if o.result == nil {
		return ExtractionResult{}, false
	}
	return *o.result, true
}

// Err returns the failure variant, nil on success.
func (o ExtractionOutcome) Err() error {
	return o.err
}

// CostRecord is the monetary cost of one extraction.
type CostRecord struct {
	Amount decimal.Decimal
}

// Float64 returns the amount as a float for serialization.
func (c CostRecord) Float64() float64 {
	return c.Amount.InexactFloat64()
}

// ResultRecord is the per-file unit of the record store.
type ResultRecord struct {
	Data   map[string]any `json:"data"`
	File   string         `json:"file"`
	Model  string         `json:"model"`
	Cost   float64        `json:"cost"`
	Error  *string        `json:"error"`
	Cached bool           `json:"cached,omitempty"`
}

// Failed reports whether the record captures a failure.
func (r ResultRecord) Failed() bool {
	return r.Error != nil
}

// CostSummary aggregates the costs of one run.
type CostSummary struct {
	RunID        string             `json:"run_id,omitempty"`
	TotalCost    float64            `json:"total_cost"`
	CostByModel  map[string]float64 `json:"cost_by_model"`
	CostByFile   map[string]float64 `json:"cost_by_file"`
	RecordCount  int                `json:"record_count"`
	FailureCount int                `json:"failure_count"`
	Timestamp    time.Time          `json:"timestamp"`
}
