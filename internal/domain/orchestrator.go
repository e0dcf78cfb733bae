package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davidbz/folio/internal/observability"
)

// Event types published while a batch runs.
const (
	EventFileStarted  = "file.started"
	EventFileFinished = "file.finished"
	EventRunFinished  = "run.finished"
)

// RunReport is the outcome of one batch run. Records are in input order.
type RunReport struct {
	RunID   string
	Model   ModelDescriptor
	Records []ResultRecord
}

// OrchestratorConfig tunes the batch orchestrator.
type OrchestratorConfig struct {
	// Workers is the number of files processed concurrently. Values below 2
	// select strictly sequential processing.
	Workers int
}

// BatchOrchestrator runs one extraction per input file and streams each
// outcome to the result sink.
type BatchOrchestrator struct {
	models    *ModelRegistry
	backends  BackendRegistry
	extractor ContentExtractor
	sink      ResultSink
	events    EventPublisher
	workers   int
}

// NewBatchOrchestrator creates a new orchestrator. events may be nil.
func NewBatchOrchestrator(
	models *ModelRegistry,
	backends BackendRegistry,
	extractor ContentExtractor,
	sink ResultSink,
	events EventPublisher,
	cfg OrchestratorConfig,
) *BatchOrchestrator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &BatchOrchestrator{
		models:    models,
		backends:  backends,
		extractor: extractor,
		sink:      sink,
		events:    events,
		workers:   workers,
	}
}

// RunDirectory discovers the PDFs directly inside dir and runs them.
// An empty directory is a successful run with zero records.
func (o *BatchOrchestrator) RunDirectory(ctx context.Context, dir string, modelID string) (*RunReport, error) {
	if _, err := o.models.Resolve(modelID); err != nil {
		return nil, err
	}

	paths, err := DiscoverPDFs(dir)
	if err != nil {
		return nil, err
	}

	return o.Run(ctx, paths, modelID)
}

// Run processes paths in order with the given model. Setup errors (unknown
// model, no backend) are returned before any file is touched. Per-file errors
// become failure records. A *SinkWriteError or a cancelled ctx aborts the run
// and is returned together with the records written so far. Files still
// pending at cancellation get no record.
func (o *BatchOrchestrator) Run(ctx context.Context, paths []string, modelID string) (*RunReport, error) {
	model, err := o.models.Resolve(modelID)
	if err != nil {
		return nil, err
	}

	backend, err := o.backends.ForModel(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("no backend for model %s: %w", model.ID, err)
	}

	runID := uuid.New().String()
	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithModel(ctx, model.ID)

	logger := observability.FromContext(ctx)
	logger.Info("batch run started",
		observability.Int("files", len(paths)),
		observability.String("backend", backend.Name()),
		observability.Int("workers", o.workers))

	requests := make([]ExtractionRequest, len(paths))
	for i, p := range paths {
		requests[i] = ExtractionRequest{Path: p, Model: model, Index: i}
	}

	start := time.Now()

	var records []ResultRecord
	if o.workers == 1 || len(requests) < 2 {
		records, err = o.runSequential(ctx, requests, backend)
	} else {
		records, err = o.runConcurrent(ctx, requests, backend)
	}

	report := &RunReport{RunID: runID, Model: model, Records: records}
	if err != nil {
		logger.Error("batch run aborted",
			observability.Int("records_written", len(records)),
			observability.Error(err))
		return report, err
	}

	failures := 0
	for _, rec := range records {
		if rec.Failed() {
			failures++
		}
	}

	o.publish(ctx, EventRunFinished, map[string]interface{}{
		"records":     len(records),
		"failures":    failures,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return report, nil
}

func (o *BatchOrchestrator) runSequential(
	ctx context.Context,
	requests []ExtractionRequest,
	backend ExtractionBackend,
) ([]ResultRecord, error) {
	records := make([]ResultRecord, 0, len(requests))
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return records, cancelled(err)
		}
		rec := o.processFile(ctx, req, backend)
		if interrupted(ctx, rec) {
			return records, cancelled(ctx.Err())
		}
		if err := o.sink.Append(ctx, rec); err != nil {
			return records, asSinkError(err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// runConcurrent fans files out to a bounded pool. Records are handed to the
// sink in input order, so the record store matches a sequential run.
func (o *BatchOrchestrator) runConcurrent(
	ctx context.Context,
	requests []ExtractionRequest,
	backend ExtractionBackend,
) ([]ResultRecord, error) {
	emitter := newOrderedEmitter(o.sink, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// gctx ends on a sink failure or on ctx cancellation; stop picking
			// up new files then.
			if emitter.failed() || ctx.Err() != nil {
				return nil
			}
			rec := o.processFile(gctx, req, backend)
			if interrupted(ctx, rec) {
				return nil
			}
			return emitter.deliver(gctx, req.Index, rec)
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = cancelled(ctx.Err())
	}
	return emitter.emitted(), err
}

// interrupted reports whether rec failed because the run was cancelled. Such
// a record describes the interruption, not the file, and is never written.
func interrupted(ctx context.Context, rec ResultRecord) bool {
	return ctx.Err() != nil && rec.Failed()
}

func cancelled(err error) error {
	return fmt.Errorf("run cancelled: %w", err)
}

func (o *BatchOrchestrator) processFile(
	ctx context.Context,
	req ExtractionRequest,
	backend ExtractionBackend,
) ResultRecord {
	ctx = observability.WithFile(ctx, req.Path)
	logger := observability.FromContext(ctx)

	o.publish(ctx, EventFileStarted, map[string]interface{}{"index": req.Index})

	outcome := o.extract(ctx, req, backend)
	rec := toRecord(req, outcome)

	if rec.Failed() {
		logger.Warn("file failed", observability.String("error", *rec.Error))
	} else {
		logger.Info("file processed",
			observability.Float64("cost", rec.Cost),
			observability.Bool("cached", rec.Cached))
	}

	o.publish(ctx, EventFileFinished, map[string]interface{}{
		"index":  req.Index,
		"failed": rec.Failed(),
		"cost":   rec.Cost,
	})

	return rec
}

// extract walks one file through content extraction and the backend call.
// Every error, including a panic in a collaborator, becomes a failure outcome.
func (o *BatchOrchestrator) extract(
	ctx context.Context,
	req ExtractionRequest,
	backend ExtractionBackend,
) (outcome ExtractionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(fmt.Errorf("extraction panicked: %v", r))
		}
	}()

	content, err := o.extractor.Extract(ctx, req.Path)
	if err != nil {
		return Failed(err)
	}

	result, err := backend.ExtractStructured(ctx, content, req.Model)
	if err != nil {
		return Failed(err)
	}
	if result == nil {
		return Failed(NewBackendError(BackendErrorMalformed, errors.New("backend returned no result")))
	}

	return Succeeded(*result)
}

func (o *BatchOrchestrator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if o.events == nil {
		return
	}
	o.events.Publish(ctx, eventType, data)
}

func toRecord(req ExtractionRequest, outcome ExtractionOutcome) ResultRecord {
	result, ok := outcome.Result()
	if !ok {
		msg := outcome.Err().Error()
		return ResultRecord{
			Data:  nil,
			File:  req.Path,
			Model: req.Model.ID,
			Cost:  0,
			Error: &msg,
		}
	}

	payload := result.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	return ResultRecord{
		Data:   payload,
		File:   req.Path,
		Model:  req.Model.ID,
		Cost:   ComputeCost(req.Model, result.Usage).Float64(),
		Error:  nil,
		Cached: result.Cached,
	}
}

func asSinkError(err error) error {
	var sinkErr *SinkWriteError
	if errors.As(err, &sinkErr) {
		return err
	}
	return &SinkWriteError{Path: "", Cause: err}
}

// DiscoverPDFs lists the PDF files directly inside dir, sorted by name.
func DiscoverPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// orderedEmitter releases records to the sink in index order.
type orderedEmitter struct {
	mu      sync.Mutex
	sink    ResultSink
	next    int
	pending map[int]ResultRecord
	out     []ResultRecord
	err     error
}

func newOrderedEmitter(sink ResultSink, size int) *orderedEmitter {
	return &orderedEmitter{
		sink:    sink,
		pending: make(map[int]ResultRecord),
		out:     make([]ResultRecord, 0, size),
	}
}

func (e *orderedEmitter) deliver(ctx context.Context, index int, rec ResultRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}

	e.pending[index] = rec
	for {
		ready, ok := e.pending[e.next]
		if !ok {
			return nil
		}
		if err := e.sink.Append(ctx, ready); err != nil {
			e.err = asSinkError(err)
			return e.err
		}
		delete(e.pending, e.next)
		e.out = append(e.out, ready)
		e.next++
	}
}

func (e *orderedEmitter) failed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err != nil
}

func (e *orderedEmitter) emitted() []ResultRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ResultRecord, len(e.out))
	copy(out, e.out)
	return out
}
