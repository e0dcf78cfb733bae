// Package jsonl implements the append-only record store: one JSON object per
// line, each line written whole and synced before Append returns.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/davidbz/folio/internal/domain"
)

const maxLineBytes = 64 << 20

// Sink appends result records to a JSON Lines file.
type Sink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewSink opens path for appending, creating it and its directory if needed.
func NewSink(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create record store directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	return &Sink{file: file, path: path}, nil
}

// Path returns the record store location.
func (s *Sink) Path() string {
	return s.path
}

// Append writes record as one line. The context is not consulted: a record
// that was produced is always persisted.
func (s *Sink) Append(_ context.Context, record domain.ResultRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return &domain.SinkWriteError{Path: s.path, Cause: fmt.Errorf("encode record: %w", err)}
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return &domain.SinkWriteError{Path: s.path, Cause: os.ErrClosed}
	}

	if _, err := s.file.Write(line); err != nil {
		return &domain.SinkWriteError{Path: s.path, Cause: err}
	}
	if err := s.file.Sync(); err != nil {
		return &domain.SinkWriteError{Path: s.path, Cause: err}
	}

	return nil
}

// Close releases the file handle. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ReadRecords loads every complete record from path. A final line without a
// trailing newline is an interrupted write and is skipped.
func ReadRecords(path string) ([]domain.ResultRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	defer file.Close()

	return decode(file)
}

func decode(r io.Reader) ([]domain.ResultRecord, error) {
	reader := bufio.NewReaderSize(r, 64<<10)
	records := make([]domain.ResultRecord, 0)

	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read record store: %w", err)
		}
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("line %d exceeds %d bytes", lineNo, maxLineBytes)
		}

		torn := errors.Is(err, io.EOF)
		trimmed := bytes.TrimSpace(line)

		if len(trimmed) > 0 && !torn {
			var rec domain.ResultRecord
			if jsonErr := json.Unmarshal(trimmed, &rec); jsonErr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, jsonErr)
			}
			records = append(records, rec)
		}

		if torn {
			return records, nil
		}
	}
}
