// Package summary persists the run-level cost summary as a single JSON document.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davidbz/folio/internal/domain"
)

// Store reads and writes the cost summary file.
type Store struct {
	path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the summary file location.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the summary file. The new content is written to a temporary
// file in the same directory and renamed over the old one.
func (s *Store) Save(_ context.Context, summary domain.CostSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp summary: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close summary: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod summary: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace summary: %w", err)
	}

	return nil
}

// Load reads the last saved summary.
func (s *Store) Load(_ context.Context) (domain.CostSummary, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.CostSummary{}, fmt.Errorf("read summary: %w", err)
	}

	var summary domain.CostSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.CostSummary{}, fmt.Errorf("decode summary %s: %w", s.path, err)
	}

	return summary, nil
}
