// Package sqlite keeps the history of run summaries in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/davidbz/folio/internal/domain"
)

// Config holds ledger settings. An empty Path disables the ledger.
type Config struct {
	Path string `env:"LEDGER_PATH"`
}

const (
	kindModel = "model"
	kindFile  = "file"

	// MergedRunID labels summaries produced by Merged.
	MergedRunID = "all-runs"

	// Fixed-width so that text comparison orders timestamps.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	recorded_at TEXT NOT NULL,
	total_cost REAL NOT NULL,
	record_count INTEGER NOT NULL,
	failure_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
`

const createRunCostsTable = `
CREATE TABLE IF NOT EXISTS run_costs (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	cost REAL NOT NULL,
	PRIMARY KEY (run_id, kind, name)
);
`

// Ledger implements domain.RunLedger with a SQLite database.
type Ledger struct {
	db *sql.DB
}

// New opens the ledger at dbPath and runs auto-migration.
func New(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec(createRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate runs table: %w", err)
	}

	if _, err := db.Exec(createRunCostsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run_costs table: %w", err)
	}

	return &Ledger{db: db}, nil
}

// RecordRun stores one run summary. A run id can only be recorded once.
func (l *Ledger) RecordRun(ctx context.Context, summary domain.CostSummary) error {
	if summary.RunID == "" {
		return errors.New("run id cannot be empty")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, recorded_at, total_cost, record_count, failure_count)
		 VALUES (?, ?, ?, ?, ?)`,
		summary.RunID, formatTime(summary.Timestamp), summary.TotalCost, summary.RecordCount, summary.FailureCount,
	); err != nil {
		return fmt.Errorf("record run %s: %w", summary.RunID, err)
	}

	insert := func(kind string, costs map[string]float64) error {
		for name, cost := range costs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_costs (run_id, kind, name, cost) VALUES (?, ?, ?, ?)`,
				summary.RunID, kind, name, cost,
			); err != nil {
				return fmt.Errorf("record %s cost %s: %w", kind, name, err)
			}
		}
		return nil
	}

	if err := insert(kindModel, summary.CostByModel); err != nil {
		return err
	}
	if err := insert(kindFile, summary.CostByFile); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	return nil
}

// Runs returns the summaries recorded at or after since, oldest first.
func (l *Ledger) Runs(ctx context.Context, since time.Time) ([]domain.CostSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, recorded_at, total_cost, record_count, failure_count
		 FROM runs WHERE recorded_at >= ? ORDER BY recorded_at, run_id`,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var summaries []domain.CostSummary
	index := make(map[string]int)
	for rows.Next() {
		var (
			s          domain.CostSummary
			recordedAt string
		)
		if err := rows.Scan(&s.RunID, &recordedAt, &s.TotalCost, &s.RecordCount, &s.FailureCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Timestamp, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run time %q: %w", recordedAt, err)
		}
		s.CostByModel = make(map[string]float64)
		s.CostByFile = make(map[string]float64)
		index[s.RunID] = len(summaries)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if len(summaries) == 0 {
		return summaries, nil
	}

	costRows, err := l.db.QueryContext(ctx,
		`SELECT c.run_id, c.kind, c.name, c.cost
		 FROM run_costs c JOIN runs r ON r.run_id = c.run_id
		 WHERE r.recorded_at >= ?`,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("query run costs: %w", err)
	}
	defer costRows.Close()

	for costRows.Next() {
		var (
			runID, kind, name string
			cost              float64
		)
		if err := costRows.Scan(&runID, &kind, &name, &cost); err != nil {
			return nil, fmt.Errorf("scan run cost: %w", err)
		}
		i, ok := index[runID]
		if !ok {
			continue
		}
		switch kind {
		case kindModel:
			summaries[i].CostByModel[name] = cost
		case kindFile:
			summaries[i].CostByFile[name] = cost
		}
	}
	if err := costRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run costs: %w", err)
	}

	return summaries, nil
}

// Merged folds every run recorded at or after since into one summary.
func (l *Ledger) Merged(ctx context.Context, since time.Time) (domain.CostSummary, error) {
	runs, err := l.Runs(ctx, since)
	if err != nil {
		return domain.CostSummary{}, err
	}

	return domain.MergeSummaries(MergedRunID, runs, time.Now().UTC()), nil
}

// Close releases resources.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
