package summary_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/store/summary"
)

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cost_summary.json")
	store := summary.NewStore(path)
	ctx := context.Background()

	saved := domain.CostSummary{
		RunID:        "run-1",
		TotalCost:    0.3,
		CostByModel:  map[string]float64{"m": 0.3},
		CostByFile:   map[string]float64{"a.pdf": 0.1, "b.pdf": 0.2},
		RecordCount:  2,
		FailureCount: 0,
		Timestamp:    time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, saved, loaded)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	require.Equal(t, "2026-10-18T09:30:00Z", fields["timestamp"])
	for _, key := range []string{"total_cost", "cost_by_model", "cost_by_file"} {
		require.Contains(t, fields, key)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := summary.NewStore(filepath.Join(dir, "cost_summary.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.CostSummary{RunID: "first", TotalCost: 1}))
	require.NoError(t, store.Save(ctx, domain.CostSummary{RunID: "second", TotalCost: 2}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "second", loaded.RunID)
	require.InDelta(t, 2.0, loaded.TotalCost, 0)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_EmptySummaryKeepsMaps(t *testing.T) {
	store := summary.NewStore(filepath.Join(t.TempDir(), "cost_summary.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Summarize("run-0", nil, time.Now())))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(raw), `"cost_by_model": {}`)
	require.Contains(t, string(raw), `"cost_by_file": {}`)
}

func TestStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := summary.NewStore(filepath.Join(dir, "missing.json")).Load(context.Background())
	require.ErrorContains(t, err, "read summary")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))

	_, err = summary.NewStore(bad).Load(context.Background())
	require.ErrorContains(t, err, "decode summary")
}
