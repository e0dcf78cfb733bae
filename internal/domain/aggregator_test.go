package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/folio/internal/domain"
)

func strPtr(s string) *string { return &s }

func sumValues(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	t.Run("reconciles totals", func(t *testing.T) {
		records := []domain.ResultRecord{
			{File: "a.pdf", Model: "m1", Cost: 0.000123},
			{File: "b.pdf", Model: "m1", Cost: 0, Error: strPtr("boom")},
			{File: "c.pdf", Model: "m2", Cost: 0.1},
			{File: "d.pdf", Model: "m2", Cost: 0.2},
		}

		summary := domain.Summarize("run-1", records, now)

		var recordSum float64
		for _, r := range records {
			recordSum += r.Cost
		}

		require.Equal(t, "run-1", summary.RunID)
		require.Equal(t, now, summary.Timestamp)
		require.Equal(t, 4, summary.RecordCount)
		require.Equal(t, 1, summary.FailureCount)
		require.InDelta(t, recordSum, summary.TotalCost, 1e-9)
		require.InDelta(t, summary.TotalCost, sumValues(summary.CostByModel), 1e-9)
		require.InDelta(t, summary.TotalCost, sumValues(summary.CostByFile), 1e-9)
		require.InDelta(t, 0.3, summary.CostByModel["m2"], 1e-12)
		require.Contains(t, summary.CostByFile, "b.pdf")
		require.Zero(t, summary.CostByFile["b.pdf"])
	})

	t.Run("empty run", func(t *testing.T) {
		summary := domain.Summarize("run-2", nil, now)

		require.Zero(t, summary.TotalCost)
		require.NotNil(t, summary.CostByModel)
		require.NotNil(t, summary.CostByFile)
		require.Empty(t, summary.CostByModel)
		require.Empty(t, summary.CostByFile)
	})

	t.Run("no drift over many small costs", func(t *testing.T) {
		records := make([]domain.ResultRecord, 0, 1000)
		for range 1000 {
			records = append(records, domain.ResultRecord{File: "x.pdf", Model: "m", Cost: 0.000001})
		}

		summary := domain.Summarize("run-3", records, now)
		require.Equal(t, 0.001, summary.TotalCost)
		require.Equal(t, 0.001, summary.CostByFile["x.pdf"])
	})
}

func TestMergeSummaries(t *testing.T) {
	now := time.Now()
	first := domain.CostSummary{
		TotalCost:   0.3,
		CostByModel: map[string]float64{"m1": 0.1, "m2": 0.2},
		CostByFile:  map[string]float64{"a.pdf": 0.1, "b.pdf": 0.2},
		RecordCount: 2,
	}
	second := domain.CostSummary{
		TotalCost:    0.05,
		CostByModel:  map[string]float64{"m1": 0.05},
		CostByFile:   map[string]float64{"a.pdf": 0.05, "c.pdf": 0},
		RecordCount:  2,
		FailureCount: 1,
	}

	merged := domain.MergeSummaries("all", []domain.CostSummary{first, second}, now)

	require.Equal(t, 0.35, merged.TotalCost)
	require.Equal(t, 0.15, merged.CostByModel["m1"])
	require.Equal(t, 0.15, merged.CostByFile["a.pdf"])
	require.Equal(t, 4, merged.RecordCount)
	require.Equal(t, 1, merged.FailureCount)
	require.InDelta(t, merged.TotalCost, sumValues(merged.CostByFile), 1e-9)
}
