package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summarize folds a run's records into a cost summary.
// Sums are accumulated in decimal and converted to floats once, so the total,
// the per-model sum and the per-file sum reconcile exactly.
func Summarize(runID string, records []ResultRecord, now time.Time) CostSummary {
	total := decimal.Zero
	byModel := make(map[string]decimal.Decimal)
	byFile := make(map[string]decimal.Decimal)
	failures := 0

	for _, rec := range records {
		cost := RoundCost(rec.Cost)
		if cost.IsNegative() {
			cost = decimal.Zero
		}
		if rec.Failed() {
			failures++
		}

		total = total.Add(cost)
		byModel[rec.Model] = byModel[rec.Model].Add(cost)
		byFile[rec.File] = byFile[rec.File].Add(cost)
	}

	return CostSummary{
		RunID:        runID,
		TotalCost:    total.InexactFloat64(),
		CostByModel:  toFloatMap(byModel),
		CostByFile:   toFloatMap(byFile),
		RecordCount:  len(records),
		FailureCount: failures,
		Timestamp:    now,
	}
}

// MergeSummaries folds several run summaries into one. Used only when a
// cross-run view is explicitly requested.
func MergeSummaries(runID string, summaries []CostSummary, now time.Time) CostSummary {
	total := decimal.Zero
	byModel := make(map[string]decimal.Decimal)
	byFile := make(map[string]decimal.Decimal)
	records, failures := 0, 0

	for _, s := range summaries {
		total = total.Add(RoundCost(s.TotalCost))
		for model, cost := range s.CostByModel {
			byModel[model] = byModel[model].Add(RoundCost(cost))
		}
		for file, cost := range s.CostByFile {
			byFile[file] = byFile[file].Add(RoundCost(cost))
		}
		records += s.RecordCount
		failures += s.FailureCount
	}

	return CostSummary{
		RunID:        runID,
		TotalCost:    total.InexactFloat64(),
		CostByModel:  toFloatMap(byModel),
		CostByFile:   toFloatMap(byFile),
		RecordCount:  records,
		FailureCount: failures,
		Timestamp:    now,
	}
}

func toFloatMap(in map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v.InexactFloat64()
	}
	return out
}
