package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/davidbz/folio/internal/domain"
)

func printSummary(w io.Writer, costs domain.CostSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scope", "Name", "Cost (USD)"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, name := range sortedKeys(costs.CostByModel) {
		table.Append([]string{"model", name, formatUSD(costs.CostByModel[name])})
	}
	for _, name := range sortedKeys(costs.CostByFile) {
		table.Append([]string{"file", name, formatUSD(costs.CostByFile[name])})
	}
	table.Append([]string{"total", "", formatUSD(costs.TotalCost)})

	table.Render()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatUSD(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
