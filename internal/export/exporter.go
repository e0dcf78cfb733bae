// Package export renders the record store as per-file CSV tables, a run-level
// XLSX workbook and a Markdown report.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
)

const (
	recordsSheet = "Records"
	costsSheet   = "Costs"

	// CSVSuffix is appended to a document's stem to name its table.
	CSVSuffix = "_results.csv"
)

// Exporter renders result records.
type Exporter struct {
	columns []string
}

// NewExporter creates a new exporter. columns sets the preferred column order
// for payload tables.
func NewExporter(columns []string) *Exporter {
	return &Exporter{columns: columns}
}

// CSVPath returns the table path for a document inside dir.
func CSVPath(dir, file string) string {
	return filepath.Join(dir, stem(file)+CSVSuffix)
}

func stem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteCSVs writes one table per successful record with at least one row and
// returns the written paths.
func (e *Exporter) WriteCSVs(ctx context.Context, records []domain.ResultRecord, dir string) ([]string, error) {
	logger := observability.FromContext(ctx)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv directory: %w", err)
	}

	written := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Failed() {
			continue
		}

		columns, rows := table(rec.Data, e.columns)
		if len(rows) == 0 {
			logger.Info("no rows extracted", observability.String("file", rec.File))
			continue
		}

		path := CSVPath(dir, rec.File)
		if err := writeCSV(path, columns, rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

func writeCSV(path string, columns []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv rows: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a Records sheet and a Costs sheet.
func (e *Exporter) WriteXLSX(
	ctx context.Context,
	records []domain.ResultRecord,
	summary domain.CostSummary,
	path string,
) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(costsSheet); err != nil {
		return fmt.Errorf("create costs sheet: %w", err)
	}
	activeIndex, err := f.GetSheetIndex(recordsSheet)
	if err != nil {
		return fmt.Errorf("find records sheet: %w", err)
	}
	f.SetActiveSheet(activeIndex)

	w := &cellWriter{f: f}

	for i, h := range []string{"File", "Model", "Cost (USD)", "Cached", "Rows", "Error"} {
		w.set(recordsSheet, i+1, 1, h)
	}

	for i, rec := range records {
		row := i + 2
		_, rows := table(rec.Data, e.columns)
		errText := ""
		if rec.Error != nil {
			errText = *rec.Error
		}

		w.set(recordsSheet, 1, row, rec.File)
		w.set(recordsSheet, 2, row, rec.Model)
		w.set(recordsSheet, 3, row, rec.Cost)
		w.set(recordsSheet, 4, row, rec.Cached)
		w.set(recordsSheet, 5, row, len(rows))
		w.set(recordsSheet, 6, row, errText)
	}

	w.width(recordsSheet, "A", "A", 40) // file
	w.width(recordsSheet, "B", "B", 16) // model
	w.width(recordsSheet, "C", "E", 12)
	w.width(recordsSheet, "F", "F", 60) // error

	for i, h := range []string{"Scope", "Name", "Cost (USD)"} {
		w.set(costsSheet, i+1, 1, h)
	}
	row := 2
	for _, line := range costLines(summary) {
		w.set(costsSheet, 1, row, line.scope)
		w.set(costsSheet, 2, row, line.name)
		w.set(costsSheet, 3, row, line.cost)
		row++
	}
	w.width(costsSheet, "A", "A", 10)
	w.width(costsSheet, "B", "B", 40)
	w.width(costsSheet, "C", "C", 14)

	if w.err != nil {
		return w.err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	observability.FromContext(ctx).Info("xlsx export written",
		observability.String("path", path),
		observability.Int("records", len(records)))

	return nil
}

// cellWriter keeps the first error of a series of sheet writes and skips every
// write after it.
type cellWriter struct {
	f   *excelize.File
	err error
}

func (w *cellWriter) set(sheet string, col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = fmt.Errorf("xlsx cell at column %d row %d: %w", col, row, err)
		return
	}
	if err := w.f.SetCellValue(sheet, cell, v); err != nil {
		w.err = fmt.Errorf("xlsx write %s!%s: %w", sheet, cell, err)
	}
}

func (w *cellWriter) width(sheet, startCol, endCol string, width float64) {
	if w.err != nil {
		return
	}
	if err := w.f.SetColWidth(sheet, startCol, endCol, width); err != nil {
		w.err = fmt.Errorf("xlsx column width %s:%s: %w", startCol, endCol, err)
	}
}

// WriteMarkdown renders the run cost table followed by one data table per file.
func (e *Exporter) WriteMarkdown(
	_ context.Context,
	records []domain.ResultRecord,
	summary domain.CostSummary,
	w io.Writer,
) error {
	var b strings.Builder

	b.WriteString("# Extraction report\n\n")
	if summary.RunID != "" {
		fmt.Fprintf(&b, "Run `%s` at %s\n\n", summary.RunID, summary.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "Files: %d, failed: %d, total cost: $%s\n\n",
		summary.RecordCount, summary.FailureCount, formatCost(summary.TotalCost))

	writeMarkdownTable(&b, []string{"File", "Model", "Cost (USD)", "Status"}, recordStatusRows(records))

	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		columns, rows := table(rec.Data, e.columns)
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", filepath.Base(rec.File))
		writeMarkdownTable(&b, columns, rows)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func recordStatusRows(records []domain.ResultRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "ok"
		switch {
		case rec.Error != nil:
			status = "failed: " + *rec.Error
		case rec.Cached:
			status = "cached"
		}
		rows = append(rows, []string{rec.File, rec.Model, formatCost(rec.Cost), status})
	}
	return rows
}

func writeMarkdownTable(b *strings.Builder, columns []string, rows [][]string) {
	b.WriteString("| " + strings.Join(escapeCells(columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}

type costLine struct {
	scope string
	name  string
	cost  float64
}

// costLines lists the total, then per-model and per-file costs by name.
func costLines(summary domain.CostSummary) []costLine {
	lines := []costLine{{scope: "total", name: "", cost: summary.TotalCost}}
	lines = append(lines, sortedLines("model", summary.CostByModel)...)
	return append(lines, sortedLines("file", summary.CostByFile)...)
}

func sortedLines(scope string, costs map[string]float64) []costLine {
	names := make([]string, 0, len(costs))
	for name := range costs {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]costLine, 0, len(names))
	for _, name := range names {
		lines = append(lines, costLine{scope: scope, name: name, cost: costs[name]})
	}
	return lines
}

func formatCost(cost float64) string {
	return strconv.FormatFloat(cost, 'f', int(domain.CostPrecision), 64)
}
