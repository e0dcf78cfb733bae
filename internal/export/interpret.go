package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
)

// ReportSuffix is appended to a document's stem to name its interpreted report.
const ReportSuffix = "_results.md"

const interpretPrompt = "Interpret the following data in %s and summarize it in a markdown table format:\n%s"

// Interpretation describes the reports written by WriteInterpretedReports.
type Interpretation struct {
	Paths []string
	// Usage sums the tokens of every successful interpretation.
	Usage domain.Usage
	// Failed counts files whose interpretation was skipped after a backend error.
	Failed int
}

// ReportPath returns the interpreted report path for a document inside dir.
func ReportPath(dir, file string) string {
	return filepath.Join(dir, stem(file)+ReportSuffix)
}

// InterpretPrompt asks for a summary of table written in language.
func InterpretPrompt(language, table string) string {
	return fmt.Sprintf(interpretPrompt, language, table)
}

// WriteInterpretedReports sends the table of every successful record with rows
// to interpreter and writes each reply to ReportPath. A failed interpretation is
// logged and skipped; a cancelled ctx or a write error stops the export.
func (e *Exporter) WriteInterpretedReports(
	ctx context.Context,
	records []domain.ResultRecord,
	dir string,
	interpreter domain.TableInterpreter,
	model domain.ModelDescriptor,
	language string,
) (Interpretation, error) {
	logger := observability.FromContext(ctx)

	var out Interpretation
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, fmt.Errorf("create report directory: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if rec.Failed() {
			continue
		}

		columns, rows := table(rec.Data, e.columns)
		if len(rows) == 0 {
			continue
		}

		var b strings.Builder
		writeMarkdownTable(&b, columns, rows)

		text, usage, err := interpreter.Interpret(ctx, InterpretPrompt(language, b.String()), model)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return out, err
			}
			logger.Warn("table interpretation failed",
				observability.String("file", rec.File),
				observability.Error(err))
			out.Failed++
			continue
		}
		out.Usage = addUsage(out.Usage, usage)

		path := ReportPath(dir, rec.File)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return out, fmt.Errorf("write interpreted report: %w", err)
		}
		out.Paths = append(out.Paths, path)

		logger.Debug("interpreted report written",
			observability.String("file", rec.File),
			observability.String("path", path))
	}

	return out, nil
}

func addUsage(a, b domain.Usage) domain.Usage {
	return domain.Usage{
		InputTokens:       a.InputTokens + b.InputTokens,
		CachedInputTokens: a.CachedInputTokens + b.CachedInputTokens,
		OutputTokens:      a.OutputTokens + b.OutputTokens,
	}
}
