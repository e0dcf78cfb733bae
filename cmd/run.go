package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/folio/internal/config"
	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/export"
	"github.com/davidbz/folio/internal/observability"
	"github.com/davidbz/folio/internal/store/jsonl"
	"github.com/davidbz/folio/internal/store/sqlite"
	"github.com/davidbz/folio/internal/store/summary"
)

type runDeps struct {
	dig.In
	Batch     *config.BatchConfig
	Output    *config.OutputConfig
	Models    *domain.ModelRegistry
	Backends  domain.BackendRegistry
	Extractor domain.ContentExtractor
	Summaries *summary.Store
	Ledger    *sqlite.Ledger
	Exporter  *export.Exporter
	Events    domain.EventPublisher
}

type runOptions struct {
	exportCSV  bool
	interpret  bool
	reportPath string
}

func newRunCmd(cfg *config.Config, container *dig.Container) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Extract every PDF and write per-file records and a cost summary",
		Long: `Extract structured data from the given PDFs, or from every PDF directly
inside --dir when no files are given. Each file yields one line in the record
store; a failing file is recorded with its error and zero cost and the batch
continues. The cost summary is written only when the run completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.Invoke(func(deps runDeps) error {
				return runBatch(cmd.Context(), deps, args, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVarP(&cfg.Batch.Model, "model", "m", cfg.Batch.Model, "model identifier (see 'folio models')")
	cmd.Flags().StringVarP(&cfg.Batch.InputDir, "dir", "d", cfg.Batch.InputDir, "directory scanned for PDFs when no files are given")
	cmd.Flags().IntVarP(&cfg.Batch.Workers, "workers", "w", cfg.Batch.Workers, "files processed concurrently; records of files that finish early are held in memory until every earlier file is done")
	cmd.Flags().StringVarP(&cfg.Output.RecordsPath, "out", "o", cfg.Output.RecordsPath, "record store (JSON lines, appended)")
	cmd.Flags().StringVar(&cfg.Output.SummaryPath, "summary", cfg.Output.SummaryPath, "cost summary file (overwritten)")
	cmd.Flags().BoolVar(&opts.exportCSV, "export-csv", false, "write <stem>_results.csv next to the record store for each file")
	cmd.Flags().BoolVar(&opts.interpret, "interpret", false,
		"ask the model to interpret each table and write <stem>_results.md next to the record store")
	cmd.Flags().StringVar(&cfg.Output.ReportLanguage, "report-language", cfg.Output.ReportLanguage, "language of interpreted reports")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write a Markdown report of this run to the given path")

	return cmd
}

func runBatch(ctx context.Context, deps runDeps, paths []string, opts runOptions, out io.Writer) error {
	logger := observability.FromContext(ctx)

	if deps.Ledger != nil {
		defer func() { _ = deps.Ledger.Close() }()
	}

	// Setup errors surface before the record store is created.
	model, err := deps.Models.Resolve(deps.Batch.Model)
	if err != nil {
		return err
	}
	backend, err := deps.Backends.ForModel(ctx, model)
	if err != nil {
		return fmt.Errorf("no backend for model %s (is OPENAI_API_KEY set?): %w", model.ID, err)
	}

	var interpreter domain.TableInterpreter
	if opts.interpret {
		var ok bool
		if interpreter, ok = backend.(domain.TableInterpreter); !ok {
			return fmt.Errorf("backend %s cannot interpret tables", backend.Name())
		}
	}

	if len(paths) == 0 {
		paths, err = domain.DiscoverPDFs(deps.Batch.InputDir)
		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	sink, err := jsonl.NewSink(deps.Output.RecordsPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			logger.Warn("failed to close record store", observability.Error(closeErr))
		}
	}()

	orchestrator := domain.NewBatchOrchestrator(
		deps.Models,
		deps.Backends,
		deps.Extractor,
		sink,
		deps.Events,
		domain.OrchestratorConfig{Workers: deps.Batch.Workers},
	)

	report, err := orchestrator.Run(ctx, paths, model.ID)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	costs := domain.Summarize(report.RunID, report.Records, time.Now().UTC())
	if err := deps.Summaries.Save(ctx, costs); err != nil {
		return err
	}

	ctx = observability.WithRunID(ctx, report.RunID)
	if deps.Ledger != nil {
		if err := deps.Ledger.RecordRun(ctx, costs); err != nil {
			observability.FromContext(ctx).Warn("failed to record run in ledger", observability.Error(err))
		}
	}

	if opts.exportCSV {
		dir := filepath.Dir(deps.Output.RecordsPath)
		if _, err := deps.Exporter.WriteCSVs(ctx, report.Records, dir); err != nil {
			return err
		}
	}

	if opts.interpret {
		if err := interpretTables(ctx, deps, interpreter, model, report.Records, out); err != nil {
			return err
		}
	}

	if opts.reportPath != "" {
		if err := writeReport(ctx, deps.Exporter, report.Records, costs, opts.reportPath); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Processed %d files with %s (%d failed), records in %s\n",
		costs.RecordCount, model.ID, costs.FailureCount, deps.Output.RecordsPath)
	printSummary(out, costs)

	return nil
}

// interpretTables writes one interpreted report per table. Its cost is printed
// on its own and stays out of the run summary, which reconciles with the record
// store.
func interpretTables(
	ctx context.Context,
	deps runDeps,
	interpreter domain.TableInterpreter,
	model domain.ModelDescriptor,
	records []domain.ResultRecord,
	out io.Writer,
) error {
	dir := filepath.Dir(deps.Output.RecordsPath)
	result, err := deps.Exporter.WriteInterpretedReports(ctx, records, dir, interpreter, model, deps.Output.ReportLanguage)
	if err != nil {
		return err
	}

	cost := domain.ComputeCost(model, result.Usage)
	observability.FromContext(ctx).Info("interpreted reports written",
		observability.Int("reports", len(result.Paths)),
		observability.Int("failed", result.Failed),
		observability.String("cost", cost.Amount.String()))

	fmt.Fprintf(out, "Interpreted %d tables (%d failed), cost $%s (not in the run summary)\n",
		len(result.Paths), result.Failed, cost.Amount.StringFixed(6))
	return nil
}

func writeReport(
	ctx context.Context,
	exporter *export.Exporter,
	records []domain.ResultRecord,
	costs domain.CostSummary,
	path string,
) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	if err := exporter.WriteMarkdown(ctx, records, costs, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
