package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/folio/internal/config"
	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/export"
	"github.com/davidbz/folio/internal/store/jsonl"
)

type exportOptions struct {
	xlsxPath     string
	csvDir       string
	markdownPath string
}

func newExportCmd(container *dig.Container) *cobra.Command {
	var (
		recordsPath string
		opts        exportOptions
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a record store as XLSX, per-file CSV or Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.xlsxPath == "" && opts.csvDir == "" && opts.markdownPath == "" {
				return errors.New("nothing to export: pass --xlsx, --csv-dir or --markdown")
			}

			return container.Invoke(func(output *config.OutputConfig, exporter *export.Exporter) error {
				path := recordsPath
				if path == "" {
					path = output.RecordsPath
				}

				records, err := jsonl.ReadRecords(path)
				if err != nil {
					return err
				}
				costs := domain.Summarize("", records, time.Now().UTC())

				ctx := cmd.Context()
				if opts.xlsxPath != "" {
					if err := exporter.WriteXLSX(ctx, records, costs, opts.xlsxPath); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.xlsxPath)
				}
				if opts.csvDir != "" {
					written, err := exporter.WriteCSVs(ctx, records, opts.csvDir)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d CSV files to %s\n", len(written), opts.csvDir)
				}
				if opts.markdownPath != "" {
					if err := writeReport(ctx, exporter, records, costs, opts.markdownPath); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.markdownPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&recordsPath, "records", "", "record store to read (default FOLIO_RECORDS_PATH)")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "write an XLSX workbook")
	cmd.Flags().StringVar(&opts.csvDir, "csv-dir", "", "write <stem>_results.csv files into this directory")
	cmd.Flags().StringVar(&opts.markdownPath, "markdown", "", "write a Markdown report")

	return cmd
}

