package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/folio/internal/domain"
)

func newModelsCmd(container *dig.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the selectable models and their rates (USD per 1M tokens)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return container.Invoke(func(models *domain.ModelRegistry) {
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Backend", "Input", "Cached input", "Output", "Description"})
				table.SetBorder(false)
				table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
				table.SetAlignment(tablewriter.ALIGN_LEFT)

				for _, m := range models.List() {
					table.Append([]string{
						m.ID,
						m.Backend,
						formatRate(m.InputPerMTok),
						formatRate(m.CachedInputPerMTok),
						formatRate(m.OutputPerMTok),
						m.Description,
					})
				}
				table.Render()
			})
		},
	}
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
