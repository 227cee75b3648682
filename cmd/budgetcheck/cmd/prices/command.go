// Package prices implements the prices command.
package prices

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/internal/cmd/cmdutil"
	"github.com/agentstation/budgetcheck/internal/cmd/output"
	"github.com/agentstation/budgetcheck/internal/jobs"
)

// NewCommand creates the prices command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		tolerance     float64
		compareDesc   bool
		noCompareDesc bool
	)

	cmd := &cobra.Command{
		Use:     "prices",
		GroupID: "core",
		Short:   "Reconcile budget unit prices against reference banks",
		Long: `Prices checks every budget item against the reference bank named by its
source label. An item diverges when its unit value differs from the
reference by more than the tolerance, when its code is missing from the
bank, or when its description differs.

Items whose source label names no supplied bank are counted as ignored.`,
		Example: `  budgetcheck prices -b budget.yaml -r SINAPI=sinapi.yaml
  budgetcheck prices -b budget.yaml -r SINAPI=sinapi.yaml -r SUDECAP=sudecap.json --tolerance 0.1
  budgetcheck prices -b budget.yaml -r SECID=secid.yaml --export json,xlsx,md --out-dir reports`,
		Args: cobra.NoArgs,
	}
	flags := cmdutil.AddJobFlags(cmd)
	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 0, "Relative tolerance, e.g. 0.05 for 5% (default from config)")
	cmd.Flags().BoolVar(&compareDesc, "compare-desc", false, "Compare item descriptions (default from config)")
	cmd.Flags().BoolVar(&noCompareDesc, "no-compare-desc", false, "Skip description comparison")
	cmd.MarkFlagsMutuallyExclusive("compare-desc", "no-compare-desc")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		defaults := app.Defaults()
		refs, err := flags.References()
		if err != nil {
			return err
		}
		formats, err := flags.Formats(defaults.Exports)
		if err != nil {
			return err
		}

		job := jobs.PriceJob{
			Budget:              flags.Budget,
			References:          refs,
			Tolerance:           defaults.Tolerance,
			CompareDescriptions: defaults.CompareDescriptions,
			OutDir:              flags.OutDirOr(defaults.OutDir),
			Formats:             formats,
		}
		if cmd.Flags().Changed("tolerance") {
			job.Tolerance = tolerance
		}
		switch {
		case cmd.Flags().Changed("compare-desc"):
			job.CompareDescriptions = compareDesc
		case noCompareDesc:
			job.CompareDescriptions = false
		}

		runner, err := app.Runner()
		if err != nil {
			return err
		}
		outcome, err := runner.RunPrices(cmd.Context(), job)
		if err != nil {
			return err
		}

		app.Logger().Debug().Str("job_id", outcome.ID).Int("divergences", outcome.Divergences).Msg("Prices job done")
		return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()),
			output.PriceSummary(outcome),
			output.PriceDivergences(outcome.Prices),
			output.WrittenFiles(outcome),
		)
	}

	return cmd
}
