// Package structure implements the structure command.
package structure

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/internal/cmd/cmdutil"
	"github.com/agentstation/budgetcheck/internal/cmd/output"
	"github.com/agentstation/budgetcheck/internal/jobs"
)

// NewCommand creates the structure command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "structure",
		GroupID: "core",
		Short:   "Compare composition children against reference banks",
		Long: `Structure compares the first-level children of each budget composition
with the same composition in its reference bank and reports missing and
extra children and children whose descriptions differ.

A composition without a recognised source label is checked against the
only supplied bank that contains its code, if exactly one does.`,
		Example: `  budgetcheck structure -b compositions.yaml -r SINAPI=sinapi-comp.yaml
  budgetcheck structure -b compositions.yaml -r SINAPI=a.yaml -r SECID=b.yaml -o json`,
		Args: cobra.NoArgs,
	}
	flags := cmdutil.AddJobFlags(cmd)

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

		runner, err := app.Runner()
		if err != nil {
			return err
		}
		outcome, err := runner.RunStructure(cmd.Context(), jobs.StructureJob{
			Budget:     flags.Budget,
			References: refs,
			OutDir:     flags.OutDirOr(defaults.OutDir),
			Formats:    formats,
		})
		if err != nil {
			return err
		}

		app.Logger().Debug().Str("job_id", outcome.ID).Int("divergences", outcome.Divergences).Msg("Structure job done")
		return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()),
			output.StructureSummary(outcome),
			output.StructureDivergences(outcome.Structure),
			output.WrittenFiles(outcome),
		)
	}

	return cmd
}
