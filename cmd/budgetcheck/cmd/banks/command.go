// Package banks implements the banks command.
package banks

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/internal/cmd/output"
)

// NewCommand creates the banks command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "banks",
		GroupID: "management",
		Short:   "List reference banks and their label patterns",
		Long: `Banks lists the classifier rules in match order. A source label is
assigned to the first bank whose pattern it contains, ignoring case and
accents. Rules come from the "banks" key of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classifier, err := app.Classifier()
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()),
				output.Rules(classifier.Rules()))
		},
	}
}
