// Package files implements the files command.
package files

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/budgetcheck/cmd/application"
	"github.com/agentstation/budgetcheck/internal/cmd/output"
	"github.com/agentstation/budgetcheck/internal/jobs"
)

// NewCommand creates the files command.
func NewCommand(app application.Application) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:     "files",
		GroupID: "management",
		Short:   "List generated reports, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := outDir
			if dir == "" {
				dir = app.Defaults().OutDir
			}
			artifacts, err := jobs.ListArtifacts(dir)
			if err != nil {
				return err
			}
			app.Logger().Debug().Str("dir", dir).Int("files", len(artifacts)).Msg("Listed artifacts")
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()),
				output.Artifacts(artifacts))
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory to list (default from config)")

	return cmd
}
