// Package cmdutil provides flags shared by the budgetcheck commands.
package cmdutil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/export"
)

// JobFlags holds the inputs and outputs of a reconciliation command.
type JobFlags struct {
	Budget  string
	Refs    []string
	OutDir  string
	Exports []string
}

// AddJobFlags adds --budget, --ref, --out-dir and --export to cmd.
func AddJobFlags(cmd *cobra.Command) *JobFlags {
	flags := &JobFlags{}

	cmd.Flags().StringVarP(&flags.Budget, "budget", "b", "",
		"Budget record file (.yaml, .yml or .json)")
	cmd.Flags().StringArrayVarP(&flags.Refs, "ref", "r", nil,
		"Reference bank file as TAG=FILE (repeatable)")
	cmd.Flags().StringVar(&flags.OutDir, "out-dir", "",
		"Directory for generated reports (default from config)")
	cmd.Flags().StringSliceVarP(&flags.Exports, "export", "e", nil,
		"Report formats: json, yaml, xlsx, md (default from config)")

	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("ref")

	return flags
}

// References parses the --ref values.
func (f *JobFlags) References() (map[banks.Tag]string, error) {
	return ParseReferences(f.Refs)
}

// Formats parses --export, falling back to configured formats.
func (f *JobFlags) Formats(configured []string) ([]export.Format, error) {
	if len(f.Exports) > 0 {
		return export.ParseFormats(f.Exports)
	}
	return export.ParseFormats(configured)
}

// OutDirOr returns --out-dir or the configured directory.
func (f *JobFlags) OutDirOr(configured string) string {
	if f.OutDir != "" {
		return f.OutDir
	}
	return configured
}

// ParseReferences turns TAG=FILE pairs into a reference map. Tags are
// upper-cased; a tag given twice is an error.
func ParseReferences(specs []string) (map[banks.Tag]string, error) {
	refs := make(map[banks.Tag]string, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		tag := banks.ParseTag(name)
		path = strings.TrimSpace(path)
		if !ok || tag == "" || path == "" {
			return nil, &errors.ValidationError{
				Field:   "ref",
				Value:   spec,
				Message: "expected TAG=FILE",
			}
		}
		if prev, dup := refs[tag]; dup {
			return nil, &errors.ValidationError{
				Field:   "ref",
				Value:   spec,
				Message: fmt.Sprintf("bank %s already set to %s", tag, prev),
			}
		}
		refs[tag] = path
	}
	return refs, nil
}
