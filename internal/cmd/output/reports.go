package output

import (
	"strconv"
	"strings"

	"github.com/agentstation/budgetcheck/internal/jobs"
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/constants"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

// PriceSummary tabulates per-bank totals of a price job.
func PriceSummary(out *jobs.Outcome) Table {
	report := out.Prices
	rows := make([][]string, 0, len(report.Summary.ComparedPerSource)+1)
	for _, tag := range report.Tags() {
		compared := report.Summary.ComparedPerSource[tag.Key()]
		ok := report.Summary.OKPerSource[tag.Key()]
		rows = append(rows, []string{tag.String(), strconv.Itoa(compared), strconv.Itoa(ok), strconv.Itoa(compared - ok)})
	}
	return Table{
		Title:           out.Headline,
		Headers:         []string{"Bank", "Compared", "OK", "Divergent"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
		Source:          out,
	}
}

// PriceDivergences tabulates the failing items of a price report.
func PriceDivergences(report *reconciler.PriceReport) Table {
	rows := make([][]string, 0, len(report.Divergences))
	for _, d := range report.Divergences {
		rows = append(rows, []string{
			d.Ref.String(),
			d.Code,
			joinReasons(d.Reasons),
			percent(d.RelDiff),
			string(d.Direction),
		})
	}
	return Table{
		Headers:         []string{"Bank", "Code", "Reasons", "Rel Diff", "Direction"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
		Source:          report.Divergences,
	}
}

// StructureSummary tabulates per-bank totals of a structure job.
func StructureSummary(out *jobs.Outcome) Table {
	report := out.Structure
	divergent := make(map[banks.Tag]int)
	for _, d := range report.Divergences {
		divergent[d.Ref]++
	}
	rows := make([][]string, 0, len(report.Summary.ComparedPerSource))
	for _, tag := range report.Tags() {
		rows = append(rows, []string{
			tag.String(),
			strconv.Itoa(report.Summary.ComparedPerSource[tag.Key()]),
			strconv.Itoa(divergent[tag]),
		})
	}
	return Table{
		Title:           out.Headline,
		Headers:         []string{"Bank", "Compared", "Divergent"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight},
		Source:          out,
	}
}

// StructureDivergences tabulates the compositions that differ from their reference.
func StructureDivergences(report *reconciler.StructureReport) Table {
	rows := make([][]string, 0, len(report.Divergences))
	for _, d := range report.Divergences {
		rows = append(rows, []string{
			d.Ref.String(),
			d.ParentCode,
			strings.Join(d.Missing, ", "),
			strings.Join(d.Extra, ", "),
			strconv.Itoa(len(d.DescriptionMismatch)),
		})
	}
	return Table{
		Headers:         []string{"Bank", "Parent", "Missing", "Extra", "Desc Mismatches"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
		Source:          report.Divergences,
	}
}

// Rules tabulates classifier rules in match order.
func Rules(rules []banks.Rule) Table {
	rows := make([][]string, 0, len(rules))
	for i, r := range rules {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Tag.String(), strings.Join(r.Match, ", ")})
	}
	return Table{
		Headers:         []string{"#", HeaderCase("tag"), HeaderCase("match_patterns")},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft},
		Source:          rules,
	}
}

// Artifacts tabulates generated report files.
func Artifacts(artifacts []jobs.Artifact) Table {
	rows := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, []string{a.Name, a.HumanSize, a.ModTime.Format(constants.TimeFormatListing)})
	}
	return Table{
		Headers:         []string{"Name", "Size", HeaderCase("modTime")},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft},
		Source:          artifacts,
	}
}

func joinReasons(reasons []reconciler.Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func percent(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f*100, 'f', 2, 64) + "%"
}

// WrittenFiles lists the artifacts a job produced.
func WrittenFiles(out *jobs.Outcome) Table {
	rows := make([][]string, 0, len(out.Artifacts))
	for _, path := range out.Artifacts {
		rows = append(rows, []string{path})
	}
	return Table{
		Headers: []string{"Written"},
		Rows:    rows,
		Source:  out.Artifacts,
	}
}
