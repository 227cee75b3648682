package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

// PricesMarkdown renders a price report as a Markdown document.
func PricesMarkdown(w io.Writer, report *reconciler.PriceReport) error {
	doc := md.NewMarkdown(w)
	doc.H1("Price reconciliation").LF()
	doc.PlainText(report.Headline()).LF().LF()

	doc.H2("Summary").LF()
	rows := [][]string{}
	for _, tag := range report.Tags() {
		rows = append(rows, []string{
			tag.String(),
			strconv.Itoa(report.Summary.ComparedPerSource[tag.Key()]),
			strconv.Itoa(report.Summary.OKPerSource[tag.Key()]),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Bank", "Compared", "OK"},
		Rows:   rows,
	}).LF()
	doc.BulletList(
		fmt.Sprintf("Tolerance: %s", formatPercent(report.Meta.Tolerance)),
		fmt.Sprintf("Description check: %t", report.Meta.CompareDescriptions),
		fmt.Sprintf("Ignored (no supported bank): %d", report.Summary.IgnoredForSource),
		fmt.Sprintf("Generated at: %s", report.Meta.GeneratedAt),
	).LF()

	doc.H2("Divergences").LF()
	if len(report.Divergences) == 0 {
		doc.PlainText("No divergences.").LF()
		return doc.Build()
	}
	rows = make([][]string, 0, len(report.Divergences))
	for _, d := range report.Divergences {
		rows = append(rows, []string{
			d.Ref.String(),
			d.Code,
			joinReasons(d.Reasons),
			formatOptionalFloat(d.AbsDiff),
			formatOptionalPercent(d.RelDiff),
			string(d.Direction),
			escapeCell(deref(d.BudgetDesc)),
			escapeCell(deref(d.RefDesc)),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Bank", "Code", "Reasons", "Abs diff", "Rel diff", "Direction", "Budget description", "Reference description"},
		Rows:   rows,
	}).LF()

	return doc.Build()
}

// StructureMarkdown renders a structure report as a Markdown document.
func StructureMarkdown(w io.Writer, report *reconciler.StructureReport) error {
	doc := md.NewMarkdown(w)
	doc.H1("Structure reconciliation").LF()
	doc.PlainText(report.Headline()).LF().LF()

	doc.H2("Summary").LF()
	rows := [][]string{}
	for _, tag := range report.Tags() {
		rows = append(rows, []string{tag.String(), strconv.Itoa(report.Summary.ComparedPerSource[tag.Key()])})
	}
	doc.Table(md.TableSet{
		Header: []string{"Bank", "Compared"},
		Rows:   rows,
	}).LF()

	doc.H2("Divergences").LF()
	if len(report.Divergences) == 0 {
		doc.PlainText("No divergences.").LF()
		return doc.Build()
	}
	for _, d := range report.Divergences {
		doc.H3(fmt.Sprintf("%s %s", d.Ref, d.ParentCode)).LF()
		items := []string{
			"Budget: " + escapeCell(d.BudgetDesc),
			"Reference: " + escapeCell(deref(d.RefDesc)),
		}
		if len(d.Missing) > 0 {
			items = append(items, "Missing: "+strings.Join(d.Missing, ", "))
		}
		if len(d.Extra) > 0 {
			items = append(items, "Extra: "+strings.Join(d.Extra, ", "))
		}
		doc.BulletList(items...).LF()

		if len(d.DescriptionMismatch) > 0 {
			mismatches := make([][]string, 0, len(d.DescriptionMismatch))
			for _, m := range d.DescriptionMismatch {
				mismatches = append(mismatches, []string{m.Code, escapeCell(m.BudgetDesc), escapeCell(m.RefDesc)})
			}
			doc.Table(md.TableSet{
				Header: []string{"Child", "Budget description", "Reference description"},
				Rows:   mismatches,
			}).LF()
		}
	}
	return doc.Build()
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func formatOptionalPercent(f *float64) string {
	if f == nil {
		return ""
	}
	return formatPercent(*f)
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f*100, 'f', 2, 64) + "%"
}

// escapeCell keeps pipes and newlines from breaking table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
