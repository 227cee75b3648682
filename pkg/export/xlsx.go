package export

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

// Sheet names used in exported workbooks.
const (
	SheetSummary     = "Summary"
	SheetDivergences = "Divergences"
	SheetCrossed     = "Crossed"
)

// workbook wraps an excelize file with a bold header style.
type workbook struct {
	f      *excelize.File
	header int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{f: f, header: header}, nil
}

// table writes a header row and data rows starting at A1 of sheet.
func (wb *workbook) table(sheet string, header []any, rows [][]any) error {
	if sheet != SheetSummary {
		if _, err := wb.f.NewSheet(sheet); err != nil {
			return err
		}
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := wb.f.SetRowStyle(sheet, 1, 1, wb.header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return wb.f.SetColWidth(sheet, "A", last, 18)
}

func (wb *workbook) save(path string) error {
	defer func() { _ = wb.f.Close() }()
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := wb.f.WriteTo(w)
		return err
	})
}

// PricesWorkbook writes a price report as an XLSX workbook with Summary,
// Divergences and Crossed sheets.
func PricesWorkbook(path string, report *reconciler.PriceReport) error {
	wb, err := newWorkbook()
	if err != nil {
		return errors.WrapResource("create", "workbook", path, err)
	}

	tags := report.Tags()
	summary := [][]any{
		{"tolerance", report.Meta.Tolerance},
		{"compareDescriptions", report.Meta.CompareDescriptions},
		{"generatedAt", report.Meta.GeneratedAt},
		{"totalItems", report.Summary.TotalItems},
		{"ignoredForSource", report.Summary.IgnoredForSource},
	}
	for _, tag := range tags {
		summary = append(summary,
			[]any{"compared " + tag.String(), report.Summary.ComparedPerSource[tag.Key()]},
			[]any{"ok " + tag.String(), report.Summary.OKPerSource[tag.Key()]},
		)
	}

	divergences := make([][]any, 0, len(report.Divergences))
	for _, d := range report.Divergences {
		divergences = append(divergences, []any{
			d.Ref.String(), d.Code, joinReasons(d.Reasons),
			cellFloat(d.AbsDiff), cellFloat(d.RelDiff), string(d.Direction),
			cellString(d.BudgetDesc), cellString(d.RefDesc),
		})
	}

	crossedHeader := []any{"Code", "Canonical code", "Source", "Description", "Value"}
	for _, tag := range tags {
		crossedHeader = append(crossedHeader, tag.String()+" value", tag.String()+" status")
	}
	crossed := make([][]any, 0, len(report.Crossed))
	for _, row := range report.Crossed {
		cells := []any{row.Code, row.CanonicalCode, cellString(row.SourceLabel), row.Description, cellFloat(row.Value)}
		for _, tag := range tags {
			c := row.Sources[tag]
			cells = append(cells, cellFloat(c.Value), status(c))
		}
		crossed = append(crossed, cells)
	}

	steps := []struct {
		sheet  string
		header []any
		rows   [][]any
	}{
		{SheetSummary, []any{"Field", "Value"}, summary},
		{SheetDivergences, []any{"Bank", "Code", "Reasons", "Abs diff", "Rel diff", "Direction", "Budget description", "Reference description"}, divergences},
		{SheetCrossed, crossedHeader, crossed},
	}
	for _, s := range steps {
		if err := wb.table(s.sheet, s.header, s.rows); err != nil {
			_ = wb.f.Close()
			return errors.WrapResource("write", "workbook sheet", s.sheet, err)
		}
	}
	return wb.save(path)
}

// StructureWorkbook writes a structure report as an XLSX workbook with
// Summary and Divergences sheets.
func StructureWorkbook(path string, report *reconciler.StructureReport) error {
	wb, err := newWorkbook()
	if err != nil {
		return errors.WrapResource("create", "workbook", path, err)
	}

	summary := [][]any{
		{"generatedAt", report.Meta.GeneratedAt},
		{"ignoredForSource", report.Summary.IgnoredForSource},
	}
	for _, tag := range report.Tags() {
		summary = append(summary, []any{"compared " + tag.String(), report.Summary.ComparedPerSource[tag.Key()]})
	}

	divergences := make([][]any, 0, len(report.Divergences))
	for _, d := range report.Divergences {
		mismatches := make([]string, 0, len(d.DescriptionMismatch))
		for _, m := range d.DescriptionMismatch {
			mismatches = append(mismatches, m.Code+": "+m.BudgetDesc+" / "+m.RefDesc)
		}
		divergences = append(divergences, []any{
			d.Ref.String(), d.ParentCode, d.BudgetDesc, cellString(d.RefDesc),
			strings.Join(d.Missing, ", "), strings.Join(d.Extra, ", "), strings.Join(mismatches, "\n"),
		})
	}

	if err := wb.table(SheetSummary, []any{"Field", "Value"}, summary); err != nil {
		_ = wb.f.Close()
		return errors.WrapResource("write", "workbook sheet", SheetSummary, err)
	}
	header := []any{"Bank", "Parent code", "Budget description", "Reference description", "Missing", "Extra", "Description mismatches"}
	if err := wb.table(SheetDivergences, header, divergences); err != nil {
		_ = wb.f.Close()
		return errors.WrapResource("write", "workbook sheet", SheetDivergences, err)
	}
	return wb.save(path)
}

func status(c reconciler.Comparison) string {
	switch {
	case c.NotApplicable:
		return "n/a"
	case c.OK:
		return "ok"
	default:
		return joinReasons(c.Reasons)
	}
}

func joinReasons(reasons []reconciler.Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// cellFloat keeps nil cells empty instead of writing 0.
func cellFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func cellString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
