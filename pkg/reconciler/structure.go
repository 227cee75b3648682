package reconciler

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/canon"
	"github.com/agentstation/budgetcheck/pkg/logging"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// Structure diffs each budget composition's first-level children against
// the matching reference composition.
//
// A composition whose parent is absent from its declared bank reports all
// of its children as missing; one without children reports nothing.
// Compositions with no usable bank are counted in IgnoredForSource.
func (r *Reconciler) Structure(ctx context.Context, budget records.StructureMap, refs map[banks.Tag]records.StructureMap) (*StructureReport, error) {
	logger := logging.FromContext(ctx)

	normalized, tags, err := normalizeTags(refs)
	if err != nil {
		return nil, err
	}
	indexes := make(map[banks.Tag]map[string]records.Composition, len(normalized))
	for tag, m := range normalized {
		indexes[tag] = indexCompositions(m)
	}

	report := &StructureReport{
		Meta: StructureMeta{GeneratedAt: r.generatedAt()},
		Summary: StructureSummary{
			ComparedPerSource: newPerSource(tags),
		},
		Divergences: []StructureDivergence{},
	}

	for _, key := range sortedKeys(budget) {
		comp := budget[key]
		parent := canon.Code(comp.CodeOr(key))

		tag, ok := r.structureSource(comp, parent, tags, indexes)
		if !ok {
			report.Summary.IgnoredForSource++
			logger.Debug().
				Str("parent", parent).
				Str("source", deref(comp.SourceTag)).
				Msg("Composition not compared: no single supplied bank applies")
			continue
		}
		report.Summary.ComparedPerSource[tag.Key()]++

		if d, diverges := diffComposition(tag, parent, comp, indexes[tag]); diverges {
			report.Divergences = append(report.Divergences, d)
		}
	}

	slices.SortStableFunc(report.Divergences, func(a, b StructureDivergence) int {
		return cmp.Or(cmp.Compare(a.Ref, b.Ref), cmp.Compare(a.ParentCode, b.ParentCode))
	})

	logger.Info().
		Int("compositions", len(budget)).
		Int("ignored", report.Summary.IgnoredForSource).
		Int("divergences", len(report.Divergences)).
		Msg("Structure reconciliation complete")

	return report, nil
}

// diffComposition compares one budget composition with its reference bank.
func diffComposition(tag banks.Tag, parent string, comp records.Composition, bank map[string]records.Composition) (StructureDivergence, bool) {
	budgetChildren := indexChildren(comp.Children)
	d := StructureDivergence{
		Ref:                 tag,
		ParentCode:          parent,
		BudgetDesc:          comp.Description,
		Missing:             []string{},
		Extra:               []string{},
		DescriptionMismatch: []DescriptionMismatch{},
	}

	ref, found := bank[parent]
	if !found {
		if len(budgetChildren) == 0 {
			return d, false
		}
		d.Missing = slices.Sorted(maps.Keys(budgetChildren))
		return d, true
	}

	refDesc := ref.Description
	d.RefDesc = &refDesc
	refChildren := indexChildren(ref.Children)

	for _, code := range slices.Sorted(maps.Keys(budgetChildren)) {
		refChild, shared := refChildren[code]
		if !shared {
			d.Missing = append(d.Missing, code)
			continue
		}
		budgetChild := budgetChildren[code]
		if canon.Text(budgetChild) != canon.Text(refChild) {
			d.DescriptionMismatch = append(d.DescriptionMismatch, DescriptionMismatch{
				Code:       code,
				BudgetDesc: budgetChild,
				RefDesc:    refChild,
			})
		}
	}
	for _, code := range slices.Sorted(maps.Keys(refChildren)) {
		if _, ok := budgetChildren[code]; !ok {
			d.Extra = append(d.Extra, code)
		}
	}

	diverges := len(d.Missing) > 0 || len(d.Extra) > 0 || len(d.DescriptionMismatch) > 0
	return d, diverges
}
