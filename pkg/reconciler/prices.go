package reconciler

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/canon"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/logging"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// Prices compares every budget item against the bank its source label names.
//
// Items whose label is empty, unsupported or names a bank that was not
// supplied are not compared; they are counted in IgnoredForSource and carry
// a notApplicable block for every bank. Data problems never fail the run:
// only a negative or non-finite tolerance or a malformed reference map
// returns an error.
func (r *Reconciler) Prices(ctx context.Context, budget records.ItemMap, refs map[banks.Tag]records.ItemMap, tolerance float64, compareDescriptions bool) (*PriceReport, error) {
	logger := logging.FromContext(ctx)

	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) || tolerance < 0 {
		return nil, &errors.ValidationError{
			Field:   "tolerance",
			Value:   tolerance,
			Message: "must be a finite, non-negative number",
		}
	}

	normalized, tags, err := normalizeTags(refs)
	if err != nil {
		return nil, err
	}
	indexes := make(map[banks.Tag]*itemIndex, len(normalized))
	for tag, m := range normalized {
		indexes[tag] = indexItems(m)
	}

	report := &PriceReport{
		Meta: PriceMeta{
			Tolerance:           tolerance,
			CompareDescriptions: compareDescriptions,
			GeneratedAt:         r.generatedAt(),
		},
		Summary: PriceSummary{
			TotalItems:        len(budget),
			ComparedPerSource: newPerSource(tags),
			OKPerSource:       newPerSource(tags),
		},
		Crossed:     make([]CrossedItem, 0, len(budget)),
		Divergences: []PriceDivergence{},
	}
	cmpr := newComparer(tolerance, compareDescriptions)

	for _, key := range sortedKeys(budget) {
		item := budget[key]
		code := item.CodeOr(key)
		canonical := canon.Code(code)

		row := CrossedItem{
			Key:           key,
			Code:          code,
			CanonicalCode: canonical,
			SourceLabel:   item.SourceTag,
			Description:   item.Description,
			Value:         item.UnitValue,
			Sources:       make(map[banks.Tag]Comparison, len(tags)),
		}
		for _, tag := range tags {
			row.Sources[tag] = Comparison{NotApplicable: true}
		}

		tag, ok := r.priceSource(item, indexes)
		if !ok {
			report.Summary.IgnoredForSource++
			logger.Debug().
				Str("code", code).
				Str("source", deref(item.SourceTag)).
				Msg("Item not compared: no supplied bank matches its source")
			report.Crossed = append(report.Crossed, row)
			continue
		}

		ref, found := indexes[tag].lookup(canonical, code, key)
		result := cmpr.compare(item.Description, item.UnitValue, ref, found)
		row.Sources[tag] = result

		report.Summary.ComparedPerSource[tag.Key()]++
		if result.OK {
			report.Summary.OKPerSource[tag.Key()]++
		}
		report.Crossed = append(report.Crossed, row)
	}

	slices.SortStableFunc(report.Crossed, func(a, b CrossedItem) int {
		return cmp.Or(
			cmp.Compare(a.CanonicalCode, b.CanonicalCode),
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Key, b.Key),
		)
	})

	for _, row := range report.Crossed {
		for _, tag := range tags {
			c := row.Sources[tag]
			if c.NotApplicable || c.OK {
				continue
			}
			report.Divergences = append(report.Divergences, PriceDivergence{
				Ref:        tag,
				Code:       row.CanonicalCode,
				Reasons:    c.Reasons,
				AbsDiff:    c.AbsDiff,
				RelDiff:    c.RelDiff,
				Direction:  c.Direction,
				BudgetDesc: c.BudgetDesc,
				RefDesc:    c.RefDesc,
			})
		}
	}
	slices.SortStableFunc(report.Divergences, func(a, b PriceDivergence) int {
		return cmp.Or(cmp.Compare(a.Ref, b.Ref), cmp.Compare(a.Code, b.Code))
	})

	logger.Info().
		Int("items", report.Summary.TotalItems).
		Int("ignored", report.Summary.IgnoredForSource).
		Int("divergences", len(report.Divergences)).
		Msg("Price reconciliation complete")

	return report, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
