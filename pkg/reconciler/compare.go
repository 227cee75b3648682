package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/agentstation/budgetcheck/pkg/canon"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// comparer applies the price rule for one run.
type comparer struct {
	tolerance           decimal.Decimal
	compareDescriptions bool
}

func newComparer(tolerance float64, compareDescriptions bool) comparer {
	return comparer{
		tolerance:           decimal.NewFromFloat(tolerance),
		compareDescriptions: compareDescriptions,
	}
}

// compare checks a budget description and value against a reference item.
// A reference record with neither description nor value counts as absent.
// The relative difference is computed in decimal so a value sitting exactly
// on the tolerance is never pushed over it by float rounding.
func (c comparer) compare(budgetDesc string, budgetValue *float64, ref records.Item, found bool) Comparison {
	if !found || (ref.Description == "" && ref.UnitValue == nil) {
		return Comparison{Reasons: []Reason{ReasonCodeNotFound}}
	}

	out := Comparison{Value: ref.UnitValue}
	refValue := ref.UnitValue

	switch {
	case refValue == nil || *refValue == 0:
		if budgetValue != nil && *budgetValue != 0 {
			out.Reasons = append(out.Reasons, ReasonBaseValueZeroOrNull)
			out.Direction = direction(*budgetValue, 0)
		}
	case budgetValue == nil:
		out.Reasons = append(out.Reasons, ReasonBudgetValueNull)
	default:
		b := decimal.NewFromFloat(*budgetValue)
		r := decimal.NewFromFloat(*refValue)
		absDiff := b.Sub(r).Abs()
		relDiff := absDiff.Div(r.Abs())
		if relDiff.GreaterThan(c.tolerance) {
			out.Reasons = append(out.Reasons, ReasonValueDivergent)
			out.AbsDiff = floatPtr(absDiff.InexactFloat64())
			out.RelDiff = floatPtr(relDiff.InexactFloat64())
			out.Direction = direction(*budgetValue, *refValue)
		}
	}

	if c.compareDescriptions && canon.Text(budgetDesc) != canon.Text(ref.Description) {
		out.Reasons = append(out.Reasons, ReasonDescriptionDivergent)
		out.BudgetDesc = &budgetDesc
		if ref.Description != "" {
			refDesc := ref.Description
			out.RefDesc = &refDesc
		}
	}

	out.OK = len(out.Reasons) == 0
	return out
}

func direction(budget, ref float64) Direction {
	switch {
	case budget > ref:
		return DirectionGreater
	case budget < ref:
		return DirectionLess
	default:
		return DirectionEqual
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
