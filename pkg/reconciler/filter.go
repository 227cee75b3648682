package reconciler

import (
	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// priceSource picks the single bank a budget item is compared against: the
// bank its label names, provided that bank was supplied.
func (r *Reconciler) priceSource(item records.Item, available map[banks.Tag]*itemIndex) (banks.Tag, bool) {
	tag, ok := r.classifier.ClassifyPtr(item.SourceTag)
	if !ok {
		return "", false
	}
	if _, supplied := available[tag]; !supplied {
		return "", false
	}
	return tag, true
}

// structureSource picks the bank a composition is diffed against. A declared
// and supplied bank wins; otherwise the parent must exist in exactly one
// supplied bank.
func (r *Reconciler) structureSource(comp records.Composition, parent string, tags []banks.Tag, available map[banks.Tag]map[string]records.Composition) (banks.Tag, bool) {
	if tag, ok := r.classifier.ClassifyPtr(comp.SourceTag); ok {
		if _, supplied := available[tag]; supplied {
			return tag, true
		}
	}

	var hit banks.Tag
	hits := 0
	for _, tag := range tags {
		if _, ok := available[tag][parent]; ok {
			hit = tag
			hits++
		}
	}
	if hits != 1 {
		return "", false
	}
	return hit, true
}
