package reconciler

import (
	"maps"
	"slices"
	"strings"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/canon"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// itemIndex gives canonical and raw access to one reference bank.
type itemIndex struct {
	canonical map[string]records.Item
	raw       records.ItemMap
}

// indexItems re-keys a reference by canonical code. When two raw keys
// collapse onto the same canonical code the lowest raw key wins.
func indexItems(m records.ItemMap) *itemIndex {
	idx := &itemIndex{
		canonical: make(map[string]records.Item, len(m)),
		raw:       m,
	}
	for _, k := range sortedKeys(m) {
		c := canon.Code(k)
		if c == "" {
			continue
		}
		if _, taken := idx.canonical[c]; !taken {
			idx.canonical[c] = m[k]
		}
	}
	return idx
}

// lookup tries the canonical code, then the raw code, then the budget row key.
func (idx *itemIndex) lookup(canonical, raw, key string) (records.Item, bool) {
	if it, ok := idx.canonical[canonical]; ok && canonical != "" {
		return it, true
	}
	if it, ok := idx.raw[raw]; ok && raw != "" {
		return it, true
	}
	if it, ok := idx.raw[key]; ok && key != "" {
		return it, true
	}
	return records.Item{}, false
}

// indexCompositions re-keys a structure reference by canonical parent code.
func indexCompositions(m records.StructureMap) map[string]records.Composition {
	idx := make(map[string]records.Composition, len(m))
	for _, k := range sortedKeys(m) {
		c := canon.Code(k)
		if c == "" {
			continue
		}
		if _, taken := idx[c]; !taken {
			idx[c] = m[k]
		}
	}
	return idx
}

// indexChildren maps canonical child codes to trimmed descriptions. Children
// without a usable code are skipped; a repeated code keeps the last
// description seen.
func indexChildren(children []records.ChildSpec) map[string]string {
	out := make(map[string]string, len(children))
	for _, ch := range children {
		c := canon.Code(ch.Code)
		if c == "" {
			continue
		}
		out[c] = strings.TrimSpace(ch.Description)
	}
	return out
}

// normalizeTags upper-cases reference keys and rejects empty or colliding tags.
func normalizeTags[M any](refs map[banks.Tag]M) (map[banks.Tag]M, []banks.Tag, error) {
	out := make(map[banks.Tag]M, len(refs))
	for tag, m := range refs {
		norm := banks.ParseTag(string(tag))
		if norm == "" {
			return nil, nil, errors.NewValidationError("references", string(tag), "empty bank tag")
		}
		if _, dup := out[norm]; dup {
			return nil, nil, errors.NewValidationError("references", string(tag), "bank supplied twice")
		}
		out[norm] = m
	}
	tags := make([]banks.Tag, 0, len(out))
	for tag := range out {
		tags = append(tags, tag)
	}
	return out, banks.SortTags(tags), nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
