// Package records defines the typed budget and reference records the
// reconciler works on. Loaders build these once per run; the reconciler
// only reads them.
package records

import "strings"

// Item is one priced line, either from the budget or from a reference bank.
type Item struct {
	// Code is the code as it appears in the source, possibly carrying an
	// occurrence suffix on the budget side.
	Code        string   `json:"code" yaml:"code"`
	Description string   `json:"description" yaml:"description"`
	UnitValue   *float64 `json:"unitValue" yaml:"unit_value"`
	Unit        *string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	// SourceTag is the free-text bank label ("SINAPI 03/2024", "Sudecap").
	SourceTag *string `json:"sourceTag,omitempty" yaml:"source,omitempty"`
	// Origin records where the item came from, e.g. "budget" or "SINAPI".
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// CodeOr returns the item code, falling back to key when the code is blank.
func (i Item) CodeOr(key string) string {
	if strings.TrimSpace(i.Code) == "" {
		return key
	}
	return i.Code
}

// ItemMap holds one record set keyed by code. Reference maps are keyed by
// canonical code; budget maps by a row key unique within the budget.
type ItemMap map[string]Item

// ChildSpec is a first-level component of a composition.
type ChildSpec struct {
	Code        string   `json:"code" yaml:"code"`
	Description string   `json:"description" yaml:"description"`
	Unit        *string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Coefficient *float64 `json:"coefficient,omitempty" yaml:"coefficient,omitempty"`
}

// Composition is a parent service with its bill of materials. Children keep
// their source order for display; comparisons treat them as a set.
type Composition struct {
	Code        string      `json:"code" yaml:"code"`
	Description string      `json:"description" yaml:"description"`
	Unit        *string     `json:"unit,omitempty" yaml:"unit,omitempty"`
	Children    []ChildSpec `json:"children" yaml:"children"`
	SourceTag   *string     `json:"sourceTag,omitempty" yaml:"source,omitempty"`
}

// CodeOr returns the composition code, falling back to key when blank.
func (c Composition) CodeOr(key string) string {
	if strings.TrimSpace(c.Code) == "" {
		return key
	}
	return c.Code
}

// StructureMap holds compositions keyed like ItemMap.
type StructureMap map[string]Composition

// Ptr returns a pointer to v. Handy for the optional record fields.
func Ptr[T any](v T) *T {
	return &v
}
