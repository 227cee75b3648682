package reconciler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/agentstation/budgetcheck/pkg/banks"
)

// Reason explains why a budget item failed against its reference.
type Reason string

// Reason codes.
const (
	ReasonCodeNotFound         Reason = "CODE_NOT_FOUND"
	ReasonBaseValueZeroOrNull  Reason = "BASE_VALUE_ZERO_OR_NULL"
	ReasonBudgetValueNull      Reason = "BUDGET_VALUE_NULL"
	ReasonValueDivergent       Reason = "VALUE_DIVERGENT"
	ReasonDescriptionDivergent Reason = "DESCRIPTION_DIVERGENT"
)

// Direction tells whether the budget value is above or below the reference.
type Direction string

// Directions.
const (
	DirectionGreater Direction = "GREATER"
	DirectionLess    Direction = "LESS"
	DirectionEqual   Direction = "EQUAL"
)

// Comparison is the outcome of checking one budget item against one
// reference bank. Banks other than the item's own are NotApplicable.
type Comparison struct {
	NotApplicable bool
	// Value is the reference unit value, nil when the reference has none.
	Value      *float64
	OK         bool
	Reasons    []Reason
	AbsDiff    *float64
	RelDiff    *float64
	Direction  Direction
	BudgetDesc *string
	RefDesc    *string
}

// MarshalJSON emits {"notApplicable":true} or the full comparison block.
func (c Comparison) MarshalJSON() ([]byte, error) {
	if c.NotApplicable {
		return []byte(`{"notApplicable":true}`), nil
	}
	return json.Marshal(struct {
		Value      *float64  `json:"value"`
		OK         bool      `json:"ok"`
		Reasons    []Reason  `json:"reasons,omitempty"`
		AbsDiff    *float64  `json:"absDiff,omitempty"`
		RelDiff    *float64  `json:"relDiff,omitempty"`
		Direction  Direction `json:"direction,omitempty"`
		BudgetDesc *string   `json:"budgetDesc,omitempty"`
		RefDesc    *string   `json:"refDesc,omitempty"`
	}{c.Value, c.OK, c.Reasons, c.AbsDiff, c.RelDiff, c.Direction, c.BudgetDesc, c.RefDesc})
}

// CrossedItem is the per-item detail row of a price report.
type CrossedItem struct {
	// Key is the budget row key; it is not part of the wire format.
	Key           string
	Code          string
	CanonicalCode string
	SourceLabel   *string
	Description   string
	Value         *float64
	Sources       map[banks.Tag]Comparison
}

// MarshalJSON flattens the per-bank blocks next to the item fields, keyed
// by the lower-case tag.
func (c CrossedItem) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	fields := []struct {
		key string
		val any
	}{
		{"code", c.Code},
		{"canonicalCode", c.CanonicalCode},
		{"sourceLabel", c.SourceLabel},
		{"description", c.Description},
		{"value", c.Value},
	}
	for _, f := range fields {
		if err := write(f.key, f.val); err != nil {
			return nil, err
		}
	}

	tags := make([]banks.Tag, 0, len(c.Sources))
	for tag := range c.Sources {
		tags = append(tags, tag)
	}
	for _, tag := range banks.SortTags(tags) {
		if err := write(tag.Key(), c.Sources[tag]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PriceDivergence is one failing (item, bank) pair.
type PriceDivergence struct {
	Ref banks.Tag `json:"ref"`
	// Code is the canonical code of the item.
	Code       string    `json:"code"`
	Reasons    []Reason  `json:"reasons"`
	AbsDiff    *float64  `json:"absDiff,omitempty"`
	RelDiff    *float64  `json:"relDiff,omitempty"`
	Direction  Direction `json:"direction,omitempty"`
	BudgetDesc *string   `json:"budgetDesc,omitempty"`
	RefDesc    *string   `json:"refDesc,omitempty"`
}

// PriceMeta describes how a price report was produced.
type PriceMeta struct {
	Tolerance           float64 `json:"tolerance"`
	CompareDescriptions bool    `json:"compareDescriptions"`
	GeneratedAt         string  `json:"generatedAt"`
}

// PriceSummary aggregates a price run. Per-source maps are keyed by the
// lower-case tag and list every supplied bank, compared or not.
type PriceSummary struct {
	TotalItems        int            `json:"totalItems"`
	ComparedPerSource map[string]int `json:"comparedPerSource"`
	OKPerSource       map[string]int `json:"okPerSource"`
	IgnoredForSource  int            `json:"ignoredForSource"`
}

// PriceReport is the result of a price reconciliation.
type PriceReport struct {
	Meta        PriceMeta         `json:"meta"`
	Summary     PriceSummary      `json:"summary"`
	Crossed     []CrossedItem     `json:"crossed"`
	Divergences []PriceDivergence `json:"divergences"`
}

// HasDivergences reports whether any item failed its comparison.
func (r *PriceReport) HasDivergences() bool {
	return len(r.Divergences) > 0
}

// Tags returns the banks the report covers, sorted.
func (r *PriceReport) Tags() []banks.Tag {
	return summaryTags(r.Summary.ComparedPerSource)
}

// Headline returns a one-line human summary of the run.
func (r *PriceReport) Headline() string {
	compared := 0
	for _, n := range r.Summary.ComparedPerSource {
		compared += n
	}
	return fmt.Sprintf("%d items, %d compared, %d ignored, %d divergences",
		r.Summary.TotalItems, compared, r.Summary.IgnoredForSource, len(r.Divergences))
}

// DescriptionMismatch is a child present on both sides with different descriptions.
type DescriptionMismatch struct {
	Code       string `json:"code"`
	BudgetDesc string `json:"budgetDesc"`
	RefDesc    string `json:"refDesc"`
}

// StructureDivergence is a parent composition whose first-level children
// differ from the reference.
type StructureDivergence struct {
	Ref                 banks.Tag             `json:"ref"`
	ParentCode          string                `json:"parentCode"`
	BudgetDesc          string                `json:"budgetDesc"`
	RefDesc             *string               `json:"refDesc"`
	Missing             []string              `json:"missing"`
	Extra               []string              `json:"extra"`
	DescriptionMismatch []DescriptionMismatch `json:"descriptionMismatch"`
}

// StructureMeta describes how a structure report was produced.
type StructureMeta struct {
	GeneratedAt string `json:"generatedAt"`
}

// StructureSummary aggregates a structure run.
type StructureSummary struct {
	ComparedPerSource map[string]int `json:"comparedPerSource"`
	IgnoredForSource  int            `json:"ignoredForSource"`
}

// StructureReport is the result of a structure reconciliation.
type StructureReport struct {
	Meta        StructureMeta         `json:"meta"`
	Summary     StructureSummary      `json:"summary"`
	Divergences []StructureDivergence `json:"divergences"`
}

// HasDivergences reports whether any composition differs from its reference.
func (r *StructureReport) HasDivergences() bool {
	return len(r.Divergences) > 0
}

// Tags returns the banks the report covers, sorted.
func (r *StructureReport) Tags() []banks.Tag {
	return summaryTags(r.Summary.ComparedPerSource)
}

// Headline returns a one-line human summary of the run.
func (r *StructureReport) Headline() string {
	compared := 0
	for _, n := range r.Summary.ComparedPerSource {
		compared += n
	}
	return fmt.Sprintf("%d compositions compared, %d ignored, %d divergences",
		compared, r.Summary.IgnoredForSource, len(r.Divergences))
}

func summaryTags(perSource map[string]int) []banks.Tag {
	tags := make([]banks.Tag, 0, len(perSource))
	for k := range perSource {
		tags = append(tags, banks.ParseTag(k))
	}
	slices.Sort(tags)
	return tags
}
