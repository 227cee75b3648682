// Package banks identifies which reference price bank a free-text source
// label refers to.
//
// Budget spreadsheets name their price source loosely ("SINAPI-I 03/2024",
// "Sudecap", "tabela secid"), so classification is a case and accent
// insensitive substring match over an ordered rule list.
package banks

import (
	"slices"
	"strings"

	"github.com/agentstation/budgetcheck/pkg/canon"
	"github.com/agentstation/budgetcheck/pkg/errors"
)

// Tag identifies a supported reference bank. Tags are upper case.
type Tag string

// Built-in bank tags.
const (
	SINAPI  Tag = "SINAPI"
	SUDECAP Tag = "SUDECAP"
	SECID   Tag = "SECID"
)

// String returns the tag as written in reports.
func (t Tag) String() string {
	return string(t)
}

// Key returns the lower-case form used as a JSON key in reports.
func (t Tag) Key() string {
	return strings.ToLower(string(t))
}

// ParseTag normalizes a user-supplied tag name.
func ParseTag(s string) Tag {
	return Tag(strings.ToUpper(strings.TrimSpace(s)))
}

// Rule maps label substrings to a tag.
type Rule struct {
	Tag   Tag      `yaml:"tag" json:"tag" mapstructure:"tag"`
	Match []string `yaml:"match" json:"match" mapstructure:"match"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: SINAPI, Match: []string{"sinapi"}},
		{Tag: SUDECAP, Match: []string{"sudecap"}},
		{Tag: SECID, Match: []string{"secid"}},
	}
}

// Classifier resolves source labels to tags. It is immutable once built and
// safe for concurrent use.
type Classifier struct {
	rules []compiledRule
}

type compiledRule struct {
	tag      Tag
	patterns []string
}

// NewClassifier builds a classifier from rules; the first matching rule wins.
// A rule without patterns matches its own tag name. With no rules the
// defaults are used.
func NewClassifier(rules ...Rule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	seen := make(map[Tag]bool, len(rules))
	for i, r := range rules {
		tag := ParseTag(string(r.Tag))
		if tag == "" {
			return nil, errors.NewValidationError("banks", i, "rule without a tag")
		}
		if seen[tag] {
			return nil, errors.NewValidationError("banks", tag, "duplicate tag")
		}
		seen[tag] = true

		match := r.Match
		if len(match) == 0 {
			match = []string{string(tag)}
		}
		cr := compiledRule{tag: tag}
		for _, m := range match {
			if p := canon.Text(m); p != "" {
				cr.patterns = append(cr.patterns, p)
			}
		}
		if len(cr.patterns) == 0 {
			return nil, errors.NewValidationError("banks", tag, "rule has only empty patterns")
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Default returns a classifier over the built-in rules.
func Default() *Classifier {
	c, _ := NewClassifier()
	return c
}

// Classify returns the tag a label refers to. Empty and unrecognized labels
// (e.g. "CPOS") report false.
func (c *Classifier) Classify(label string) (Tag, bool) {
	folded := canon.Text(label)
	if folded == "" {
		return "", false
	}
	for _, r := range c.rules {
		for _, p := range r.patterns {
			if strings.Contains(folded, p) {
				return r.tag, true
			}
		}
	}
	return "", false
}

// ClassifyPtr is Classify for optional labels.
func (c *Classifier) ClassifyPtr(label *string) (Tag, bool) {
	if label == nil {
		return "", false
	}
	return c.Classify(*label)
}

// Tags returns the tags known to the classifier in rule order.
func (c *Classifier) Tags() []Tag {
	tags := make([]Tag, len(c.rules))
	for i, r := range c.rules {
		tags[i] = r.tag
	}
	return tags
}

// Rules returns a copy of the effective rules, patterns folded.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Tag: r.tag, Match: slices.Clone(r.patterns)}
	}
	return out
}

// SortTags sorts tags in place and returns them.
func SortTags(tags []Tag) []Tag {
	slices.Sort(tags)
	return tags
}
