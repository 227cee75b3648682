// Package loader reads normalized budget and reference record files into
// the typed maps the reconciler consumes. Files are YAML or JSON documents
// holding an "items" list (price files) or a "compositions" list
// (structure files).
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/budgetcheck/pkg/banks"
	"github.com/agentstation/budgetcheck/pkg/canon"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/logging"
	"github.com/agentstation/budgetcheck/pkg/records"
)

// OriginBudget marks records read from a budget file.
const OriginBudget = "budget"

// occurrenceSuffix decorates repeated budget codes.
const occurrenceSuffix = "__occ"

// FileReader abstracts where record files come from.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// FilesystemReader reads files relative to BasePath. An empty BasePath
// reads paths as given.
type FilesystemReader struct {
	BasePath string
}

// ReadFile implements FileReader.
func (f FilesystemReader) ReadFile(path string) ([]byte, error) {
	if f.BasePath != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.BasePath, path)
	}
	return os.ReadFile(path)
}

// Loader decodes record files.
type Loader struct {
	reader FileReader
}

// New returns a loader reading through r, or the local filesystem when r is nil.
func New(r FileReader) *Loader {
	if r == nil {
		r = FilesystemReader{}
	}
	return &Loader{reader: r}
}

type rawItem struct {
	Code        any     `yaml:"code"`
	Description string  `yaml:"description"`
	UnitValue   any     `yaml:"unit_value"`
	Unit        *string `yaml:"unit"`
	Source      *string `yaml:"source"`
	Origin      string  `yaml:"origin"`
}

type rawChild struct {
	Code        any     `yaml:"code"`
	Description string  `yaml:"description"`
	Unit        *string `yaml:"unit"`
	Coefficient any     `yaml:"coefficient"`
}

type rawComposition struct {
	Code        any        `yaml:"code"`
	Description string     `yaml:"description"`
	Unit        *string    `yaml:"unit"`
	Source      *string    `yaml:"source"`
	Children    []rawChild `yaml:"children"`
}

type itemsFile struct {
	Items []rawItem `yaml:"items"`
}

type compositionsFile struct {
	Compositions []rawComposition `yaml:"compositions"`
}

// BudgetItems loads a budget price file. Rows are keyed by code; a code
// seen again is stored as code__occ1, code__occ2 and so on, and the
// decorated code is written back to the item.
func (l *Loader) BudgetItems(ctx context.Context, path string) (records.ItemMap, error) {
	var file itemsFile
	if err := l.decode(path, &file); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)

	out := make(records.ItemMap, len(file.Items))
	occ := newOccurrences()
	for i, raw := range file.Items {
		code := codeString(raw.Code)
		if code == "" {
			logger.Debug().Str("file", path).Int("row", i+1).Msg("Skipping budget row without code")
			continue
		}
		key, skipped := occ.key(code)
		if skipped {
			logger.Warn().Str("file", path).Int("row", i+1).Str("code", code).Str("key", key).Msg("Budget row key already taken")
		}
		item := raw.item(key)
		if item.Origin == "" {
			item.Origin = OriginBudget
		}
		out[key] = item
	}

	logger.Debug().Str("file", path).Int("items", len(out)).Msg("Budget items loaded")
	return out, nil
}

// ReferenceItems loads a reference bank price file keyed by canonical code.
// Duplicate codes keep the first record. Items without a source label are
// labelled with tag.
func (l *Loader) ReferenceItems(ctx context.Context, tag banks.Tag, path string) (records.ItemMap, error) {
	var file itemsFile
	if err := l.decode(path, &file); err != nil {
		return nil, err
	}
	logger := logging.FromContext(logging.WithBank(ctx, tag.String()))

	out := make(records.ItemMap, len(file.Items))
	for i, raw := range file.Items {
		code := codeString(raw.Code)
		key := canon.Code(code)
		if key == "" {
			logger.Debug().Str("file", path).Int("row", i+1).Msg("Skipping reference row without code")
			continue
		}
		if _, dup := out[key]; dup {
			logger.Warn().Str("file", path).Str("code", key).Int("row", i+1).Msg("Duplicate reference code, keeping first")
			continue
		}
		item := raw.item(code)
		if item.SourceTag == nil {
			item.SourceTag = records.Ptr(tag.String())
		}
		if item.Origin == "" {
			item.Origin = tag.String()
		}
		out[key] = item
	}

	logger.Debug().Str("file", path).Int("items", len(out)).Msg("Reference items loaded")
	return out, nil
}

// BudgetCompositions loads a budget structure file, keyed like BudgetItems.
func (l *Loader) BudgetCompositions(ctx context.Context, path string) (records.StructureMap, error) {
	var file compositionsFile
	if err := l.decode(path, &file); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)

	out := make(records.StructureMap, len(file.Compositions))
	occ := newOccurrences()
	for i, raw := range file.Compositions {
		code := codeString(raw.Code)
		if code == "" {
			logger.Debug().Str("file", path).Int("row", i+1).Msg("Skipping budget composition without code")
			continue
		}
		key, skipped := occ.key(code)
		if skipped {
			logger.Warn().Str("file", path).Int("row", i+1).Str("code", code).Str("key", key).Msg("Budget composition key already taken")
		}
		out[key] = raw.composition(key)
	}

	logger.Debug().Str("file", path).Int("compositions", len(out)).Msg("Budget compositions loaded")
	return out, nil
}

// ReferenceCompositions loads a reference structure file keyed by canonical
// parent code, first record wins.
func (l *Loader) ReferenceCompositions(ctx context.Context, tag banks.Tag, path string) (records.StructureMap, error) {
	var file compositionsFile
	if err := l.decode(path, &file); err != nil {
		return nil, err
	}
	logger := logging.FromContext(logging.WithBank(ctx, tag.String()))

	out := make(records.StructureMap, len(file.Compositions))
	for i, raw := range file.Compositions {
		code := codeString(raw.Code)
		key := canon.Code(code)
		if key == "" {
			logger.Debug().Str("file", path).Int("row", i+1).Msg("Skipping reference composition without code")
			continue
		}
		if _, dup := out[key]; dup {
			logger.Warn().Str("file", path).Str("code", key).Int("row", i+1).Msg("Duplicate reference composition, keeping first")
			continue
		}
		comp := raw.composition(code)
		if comp.SourceTag == nil {
			comp.SourceTag = records.Ptr(tag.String())
		}
		out[key] = comp
	}

	logger.Debug().Str("file", path).Int("compositions", len(out)).Msg("Reference compositions loaded")
	return out, nil
}

// decode reads path and unmarshals it according to its extension.
func (l *Loader) decode(path string, v any) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	data, err := l.reader.ReadFile(path)
	if err != nil {
		return errors.WrapRead("record file", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	// JSON documents are valid YAML, so one decoder serves both.
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.WrapParse(format, path, err)
	}
	return nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", &errors.ParseError{
			Format:  strings.TrimPrefix(filepath.Ext(path), "."),
			File:    path,
			Message: "unsupported record file type, expected .yaml, .yml or .json",
			Err:     errors.ErrUnsupportedFormat,
		}
	}
}

func (r rawItem) item(code string) records.Item {
	return records.Item{
		Code:        code,
		Description: strings.TrimSpace(r.Description),
		UnitValue:   canon.Float(r.UnitValue),
		Unit:        r.Unit,
		SourceTag:   r.Source,
		Origin:      r.Origin,
	}
}

func (r rawComposition) composition(code string) records.Composition {
	children := make([]records.ChildSpec, 0, len(r.Children))
	for _, c := range r.Children {
		children = append(children, records.ChildSpec{
			Code:        codeString(c.Code),
			Description: strings.TrimSpace(c.Description),
			Unit:        c.Unit,
			Coefficient: canon.Float(c.Coefficient),
		})
	}
	return records.Composition{
		Code:        code,
		Description: strings.TrimSpace(r.Description),
		Unit:        r.Unit,
		Children:    children,
		SourceTag:   r.Source,
	}
}

// occurrences hands out unique row keys for budget codes. A generated
// key already used by a literal row moves on to the next free suffix.
type occurrences struct {
	counts map[string]int
	taken  map[string]bool
}

func newOccurrences() *occurrences {
	return &occurrences{counts: map[string]int{}, taken: map[string]bool{}}
}

// key returns the row key for code and whether it had to skip a key
// already in use.
func (o *occurrences) key(code string) (string, bool) {
	skipped := false
	for {
		n := o.counts[code]
		o.counts[code] = n + 1
		key := code
		if n > 0 {
			key = code + occurrenceSuffix + strconv.Itoa(n)
		}
		if !o.taken[key] {
			o.taken[key] = true
			return key, skipped
		}
		skipped = true
	}
}

// codeString renders a code cell that may have been typed as a number.
func codeString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}
