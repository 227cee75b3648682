// Package export writes reconciliation reports to disk as JSON, YAML, XLSX
// workbooks or Markdown. Every file is written atomically: readers see
// either the previous file or the complete new one, never a partial write.
package export

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/budgetcheck/pkg/constants"
	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/reconciler"
)

// Format is an artifact format.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "md"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatXLSX, FormatMarkdown}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", errors.WrapValidation("export", errors.ErrUnsupportedFormat)
	}
}

// ParseFormats parses a list of format names, dropping duplicates and
// keeping first-seen order. An empty list yields JSON only.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := ParseFormat(part)
			if err != nil {
				return nil, &errors.ValidationError{Field: "export", Value: part, Message: "unsupported format " + part}
			}
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	if len(out) == 0 {
		out = []Format{FormatJSON}
	}
	return out, nil
}

// Prices writes a price report in the given format.
func Prices(path string, format Format, report *reconciler.PriceReport) error {
	switch format {
	case FormatJSON:
		return JSON(path, report)
	case FormatYAML:
		return YAML(path, report)
	case FormatXLSX:
		return PricesWorkbook(path, report)
	case FormatMarkdown:
		return WriteFileAtomic(path, func(w io.Writer) error {
			return PricesMarkdown(w, report)
		})
	default:
		return errors.WrapValidation("export", errors.ErrUnsupportedFormat)
	}
}

// Structure writes a structure report in the given format.
func Structure(path string, format Format, report *reconciler.StructureReport) error {
	switch format {
	case FormatJSON:
		return JSON(path, report)
	case FormatYAML:
		return YAML(path, report)
	case FormatXLSX:
		return StructureWorkbook(path, report)
	case FormatMarkdown:
		return WriteFileAtomic(path, func(w io.Writer) error {
			return StructureMarkdown(w, report)
		})
	default:
		return errors.WrapValidation("export", errors.ErrUnsupportedFormat)
	}
}

// JSON writes v as indented UTF-8 JSON.
func JSON(path string, v any) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// YAML writes v as YAML with the same keys its JSON form has.
func YAML(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WrapParse("json", path, err)
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	})
}

// WriteFileAtomic creates path's directory if needed, streams content into
// a temporary file next to path, syncs it, makes it world-readable and
// renames it over path.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err = bw.Flush(); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.WrapIO("sync", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return errors.WrapIO("close", tmpPath, err)
	}
	if err = os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}
