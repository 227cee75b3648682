package jobs

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/agentstation/budgetcheck/pkg/errors"
	"github.com/agentstation/budgetcheck/pkg/export"
)

// Artifact is a report file found in an output directory.
type Artifact struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	HumanSize string    `json:"humanSize"`
	ModTime   time.Time `json:"modTime"`
}

// ListArtifacts returns the report files in dir, newest first. A missing
// directory yields an empty list.
func ListArtifacts(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Artifact{}, nil
		}
		return nil, errors.WrapIO("read", dir, err)
	}

	known := make(map[string]bool)
	for _, f := range export.Formats() {
		known["."+f.Ext()] = true
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !known[filepath.Ext(entry.Name())] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name:      entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			Size:      info.Size(),
			HumanSize: FormatBytes(info.Size()),
			ModTime:   info.ModTime(),
		})
	}

	slices.SortFunc(artifacts, func(a, b Artifact) int {
		return cmp.Or(b.ModTime.Compare(a.ModTime), cmp.Compare(a.Name, b.Name))
	})
	return artifacts, nil
}

// FormatBytes formats a byte count as a human-readable size.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
