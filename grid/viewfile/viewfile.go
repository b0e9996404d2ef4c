// Package viewfile persists view configurations as YAML documents so a
// configured view can be saved, shared and re-applied to other data sets.
package viewfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jook1356/grid-sub001/grid"
)

// FormatVersion is written into every saved view file. Loading rejects
// files from a newer major format.
const FormatVersion = 1

// ViewFile is the on-disk envelope around a view configuration
type ViewFile struct {
	Version     int             `yaml:"version"`
	Name        string          `yaml:"name,omitempty"`
	Description string          `yaml:"description,omitempty"`
	SavedAt     time.Time       `yaml:"savedAt,omitempty"`
	Config      grid.ViewConfig `yaml:"config"`
}

// Load reads and validates a view file
func Load(path string) (*ViewFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read view file: %w", err)
	}

	var vf ViewFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("failed to parse view file %s: %w", path, err)
	}

	if vf.Version > FormatVersion {
		return nil, fmt.Errorf("view file %s has unsupported version %d (max %d)", path, vf.Version, FormatVersion)
	}

	if err := Validate(&vf.Config); err != nil {
		return nil, fmt.Errorf("invalid view file %s: %w", path, err)
	}

	return &vf, nil
}

// Save writes a view file, creating parent directories as needed
func Save(path string, vf *ViewFile) error {
	if vf == nil {
		return fmt.Errorf("view file is nil")
	}
	if err := Validate(&vf.Config); err != nil {
		return fmt.Errorf("refusing to save invalid view: %w", err)
	}

	out := *vf
	out.Version = FormatVersion
	if out.SavedAt.IsZero() {
		out.SavedAt = time.Now().UTC()
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode view file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for view file: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write view file: %w", err)
	}
	return nil
}

// Validate checks the structural fields of a view configuration. Unknown
// filter operators are allowed (the filter stage handles them permissively)
// but sort directions and aggregate functions must be recognized.
func Validate(cfg *grid.ViewConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	for i, f := range cfg.Filters {
		if f.ColumnKey == "" {
			return fmt.Errorf("filter %d has no column", i)
		}
	}

	for i, s := range cfg.Sorts {
		if s.ColumnKey == "" {
			return fmt.Errorf("sort %d has no column", i)
		}
		if s.Direction != grid.SortAscending && s.Direction != grid.SortDescending {
			return fmt.Errorf("sort %d has invalid direction %q", i, s.Direction)
		}
	}

	if cfg.Group != nil {
		for i, agg := range cfg.Group.Aggregates {
			if !validAggregate(agg.Function) {
				return fmt.Errorf("group aggregate %d has unknown function %q", i, agg.Function)
			}
		}
	}

	if cfg.Pivot != nil {
		if len(cfg.Pivot.ColumnFields) > 0 && len(cfg.Pivot.ValueFields) == 0 {
			return fmt.Errorf("pivot has column fields but no value fields")
		}
		for i, vf := range cfg.Pivot.ValueFields {
			if vf.Field == "" {
				return fmt.Errorf("pivot value field %d has no source field", i)
			}
			if !validAggregate(vf.Aggregate) {
				return fmt.Errorf("pivot value field %d has unknown aggregate %q", i, vf.Aggregate)
			}
		}
	}

	return nil
}

func validAggregate(fn grid.AggregateFunc) bool {
	switch fn {
	case grid.AggSum, grid.AggAvg, grid.AggMin, grid.AggMax, grid.AggCount, grid.AggFirst, grid.AggLast:
		return true
	}
	return false
}
