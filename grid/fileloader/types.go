// Package fileloader ingests tabular data files (CSV, XLSX, JSON, optionally
// compressed) into rows and column definitions. It handles file type
// detection, header normalization, column type inference, and multi-file
// directory loading with a unified schema.
package fileloader

import (
	"github.com/jook1356/grid-sub001/grid"
)

// FileType represents the type of data file being processed
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeXLSX
	FileTypeJSON
)

// String returns the string representation of FileType
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "CSV"
	case FileTypeXLSX:
		return "XLSX"
	case FileTypeJSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// Options controls file parsing behavior
type Options struct {
	// NoHeaderRow treats the first row as data; synthetic headers are
	// generated instead
	NoHeaderRow bool

	// JPath selects the array of records inside a JSON document, e.g.
	// "$.results". Empty means the document root.
	JPath string

	// IncludeSourceColumn appends a __source_file__ column when loading a
	// directory
	IncludeSourceColumn bool
}

// DefaultOptions returns the default parsing options
func DefaultOptions() Options {
	return Options{}
}

// LoadResult is a fully loaded data set
type LoadResult struct {
	Rows    []grid.Row
	Columns []grid.ColumnDef

	// Warning is non-empty when loading was incomplete, e.g. a truncated
	// compressed stream yielded partial data
	Warning string
}

// DirectoryOptions controls multi-file discovery
type DirectoryOptions struct {
	// Pattern is a doublestar glob relative to the directory root, e.g.
	// "**/*.csv.gz". Required.
	Pattern string

	// ExcludePatterns filters out matching base names
	ExcludePatterns []string

	// MaxFiles caps the number of files loaded (0 = unlimited)
	MaxFiles int
}
