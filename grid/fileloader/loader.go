package fileloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jook1356/grid-sub001/grid"
)

// Load reads one data file into rows and column definitions, detecting
// format and compression from the path and content
func Load(filePath string, options Options) (*LoadResult, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is empty")
	}

	fileType, _ := DetectFileTypeAndCompression(filePath)

	data, warning, err := ReadFileData(filePath)
	if err != nil {
		return nil, err
	}

	var result *LoadResult
	switch fileType {
	case FileTypeCSV:
		result, err = loadCSVFromBytes(data, options)
	case FileTypeXLSX:
		result, err = loadXLSXFromBytes(data, options)
	case FileTypeJSON:
		result, err = loadJSONFromBytes(data, options)
	default:
		return nil, fmt.Errorf("unsupported file type for %q", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
	}

	if result.Warning == "" {
		result.Warning = warning
	}
	return result, nil
}

// IsDirectory checks if the path is a directory
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// DiscoverFiles finds all files under a directory matching the glob pattern,
// in lexical match order
func DiscoverFiles(dirPath string, dirOptions DirectoryOptions) ([]string, error) {
	if dirOptions.Pattern == "" {
		return nil, fmt.Errorf("file pattern is required (e.g., *.json.gz, **/*.csv)")
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(absPath, dirOptions.Pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}
	// Lexical order keeps multi-file loads deterministic
	sort.Strings(matches)

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		excluded := false
		for _, excludePattern := range dirOptions.ExcludePatterns {
			if matched, _ := filepath.Match(excludePattern, filepath.Base(match)); matched {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		files = append(files, match)
		if dirOptions.MaxFiles > 0 && len(files) >= dirOptions.MaxFiles {
			break
		}
	}

	return files, nil
}

// LoadDirectory loads every matching file in a directory into one data set
// with a unified schema. Columns are ordered by first appearance across
// files; rows from files missing a column hold nulls there. With
// options.IncludeSourceColumn a __source_file__ column records each row's
// origin as a path relative to the directory root.
func LoadDirectory(dirPath string, dirOptions DirectoryOptions, options Options) (*LoadResult, error) {
	files, err := DiscoverFiles(dirPath, dirOptions)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched %q in %s", dirOptions.Pattern, dirPath)
	}

	absRoot, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var unionColumns []grid.ColumnDef
	var rows []grid.Row
	var warning string

	for _, filePath := range files {
		result, err := Load(filePath, options)
		if err != nil {
			// One unreadable file should not sink the whole directory
			if warning == "" {
				warning = fmt.Sprintf("Skipped %s: %v", filePath, err)
			}
			continue
		}
		if result.Warning != "" && warning == "" {
			warning = result.Warning
		}

		for _, def := range result.Columns {
			if !seen[def.Key] {
				seen[def.Key] = true
				unionColumns = append(unionColumns, def)
			}
		}

		sourcePath := ""
		if options.IncludeSourceColumn {
			rel, err := filepath.Rel(absRoot, filePath)
			if err != nil {
				rel = filePath
			}
			sourcePath = rel
		}

		for _, row := range result.Rows {
			if sourcePath != "" {
				row["__source_file__"] = sourcePath
			}
			rows = append(rows, row)
		}
	}

	if len(unionColumns) == 0 {
		return nil, fmt.Errorf("no valid data found in any matched file")
	}

	if options.IncludeSourceColumn {
		unionColumns = append(unionColumns, grid.ColumnDef{
			Key:   "__source_file__",
			Label: "Source File",
			Type:  grid.ColumnString,
			Width: 160,
		})
	}

	return &LoadResult{Rows: rows, Columns: unionColumns, Warning: warning}, nil
}
