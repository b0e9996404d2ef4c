package fileloader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CSV parsing. Records with a variable number of fields are accepted to
// tolerate corrupted exports; short records pad with nulls.

// loadCSVFromBytes parses CSV data in memory into a typed result
func loadCSVFromBytes(data []byte, options Options) (*LoadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	firstRow, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &LoadResult{}, nil
		}
		return nil, err
	}

	var header []string
	var records [][]string

	if options.NoHeaderRow {
		header = NormalizeHeaders(make([]string, len(firstRow)))
		records = append(records, firstRow)
	} else {
		header = NormalizeHeaders(firstRow)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever the record holds; a parse error on one row
			// should not discard the rest of the file
			if record == nil {
				break
			}
		}
		records = append(records, record)
	}

	rows, columns := buildRowsFromRecords(header, records)
	return &LoadResult{Rows: rows, Columns: columns}, nil
}

// ReadCSVHeader reads only the header row from a CSV file
func ReadCSVHeader(filePath string, options Options) ([]string, error) {
	data, _, err := ReadFileData(filePath)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	firstRow, err := reader.Read()
	if err != nil {
		return nil, err
	}

	if options.NoHeaderRow {
		return NormalizeHeaders(make([]string, len(firstRow))), nil
	}
	return NormalizeHeaders(firstRow), nil
}
