package fileloader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX parsing. Only the first sheet is read; excelize returns every cell as
// a string, so the shared record conversion handles typing.

// loadXLSXFromBytes parses XLSX data in memory into a typed result
func loadXLSXFromBytes(data []byte, options Options) (*LoadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	allRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(allRows) == 0 {
		return &LoadResult{}, nil
	}

	var header []string
	var records [][]string

	if options.NoHeaderRow {
		header = NormalizeHeaders(make([]string, len(allRows[0])))
		records = allRows
	} else {
		header = NormalizeHeaders(allRows[0])
		records = allRows[1:]
	}

	rows, columns := buildRowsFromRecords(header, records)
	return &LoadResult{Rows: rows, Columns: columns}, nil
}
