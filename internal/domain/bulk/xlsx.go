package bulk

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// parseXLSX loads the first sheet of a workbook and keys every data row by
// the header row. Cells are taken as their displayed string values; numeric
// coercion happens later in row processing.
func parseXLSX(r io.Reader) ([]map[string]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	cells, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return []map[string]string{}, nil
	}

	headers := cells[0]
	rows := []map[string]string{}
	for _, line := range cells[1:] {
		empty := true
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" || i >= len(line) {
				continue
			}
			if line[i] != "" {
				empty = false
			}
			row[header] = line[i]
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
