package bulk

import "strings"

// parseCSV reads a comma-separated upload: first line is the header row,
// each non-blank line after it is zipped positionally against the headers.
// There is no quote handling on this path, so a quoted field containing a
// comma splits; the export side does quote comma-containing values. The
// asymmetry is inherited from the data this service replaces and is kept so
// previously imported files keep parsing identically.
func parseCSV(data []byte) []map[string]string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return nil
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := []map[string]string{}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(values) {
				row[header] = strings.TrimSpace(values[i])
			}
		}
		rows = append(rows, row)
	}
	return rows
}
