package bulk

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/labkatalog/labkatalog/internal/domain/catalog"
	"github.com/labkatalog/labkatalog/internal/platform/store"
)

// exportHeaders fixes the column set and order per collection: every field
// except id. The same headers serve as the import templates.
var exportHeaders = map[string][]string{
	catalog.CollectionDepartments: {"name", "beschreibung"},
	catalog.CollectionProfiles:    {"name", "fachbereich_id", "beschreibung"},
	catalog.CollectionLabValues: {
		"name",
		"ebm_ziffer",
		"verguetung",
		"referenzbereich",
		"erklaerung",
		"gruende_erhoehte_werte",
		"behandlung_erhoehte_werte",
		"gruende_niedrige_werte",
		"behandlung_niedrige_werte",
	},
	catalog.CollectionLinks: {"profil_id", "wert_id", "reihenfolge"},
}

// Export serializes the target collection to CSV text: header row without
// id, one line per record, null as empty string, comma-containing strings
// wrapped in quotes.
func (a *Adapter) Export(ctx context.Context, tag string) (string, error) {
	collection, err := ResolveType(tag)
	if err != nil {
		return "", err
	}
	headers := exportHeaders[collection]
	records := store.Read[map[string]any](a.st, collection)

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, record := range records {
		b.WriteString("\n")
		cells := make([]string, len(headers))
		for i, header := range headers {
			cells[i] = formatCell(record[header])
		}
		b.WriteString(strings.Join(cells, ","))
	}
	return b.String(), nil
}

// Template returns the header-only CSV for a collection, guiding future
// imports.
func (a *Adapter) Template(tag string) (string, error) {
	collection, err := ResolveType(tag)
	if err != nil {
		return "", err
	}
	return strings.Join(exportHeaders[collection], ",") + "\n", nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if strings.Contains(val, ",") {
			return `"` + val + `"`
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
