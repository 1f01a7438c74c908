package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labkatalog/labkatalog/internal/domain/catalog"
	"github.com/labkatalog/labkatalog/internal/platform/ident"
	"github.com/labkatalog/labkatalog/internal/platform/store"
)

var (
	// ErrUnsupportedType reports an unknown target collection tag.
	ErrUnsupportedType = errors.New("unsupported import type")

	// ErrUnsupportedFormat reports a file extension other than .xlsx/.csv,
	// rejected before any parsing.
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
)

// typeTags maps accepted type tags to collection names. The German tags are
// the collection names themselves; English aliases are accepted for callers
// speaking the entity vocabulary.
var typeTags = map[string]string{
	catalog.CollectionDepartments: catalog.CollectionDepartments,
	catalog.CollectionProfiles:    catalog.CollectionProfiles,
	catalog.CollectionLabValues:   catalog.CollectionLabValues,
	catalog.CollectionLinks:       catalog.CollectionLinks,
	"department":                  catalog.CollectionDepartments,
	"profile":                     catalog.CollectionProfiles,
	"labvalue":                    catalog.CollectionLabValues,
	"link":                        catalog.CollectionLinks,
}

var idPrefixes = map[string]string{
	catalog.CollectionDepartments: catalog.PrefixDepartment,
	catalog.CollectionProfiles:    catalog.PrefixProfile,
	catalog.CollectionLabValues:   catalog.PrefixLabValue,
	catalog.CollectionLinks:       catalog.PrefixLink,
}

// ResolveType normalizes a type tag to its collection name.
func ResolveType(tag string) (string, error) {
	collection, ok := typeTags[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, tag)
	}
	return collection, nil
}

// Adapter converts uploaded tabular files into collection records and
// serializes collections back to CSV. Both directions share the record
// shape with the repositories: German field names, ids with the per-type
// prefix.
type Adapter struct {
	st     *store.Store
	ids    ident.Generator
	logger zerolog.Logger
}

func NewAdapter(st *store.Store, ids ident.Generator, logger zerolog.Logger) *Adapter {
	return &Adapter{st: st, ids: ids, logger: logger}
}

// Import parses the uploaded file, assigns ids to rows that lack one, and
// appends all rows to the target collection in a single write. Rows carrying
// an id pass through unchanged; duplicates against existing records are not
// detected. Returns the number of imported rows.
func (a *Adapter) Import(ctx context.Context, tag, filename string, r io.Reader) (int, error) {
	collection, err := ResolveType(tag)
	if err != nil {
		return 0, err
	}

	var rows []map[string]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = parseXLSX(r)
	case ".csv":
		data, rerr := io.ReadAll(r)
		if rerr != nil {
			return 0, fmt.Errorf("read upload: %w", rerr)
		}
		rows = parseCSV(data)
	default:
		return 0, ErrUnsupportedFormat
	}
	if err != nil {
		return 0, err
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, a.processRow(collection, row))
	}

	var count int
	err = a.st.WithLock(collection, func() error {
		existing := store.Read[map[string]any](a.st, collection)
		existing = append(existing, records...)
		if err := store.Write(a.st, collection, existing); err != nil {
			return err
		}
		count = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.logger.Info().Str("collection", collection).Int("rows", count).Msg("import committed")
	return count, nil
}

// processRow turns a parsed key/value row into a collection record: missing
// id generated with the per-type prefix, numeric columns coerced so the
// typed read path can load the collection afterwards.
func (a *Adapter) processRow(collection string, row map[string]string) map[string]any {
	record := make(map[string]any, len(row)+1)
	for k, v := range row {
		record[k] = v
	}

	if id, ok := record["id"].(string); !ok || id == "" {
		record["id"] = a.ids.NewID(idPrefixes[collection])
	}

	switch collection {
	case catalog.CollectionLabValues:
		coerceNumber(record, "verguetung", a.logger)
	case catalog.CollectionLinks:
		coerceNumber(record, "reihenfolge", a.logger)
	}
	return record
}

// coerceNumber parses a textual numeric column. Empty or unparsable text
// becomes null rather than zero or a poisoned string.
func coerceNumber(record map[string]any, field string, logger zerolog.Logger) {
	s, ok := record[field].(string)
	if !ok {
		return
	}
	s = strings.TrimSpace(s)
	if s == "" {
		record[field] = nil
		return
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		logger.Warn().Str("field", field).Str("value", s).Msg("numeric column not parsable, storing null")
		record[field] = nil
		return
	}
	record[field] = f
}
