// Package mapping builds the cross-reference indexes used to resolve CURIEs
// to ICD-11 codes.
//
// Two tables are consumed, both produced upstream by a ROBOT SPARQL query
// against the MONDO ontology:
//
//	mondo_icd11_mappings.tsv   ?mondo_curie  ?icd11_xref
//	icd10_mondo_mappings.tsv   ?icd10_xref   ?mondo_curie
//
// Each is grouped into an Index: key -> ordered values. Indexes are built once
// per run and are read-only afterwards, so they can be shared freely.
package mapping

import (
	"strings"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

// Column names in the upstream mapping tables (after marker stripping).
const (
	ColumnMondoCURIE = "mondo_curie"
	ColumnICD11Xref  = "icd11_xref"
	ColumnICD10Xref  = "icd10_xref"
)

// VariableMarker prefixes column names in SPARQL result headers.
const VariableMarker = "?"

// Index maps each key to the values seen for it, in source-row order.
// Keys keep first-seen order. Duplicate values are retained.
type Index struct {
	name   string
	keys   []string
	values map[string][]string
	pairs  int
}

// NewIndex creates an empty index. Use Add while building, then treat the
// index as immutable.
func NewIndex(name string) *Index {
	return &Index{
		name:   name,
		values: make(map[string][]string),
	}
}

// Add appends value to key's group.
func (x *Index) Add(key, value string) {
	if _, ok := x.values[key]; !ok {
		x.keys = append(x.keys, key)
	}
	x.values[key] = append(x.values[key], value)
	x.pairs++
}

// Name returns the index name used in logs and metrics.
func (x *Index) Name() string {
	return x.name
}

// Lookup returns the values for key in source order. The returned slice is a
// copy; a missing key yields nil.
func (x *Index) Lookup(key string) []string {
	if x == nil {
		return nil
	}
	vals, ok := x.values[key]
	if !ok {
		return nil
	}
	return append([]string(nil), vals...)
}

// Contains reports whether key has at least one value.
func (x *Index) Contains(key string) bool {
	if x == nil {
		return false
	}
	_, ok := x.values[key]
	return ok
}

// Len returns the number of distinct keys.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.keys)
}

// Pairs returns the number of (key, value) pairs added.
func (x *Index) Pairs() int {
	if x == nil {
		return 0
	}
	return x.pairs
}

// Keys returns the keys in first-seen order.
func (x *Index) Keys() []string {
	if x == nil {
		return nil
	}
	return append([]string(nil), x.keys...)
}

// StripMarker removes a single leading SPARQL variable marker from a column name.
func StripMarker(column string) string {
	return strings.TrimPrefix(column, VariableMarker)
}

// BuildIndex groups the (keyColumn, valueColumn) pairs of table into an Index.
// Header names are matched after StripMarker. A missing column is a
// *errors.SchemaError naming the column and the table's source file.
// Rows whose key or value is missing are skipped. table is not modified.
func BuildIndex(name string, table *tsv.Table, keyColumn, valueColumn string) (*Index, error) {
	header := make([]string, len(table.Header))
	for i, h := range table.Header {
		header[i] = StripMarker(h)
	}

	keyIdx, valueIdx := indexOf(header, keyColumn), indexOf(header, valueColumn)
	if keyIdx < 0 {
		return nil, mapperrors.MissingColumn(table.Source, keyColumn, header)
	}
	if valueIdx < 0 {
		return nil, mapperrors.MissingColumn(table.Source, valueColumn, header)
	}

	idx := NewIndex(name)
	for row := range table.Rows {
		key, value := table.Cell(row, keyIdx), table.Cell(row, valueIdx)
		if key == "" || value == "" {
			continue
		}
		idx.Add(key, value)
	}

	return idx, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
