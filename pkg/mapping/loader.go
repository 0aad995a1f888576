package mapping

import (
	"context"
	"os"
	"time"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/logging"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

// Index names.
const (
	IndexMondoToICD11 = "mondo_icd11"
	IndexICD10ToMondo = "icd10_mondo"
)

// SPARQL query basenames that produce each table, used for hints.
const (
	queryMondoICD11 = "extract_mondo_icd11"
	queryICD10Mondo = "extract_icd10_mondo"
)

// Paths locates the two mapping tables.
type Paths struct {
	MondoICD11 string
	ICD10Mondo string
}

// Indexes bundles the two indexes needed for resolution.
type Indexes struct {
	// MondoToICD11 maps a MONDO CURIE to its ICD-11 cross-references.
	MondoToICD11 *Index

	// ICD10ToMondo maps an ICD-10 CURIE to the MONDO terms that cite it.
	ICD10ToMondo *Index
}

// LoadOptions configures Load.
type LoadOptions struct {
	Encoding tsv.Encoding
	Logger   logging.Logger
}

// CheckFiles verifies both mapping tables exist, returning a missing_file
// SchemaError with a regeneration hint for the first one that does not.
func CheckFiles(paths Paths) error {
	for _, f := range []struct{ path, query string }{
		{paths.MondoICD11, queryMondoICD11},
		{paths.ICD10Mondo, queryICD10Mondo},
	} {
		if _, err := os.Stat(f.path); err != nil {
			se := mapperrors.ClassifyFileError(err, f.path)
			if se.Code == mapperrors.ErrMissingFile {
				se.Hint = mapperrors.SuggestedCommand(f.query, f.path)
			}
			return se
		}
	}
	return nil
}

// Load reads both mapping tables and builds their indexes. Both files are
// checked for existence before either is read.
func Load(ctx context.Context, paths Paths, opts LoadOptions) (*Indexes, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.WithContext(ctx).With(logging.F("component", "mapping"))

	if err := CheckFiles(paths); err != nil {
		return nil, err
	}

	mondo, err := loadIndex(log, IndexMondoToICD11, paths.MondoICD11, opts.Encoding, ColumnMondoCURIE, ColumnICD11Xref)
	if err != nil {
		return nil, err
	}

	icd10, err := loadIndex(log, IndexICD10ToMondo, paths.ICD10Mondo, opts.Encoding, ColumnICD10Xref, ColumnMondoCURIE)
	if err != nil {
		return nil, err
	}

	return &Indexes{MondoToICD11: mondo, ICD10ToMondo: icd10}, nil
}

func loadIndex(log logging.Logger, name, path string, enc tsv.Encoding, keyColumn, valueColumn string) (*Index, error) {
	start := time.Now()
	log.Debug("Loading mapping table", logging.F("index", name), logging.F("path", path))

	table, err := tsv.ReadFile(path, tsv.ReadOptions{Encoding: enc})
	if err != nil {
		return nil, err
	}

	idx, err := BuildIndex(name, table, keyColumn, valueColumn)
	if err != nil {
		return nil, err
	}

	log.Info("Loaded mapping index",
		logging.F("index", name),
		logging.F("path", path),
		logging.F("keys", idx.Len()),
		logging.F("pairs", idx.Pairs()),
		logging.F("duration", time.Since(start)),
	)
	return idx, nil
}
