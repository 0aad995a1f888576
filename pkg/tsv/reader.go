package tsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
)

// ReadOptions controls how a table is read.
type ReadOptions struct {
	// Encoding of the input text. Empty means UTF-8.
	Encoding Encoding

	// Source names the input in error messages.
	Source string
}

// ReadFile reads a table from path. Compression is inferred from the
// extension. Errors are *errors.SchemaError values naming path.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	if opts.Source == "" {
		opts.Source = path
	}

	rc, err := openFile(path)
	if err != nil {
		return nil, mapperrors.ClassifyFileError(err, path)
	}
	defer rc.Close()

	return Read(rc, opts)
}

// Read parses a tab-delimited table with a header row from r.
//
// Rows shorter than the header are padded with "" (missing values); rows
// longer than the header are a malformed_row error. Blank lines are skipped.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	source := opts.Source
	if source == "" {
		source = "<input>"
	}

	cr := csv.NewReader(decodeReader(r, opts.Encoding))
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, mapperrors.MalformedRow(source, 1, "missing header row")
	}
	if err != nil {
		return nil, parseError(err, source)
	}
	if opts.Encoding.validates() && !validRecord(header) {
		return nil, invalidUTF8(source, 1)
	}

	t := &Table{
		Header: header,
		Source: source,
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err, source)
		}

		if opts.Encoding.validates() && !validRecord(record) {
			line, _ := cr.FieldPos(0)
			return nil, invalidUTF8(source, line)
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, mapperrors.MalformedRow(source, line,
				fmt.Sprintf("expected %d fields, got %d", len(header), len(record)))
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

func validRecord(record []string) bool {
	for _, field := range record {
		if !utf8.ValidString(field) {
			return false
		}
	}
	return true
}

// invalidUTF8 reports a line that is not UTF-8, which usually means the file
// was exported in a legacy encoding.
func invalidUTF8(source string, line int) error {
	err := mapperrors.MalformedRow(source, line, "invalid UTF-8 byte sequence")
	err.Hint = "icd11map <command> --input-encoding latin1"
	return err
}

// parseError converts a csv or decoding error into a SchemaError.
func parseError(err error, source string) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return mapperrors.MalformedRow(source, pe.Line, pe.Err.Error())
	}
	return mapperrors.ClassifyFileError(err, source)
}
