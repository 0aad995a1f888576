package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
)

// Write renders t as tab-delimited text with a trailing newline per row.
//
// A field is quoted only when it contains a tab, a line break or a double
// quote; everything else, leading and trailing spaces included, is written
// as is.
func Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)

	if err := writeRecord(bw, t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeRecord(bw, row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRecord(w *bufio.Writer, record []string) error {
	// A lone empty field would otherwise read back as a blank line.
	if len(record) == 1 && record[0] == "" {
		_, err := w.WriteString("\"\"\n")
		return err
	}
	for i, field := range record {
		if i > 0 {
			if err := w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if err := writeField(w, field); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func writeField(w *bufio.Writer, field string) error {
	if !strings.ContainsAny(field, "\t\n\r\"") {
		_, err := w.WriteString(field)
		return err
	}
	_, err := w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`)
	return err
}

// WriteFile writes t to path, creating parent directories and compressing
// by extension. Errors are *errors.SchemaError values with code write_failed.
func WriteFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return writeFailed(path, fmt.Errorf("creating output directory: %w", err))
	}

	wc, err := createFile(path)
	if err != nil {
		return writeFailed(path, err)
	}

	if err := Write(wc, t); err != nil {
		wc.Close()
		return writeFailed(path, err)
	}

	if err := wc.Close(); err != nil {
		return writeFailed(path, err)
	}
	return nil
}

func writeFailed(path string, err error) error {
	return &mapperrors.SchemaError{
		Code:    mapperrors.ErrWriteFailed,
		File:    path,
		Message: err.Error(),
		Cause:   err,
	}
}
