package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorCode classifies a fatal input error.
type ErrorCode string

const (
	ErrMissingFile   ErrorCode = "missing_file"
	ErrMissingColumn ErrorCode = "missing_column"
	ErrMalformedRow  ErrorCode = "malformed_row"
	ErrReadFailed    ErrorCode = "read_failed"
	ErrWriteFailed   ErrorCode = "write_failed"
)

// SchemaError is a structured error for input files that cannot be used.
// It is always fatal: no partial output is produced once one is returned.
type SchemaError struct {
	Code ErrorCode
	File string

	// Column is the missing column for ErrMissingColumn.
	Column string

	// Available lists the columns actually present, for ErrMissingColumn.
	Available []string

	// Line is the 1-based line number for ErrMalformedRow.
	Line int

	Message string

	// Hint is an optional command that fixes the problem, shown by the CLI.
	Hint string

	Cause error
}

func (e *SchemaError) Error() string {
	switch e.Code {
	case ErrMissingColumn:
		msg := fmt.Sprintf("%s: column %q not found in %s", e.Code, e.Column, e.File)
		if len(e.Available) > 0 {
			msg += fmt.Sprintf(" (available columns: %s)", strings.Join(e.Available, ", "))
		}
		return msg
	case ErrMalformedRow:
		return fmt.Sprintf("%s: %s line %d: %s", e.Code, e.File, e.Line, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.File)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is makes every SchemaError match ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// MissingColumn returns a SchemaError for a column absent from file.
func MissingColumn(file, column string, available []string) *SchemaError {
	return &SchemaError{
		Code:      ErrMissingColumn,
		File:      file,
		Column:    column,
		Available: append([]string(nil), available...),
	}
}

// MissingFile returns a SchemaError for an input file that does not exist.
func MissingFile(file string, cause error) *SchemaError {
	return &SchemaError{
		Code:    ErrMissingFile,
		File:    file,
		Message: "file not found",
		Cause:   cause,
	}
}

// MalformedRow returns a SchemaError for a row that cannot be parsed.
func MalformedRow(file string, line int, message string) *SchemaError {
	return &SchemaError{
		Code:    ErrMalformedRow,
		File:    file,
		Line:    line,
		Message: message,
	}
}

// ClassifyFileError wraps an I/O error from opening or reading file.
// A missing file becomes ErrMissingFile, anything else ErrReadFailed.
// Errors that already are a *SchemaError are returned unchanged.
func ClassifyFileError(err error, file string) *SchemaError {
	if err == nil {
		return nil
	}

	var se *SchemaError
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, fs.ErrNotExist) {
		return MissingFile(file, err)
	}

	return &SchemaError{
		Code:    ErrReadFailed,
		File:    file,
		Message: err.Error(),
		Cause:   err,
	}
}

// CodeOf returns the ErrorCode of the first SchemaError in err's chain,
// or the empty code if there is none.
func CodeOf(err error) ErrorCode {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
