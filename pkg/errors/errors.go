// Package errors provides common error types for icd11map.
//
// This package defines sentinel errors for common conditions and the typed
// SchemaError used for every fatal input problem (missing files, missing
// columns, malformed rows). Using typed errors enables consistent error
// handling with errors.Is() and errors.As() checks.
//
// Usage:
//
//	import mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
//
//	// Return a schema error
//	return nil, mapperrors.MissingColumn(path, "CURIE", header)
//
//	// Check for schema errors
//	if mapperrors.IsSchema(err) {
//	    // fatal, print and exit
//	}
package errors

import "errors"

// Sentinel errors.
var (
	// ErrSchema indicates an input table or file does not have the expected shape.
	// Every *SchemaError matches it via errors.Is.
	ErrSchema = errors.New("schema error")

	// ErrNotFound indicates a lookup found nothing. Resolution never returns it;
	// it is used by commands that look up a single named item.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or configuration.
	ErrValidation = errors.New("validation error")
)

// IsSchema reports whether any error in err's chain is a schema error.
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
