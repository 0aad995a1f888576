package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrMissingFile: {
		Code:            ErrMissingFile,
		Description:     "Input or mapping file does not exist",
		SuggestedAction: "Check the path, or regenerate mapping tables: robot query -i mondo.owl -q sparql/<query>.sparql <path>",
	},
	ErrMissingColumn: {
		Code:            ErrMissingColumn,
		Description:     "A required column is missing from a table",
		SuggestedAction: "Pick one of the available columns with --curie-column, or re-export the mapping table",
	},
	ErrMalformedRow: {
		Code:            ErrMalformedRow,
		Description:     "A row has more fields than the header",
		SuggestedAction: "Check the file is tab-delimited and quoted fields are closed",
	},
	ErrReadFailed: {
		Code:            ErrReadFailed,
		Description:     "A file could not be read or decoded",
		SuggestedAction: "Check file permissions, compression suffix and --input-encoding",
	},
	ErrWriteFailed: {
		Code:            ErrWriteFailed,
		Description:     "The output table could not be written",
		SuggestedAction: "Check the output directory is writable, or pass -o with another path",
	},
}

// SuggestedCommand returns the ROBOT command that regenerates a well-known
// mapping table, keyed by the SPARQL query basename. Empty when unknown.
func SuggestedCommand(query, path string) string {
	if query == "" {
		return ""
	}
	return "robot query -i mondo.owl -q sparql/" + query + ".sparql " + path
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug and check the logs for more details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
