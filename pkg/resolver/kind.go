package resolver

import "strings"

// Kind classifies a CURIE by the resolution strategy its prefix selects.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindMondo
	KindICD10
)

// Recognized prefixes. ICD-10 is matched in exactly these two spellings;
// mixed case such as "Icd10" is not recognized.
const (
	PrefixMondo      = "MONDO:"
	PrefixICD10Upper = "ICD10"
	PrefixICD10Lower = "icd10"
)

var kindNames = [...]string{
	KindUnrecognized: "unrecognized",
	KindMondo:        "mondo",
	KindICD10:        "icd10",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Kinds lists every kind, for metrics and reports.
func Kinds() []Kind {
	return []Kind{KindUnrecognized, KindMondo, KindICD10}
}

// Classify trims curie and returns its kind along with the trimmed value.
// Empty and whitespace-only input is KindUnrecognized.
func Classify(curie string) (Kind, string) {
	trimmed := strings.TrimSpace(curie)
	switch {
	case trimmed == "":
		return KindUnrecognized, trimmed
	case strings.HasPrefix(trimmed, PrefixMondo):
		return KindMondo, trimmed
	case strings.HasPrefix(trimmed, PrefixICD10Upper), strings.HasPrefix(trimmed, PrefixICD10Lower):
		return KindICD10, trimmed
	default:
		return KindUnrecognized, trimmed
	}
}
