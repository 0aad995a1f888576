// Package resolver maps CURIEs to ICD-11 codes through the MONDO
// cross-reference indexes.
//
// MONDO terms are looked up directly. ICD-10 codes take two hops: every MONDO
// term citing the code is collected, their ICD-11 codes are concatenated in
// order, and the result is deduplicated keeping first occurrences. Anything
// else resolves to nothing. A miss is never an error.
package resolver

import (
	"github.com/otherjamesbrown/icd11map/pkg/mapping"
)

// Resolve returns the ICD-11 codes for curie. It reads but never modifies the
// indexes and always returns the same output for the same input.
func Resolve(curie string, mondo, icd10 *mapping.Index) []string {
	kind, key := Classify(curie)
	switch kind {
	case KindMondo:
		return emptyIfNil(mondo.Lookup(key))
	case KindICD10:
		codes, _ := resolveICD10(key, mondo, icd10)
		return codes
	default:
		return []string{}
	}
}

// resolveICD10 follows icd10 -> mondo -> icd11 and returns the deduplicated
// codes plus the intermediate MONDO terms.
func resolveICD10(key string, mondo, icd10 *mapping.Index) ([]string, []string) {
	via := icd10.Lookup(key)

	var candidates []string
	for _, term := range via {
		if !mondo.Contains(term) {
			continue
		}
		candidates = append(candidates, mondo.Lookup(term)...)
	}

	return Dedup(candidates), emptyIfNil(via)
}

// Dedup returns values without repeats, keeping the first occurrence of each
// and preserving order. The input is not modified.
func Dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Result is the outcome of resolving one CURIE.
type Result struct {
	CURIE string   `json:"curie" yaml:"curie"`
	Kind  Kind     `json:"kind" yaml:"kind"`
	Codes []string `json:"icd11" yaml:"icd11"`

	// Via lists the MONDO terms an ICD-10 code was resolved through.
	Via []string `json:"via,omitempty" yaml:"via,omitempty"`
}

// Found reports whether at least one code was resolved.
func (r Result) Found() bool {
	return len(r.Codes) > 0
}

// Resolver resolves CURIEs against a fixed pair of indexes. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	indexes *mapping.Indexes
}

// New creates a Resolver over indexes.
func New(indexes *mapping.Indexes) *Resolver {
	if indexes == nil {
		indexes = &mapping.Indexes{}
	}
	return &Resolver{indexes: indexes}
}

// Resolve returns the ICD-11 codes for curie. See the package-level Resolve.
func (r *Resolver) Resolve(curie string) []string {
	return Resolve(curie, r.indexes.MondoToICD11, r.indexes.ICD10ToMondo)
}

// Explain resolves curie and reports how: its kind and, for ICD-10, the MONDO
// terms it passed through.
func (r *Resolver) Explain(curie string) Result {
	kind, key := Classify(curie)
	res := Result{CURIE: key, Kind: kind, Codes: []string{}}

	switch kind {
	case KindMondo:
		res.Codes = emptyIfNil(r.indexes.MondoToICD11.Lookup(key))
	case KindICD10:
		res.Codes, res.Via = resolveICD10(key, r.indexes.MondoToICD11, r.indexes.ICD10ToMondo)
	}
	return res
}
