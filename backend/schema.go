package backend

import (
	"github.com/agnivade/levenshtein"
	iqe "github.com/brimdata/iql/errors"
	"golang.org/x/exp/slices"
)

// Schema is the field metadata of one dataset.
type Schema struct {
	Dataset      string
	IntFields    []string
	StringFields []string
	TimeField    string
}

func (s Schema) IsIntField(name string) bool {
	return slices.Contains(s.IntFields, name)
}

func (s Schema) IsStringField(name string) bool {
	return slices.Contains(s.StringFields, name)
}

func (s Schema) HasField(name string) bool {
	return s.IsIntField(name) || s.IsStringField(name)
}

// CheckField returns a validation error naming the dataset if field is
// not one of its fields.
func (s Schema) CheckField(field string) error {
	if s.HasField(field) {
		return nil
	}
	return s.unknown(field, append(slices.Clone(s.IntFields), s.StringFields...))
}

func (s Schema) CheckIntField(field string) error {
	if s.IsIntField(field) {
		return nil
	}
	if s.IsStringField(field) {
		return iqe.E(iqe.Validation, "dataset %q: field %q is a string field, expected an int field", s.Dataset, field)
	}
	return s.unknown(field, s.IntFields)
}

func (s Schema) CheckStringField(field string) error {
	if s.IsStringField(field) {
		return nil
	}
	if s.IsIntField(field) {
		return iqe.E(iqe.Validation, "dataset %q: field %q is an int field, expected a string field", s.Dataset, field)
	}
	return s.unknown(field, s.StringFields)
}

func (s Schema) unknown(field string, candidates []string) error {
	if alt := Suggest(field, candidates); alt != "" {
		return iqe.E(iqe.Validation, "dataset %q: no such field %q (did you mean %q?)", s.Dataset, field, alt)
	}
	return iqe.E(iqe.Validation, "dataset %q: no such field %q", s.Dataset, field)
}

// Suggest returns the candidate closest to name by edit distance if it is
// close enough to be a plausible typo, or the empty string.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", len(name)/2+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
