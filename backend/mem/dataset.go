// Package mem implements the backend session contract over documents held
// in memory.  It exists to exercise the engine end to end in tests and from
// the command line; it is not a storage engine.
package mem

import (
	"fmt"
	"io"
	"time"

	"github.com/brimdata/iql/backend"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Document is a single-valued record.  Ints and Strings are disjoint.
type Document struct {
	Ints    map[string]int64  `yaml:"ints"`
	Strings map[string]string `yaml:"strings"`
}

type Dataset struct {
	Name         string     `yaml:"name"`
	IntFields    []string   `yaml:"int_fields"`
	StringFields []string   `yaml:"string_fields"`
	TimeField    string     `yaml:"time_field"`
	Docs         []Document `yaml:"docs"`
}

// Fixture is the file format read by LoadFixture: a list of datasets.
type Fixture struct {
	Datasets []*Dataset `yaml:"datasets"`
}

func LoadFixture(r io.Reader) ([]*Dataset, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("dataset fixture: %w", err)
	}
	for _, ds := range f.Datasets {
		if err := ds.validate(); err != nil {
			return nil, err
		}
	}
	return f.Datasets, nil
}

func (d *Dataset) validate() error {
	if d.Name == "" {
		return fmt.Errorf("dataset fixture: dataset with no name")
	}
	for k, doc := range d.Docs {
		for name := range doc.Ints {
			if !slices.Contains(d.IntFields, name) {
				return fmt.Errorf("dataset %q: document %d: %q is not an int field", d.Name, k, name)
			}
		}
		for name := range doc.Strings {
			if !slices.Contains(d.StringFields, name) {
				return fmt.Errorf("dataset %q: document %d: %q is not a string field", d.Name, k, name)
			}
		}
	}
	return nil
}

func (d *Dataset) IsIntField(name string) bool {
	return slices.Contains(d.IntFields, name)
}

func (d *Dataset) IsStringField(name string) bool {
	return slices.Contains(d.StringFields, name)
}

// Shard names the documents of a dataset within a time range.  A zero
// start or end leaves that side of the range open.
type Shard struct {
	Dataset    *Dataset
	Start, End time.Time
}

// ID identifies the shard for result cache keys.
func (s Shard) ID() string {
	return fmt.Sprintf("%s/%d-%d", s.Dataset.Name, unix(s.Start), unix(s.End))
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func (s Shard) docs() []Document {
	d := s.Dataset
	if d.TimeField == "" || (s.Start.IsZero() && s.End.IsZero()) {
		return d.Docs
	}
	var out []Document
	for _, doc := range d.Docs {
		ts, ok := doc.Ints[d.TimeField]
		if !ok {
			continue
		}
		if !s.Start.IsZero() && ts < s.Start.Unix() {
			continue
		}
		if !s.End.IsZero() && ts >= s.End.Unix() {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func (d *Dataset) Schema() backend.Schema {
	return backend.Schema{
		Dataset:      d.Name,
		IntFields:    d.IntFields,
		StringFields: d.StringFields,
		TimeField:    d.TimeField,
	}
}
