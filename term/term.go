// Package term defines the value of a field term as it appears in a
// field-term-group-stats stream.  A term is either an int64 or a string
// depending on the kind of field it was read from.
package term

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Term struct {
	IsInt bool
	Int   int64
	Str   string
}

func Int(v int64) Term {
	return Term{IsInt: true, Int: v}
}

func String(s string) Term {
	return Term{Str: s}
}

// Compare orders int terms numerically and string terms by their bytes.
// Comparing an int term with a string term orders the int first so that
// a mixed comparison is still a total order.
func Compare(a, b Term) int {
	switch {
	case a.IsInt && b.IsInt:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		}
		return 0
	case a.IsInt:
		return -1
	case b.IsInt:
		return 1
	}
	return bytes.Compare([]byte(a.Str), []byte(b.Str))
}

func (t Term) Equal(other Term) bool {
	return Compare(t, other) == 0
}

func (t Term) String() string {
	if t.IsInt {
		return strconv.FormatInt(t.Int, 10)
	}
	return t.Str
}

// UnmarshalYAML reads a YAML int as an int term and any other scalar as a
// string term, so "42" quoted is the string 42.
func (t *Term) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: a term must be a scalar", n.Line)
	}
	if n.Tag == "!!int" {
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*t = Int(v)
		return nil
	}
	*t = String(n.Value)
	return nil
}

func (t Term) MarshalYAML() (interface{}, error) {
	if t.IsInt {
		return t.Int, nil
	}
	return t.Str, nil
}
