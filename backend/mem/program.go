package mem

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/brimdata/iql/backend"
)

// op is one step of a compiled push: it manipulates the int64 stack while
// evaluating one document.
type op func(stack []int64, doc *Document) ([]int64, error)

type program []op

func (p program) eval(doc *Document) (int64, error) {
	stack := make([]int64, 0, 8)
	var err error
	for _, o := range p {
		if stack, err = o(stack, doc); err != nil {
			return 0, err
		}
	}
	if len(stack) != 1 {
		return 0, fmt.Errorf("push left %d values on the stack", len(stack))
	}
	return stack[0], nil
}

var errUnderflow = errors.New("push stack underflow")

func binary(fn func(a, b int64) int64) op {
	return func(stack []int64, _ *Document) ([]int64, error) {
		n := len(stack)
		if n < 2 {
			return nil, errUnderflow
		}
		stack[n-2] = fn(stack[n-2], stack[n-1])
		return stack[:n-1], nil
	}
}

func unary(fn func(a int64) int64) op {
	return func(stack []int64, _ *Document) ([]int64, error) {
		n := len(stack)
		if n < 1 {
			return nil, errUnderflow
		}
		stack[n-1] = fn(stack[n-1])
		return stack, nil
	}
}

func leaf(fn func(doc *Document) int64) op {
	return func(stack []int64, doc *Document) ([]int64, error) {
		return append(stack, fn(doc)), nil
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

var binaryOps = map[string]func(a, b int64) int64{
	"+": func(a, b int64) int64 { return a + b },
	"-": func(a, b int64) int64 { return a - b },
	"*": func(a, b int64) int64 { return a * b },
	"/": func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a / b
	},
	"%": func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a % b
	},
	"min()": func(a, b int64) int64 {
		if a < b {
			return a
		}
		return b
	},
	"max()": func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	},
	">":  func(a, b int64) int64 { return b2i(a > b) },
	">=": func(a, b int64) int64 { return b2i(a >= b) },
	"<":  func(a, b int64) int64 { return b2i(a < b) },
	"<=": func(a, b int64) int64 { return b2i(a <= b) },
	"=":  func(a, b int64) int64 { return b2i(a == b) },
	"!=": func(a, b int64) int64 { return b2i(a != b) },
}

func splitArg(tok, prefix string) (string, string, error) {
	arg := strings.TrimPrefix(tok, prefix)
	field, value, ok := strings.Cut(arg, ":")
	if !ok {
		return "", "", fmt.Errorf("malformed push token %q", tok)
	}
	return field, value, nil
}

func compile(ds *Dataset, push backend.Push) (program, error) {
	var prog program
	for _, tok := range push {
		o, err := compileToken(ds, tok)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", ds.Name, err)
		}
		prog = append(prog, o)
	}
	if len(prog) == 0 {
		return nil, fmt.Errorf("dataset %q: empty push", ds.Name)
	}
	return prog, nil
}

func compileToken(ds *Dataset, tok string) (op, error) {
	if fn, ok := binaryOps[tok]; ok {
		return binary(fn), nil
	}
	if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return leaf(func(*Document) int64 { return v }), nil
	}
	switch {
	case tok == "count()":
		return leaf(func(*Document) int64 { return 1 }), nil
	case strings.HasPrefix(tok, "log "), strings.HasPrefix(tok, "exp "):
		scale, err := strconv.ParseInt(tok[4:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed push token %q", tok)
		}
		if tok[0] == 'l' {
			return unary(func(a int64) int64 {
				if a <= 0 {
					return 0
				}
				return int64(float64(scale) * math.Log(float64(a)))
			}), nil
		}
		return unary(func(a int64) int64 {
			return int64(float64(scale) * math.Exp(float64(a)/float64(scale)))
		}), nil
	case strings.HasPrefix(tok, "hasint "):
		field, value, err := splitArg(tok, "hasint ")
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed push token %q", tok)
		}
		return leaf(func(doc *Document) int64 {
			got, ok := doc.Ints[field]
			return b2i(ok && got == v)
		}), nil
	case strings.HasPrefix(tok, "hasstr "):
		field, value, err := splitArg(tok, "hasstr ")
		if err != nil {
			return nil, err
		}
		return leaf(func(doc *Document) int64 {
			got, ok := doc.Strings[field]
			return b2i(ok && got == value)
		}), nil
	case strings.HasPrefix(tok, "hasintfield "):
		field := strings.TrimPrefix(tok, "hasintfield ")
		return leaf(func(doc *Document) int64 {
			_, ok := doc.Ints[field]
			return b2i(ok)
		}), nil
	case strings.HasPrefix(tok, "hasstrfield "):
		field := strings.TrimPrefix(tok, "hasstrfield ")
		return leaf(func(doc *Document) int64 {
			_, ok := doc.Strings[field]
			return b2i(ok)
		}), nil
	case strings.HasPrefix(tok, "regex "):
		field, pattern, err := splitArg(tok, "regex ")
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, err
		}
		return leaf(func(doc *Document) int64 {
			if s, ok := doc.Strings[field]; ok {
				return b2i(re.MatchString(s))
			}
			if v, ok := doc.Ints[field]; ok {
				return b2i(re.MatchString(strconv.FormatInt(v, 10)))
			}
			return 0
		}), nil
	}
	if !ds.IsIntField(tok) {
		return nil, fmt.Errorf("unknown push token or int field %q", tok)
	}
	return leaf(func(doc *Document) int64 { return doc.Ints[tok] }), nil
}
