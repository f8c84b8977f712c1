// Package unpack decodes YAML into trees of Go interface values.  Each
// interface type has a family of concrete struct types registered under
// kind names; a YAML mapping selects its concrete type with a "kind" key.
// The same registry encodes a tree back into YAML with the kind keys in
// place, which gives every tree a canonical text form.
package unpack

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

const KindKey = "kind"

// A ScalarFunc decodes the shorthand written as a YAML scalar in place of
// a mapping.
type ScalarFunc func(*yaml.Node) (interface{}, error)

type Reflector struct {
	kinds   map[reflect.Type]map[string]reflect.Type
	names   map[reflect.Type]string
	scalars map[reflect.Type]ScalarFunc
}

func New() *Reflector {
	return &Reflector{
		kinds:   make(map[reflect.Type]map[string]reflect.Type),
		names:   make(map[reflect.Type]string),
		scalars: make(map[reflect.Type]ScalarFunc),
	}
}

// Add registers the struct type of template as kind in the family of the
// interface type iface, given as a nil pointer like (*Expr)(nil).
func (r *Reflector) Add(iface interface{}, kind string, template interface{}) *Reflector {
	it := reflect.TypeOf(iface).Elem()
	typ := reflect.TypeOf(template)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if it.Kind() != reflect.Interface || typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("unpack: cannot add %s to %s", typ, it))
	}
	if !reflect.PtrTo(typ).Implements(it) {
		panic(fmt.Sprintf("unpack: *%s does not implement %s", typ, it))
	}
	family, ok := r.kinds[it]
	if !ok {
		family = make(map[string]reflect.Type)
		r.kinds[it] = family
	}
	family[kind] = typ
	r.names[typ] = kind
	return r
}

// Scalar registers fn as the decoder of scalars in place of values of the
// type typ points to.
func (r *Reflector) Scalar(typ interface{}, fn ScalarFunc) *Reflector {
	r.scalars[reflect.TypeOf(typ).Elem()] = fn
	return r
}

// Kind returns the kind name of a registered node.
func (r *Reflector) Kind(v interface{}) (string, bool) {
	typ := reflect.TypeOf(v)
	if typ == nil {
		return "", false
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	name, ok := r.names[typ]
	return name, ok
}

// Unmarshal decodes YAML text into the value ptr points to.
func (r *Reflector) Unmarshal(b []byte, ptr interface{}) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	return r.Unpack(&doc, ptr)
}

// Unpack decodes node into the value ptr points to.
func (r *Reflector) Unpack(node *yaml.Node, ptr interface{}) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errors.New("unpack: destination must be a non-nil pointer")
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	return r.decode(node, v.Elem())
}

var (
	unmarshalerType     = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func (r *Reflector) decode(n *yaml.Node, v reflect.Value) error {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if fn, ok := r.scalars[v.Type()]; ok && n.Kind == yaml.ScalarNode && !isNull(n) {
		x, err := fn(n)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		xv := reflect.ValueOf(x)
		if !xv.Type().AssignableTo(v.Type()) {
			return fmt.Errorf("line %d: %s is not a %s", n.Line, xv.Type(), v.Type())
		}
		v.Set(xv)
		return nil
	}
	if pt := reflect.PtrTo(v.Type()); pt.Implements(unmarshalerType) || pt.Implements(textUnmarshalerType) {
		return n.Decode(v.Addr().Interface())
	}
	switch v.Kind() {
	case reflect.Interface:
		if isNull(n) {
			return nil
		}
		return r.decodeInterface(n, v)
	case reflect.Ptr:
		if isNull(n) {
			return nil
		}
		p := reflect.New(v.Type().Elem())
		if err := r.decode(n, p.Elem()); err != nil {
			return err
		}
		v.Set(p)
		return nil
	case reflect.Struct:
		return r.decodeStruct(n, v, "")
	case reflect.Slice:
		if isNull(n) {
			return nil
		}
		if n.Kind != yaml.SequenceNode {
			return fmt.Errorf("line %d: expected a sequence for %s", n.Line, v.Type())
		}
		s := reflect.MakeSlice(v.Type(), len(n.Content), len(n.Content))
		for k, elem := range n.Content {
			if err := r.decode(elem, s.Index(k)); err != nil {
				return err
			}
		}
		v.Set(s)
		return nil
	case reflect.Map:
		if isNull(n) {
			return nil
		}
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: expected a mapping for %s", n.Line, v.Type())
		}
		m := reflect.MakeMapWithSize(v.Type(), len(n.Content)/2)
		for k := 0; k+1 < len(n.Content); k += 2 {
			key := reflect.New(v.Type().Key()).Elem()
			if err := r.decode(n.Content[k], key); err != nil {
				return err
			}
			val := reflect.New(v.Type().Elem()).Elem()
			if err := r.decode(n.Content[k+1], val); err != nil {
				return err
			}
			m.SetMapIndex(key, val)
		}
		v.Set(m)
		return nil
	}
	return n.Decode(v.Addr().Interface())
}

func (r *Reflector) decodeInterface(n *yaml.Node, v reflect.Value) error {
	family, ok := r.kinds[v.Type()]
	if !ok {
		return fmt.Errorf("line %d: no kinds registered for %s", n.Line, v.Type())
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping with a %q key", n.Line, KindKey)
	}
	var kind string
	for k := 0; k+1 < len(n.Content); k += 2 {
		if n.Content[k].Value == KindKey {
			kind = n.Content[k+1].Value
		}
	}
	if kind == "" {
		return fmt.Errorf("line %d: missing %q key", n.Line, KindKey)
	}
	typ, ok := family[kind]
	if !ok {
		if alt := closest(kind, family); alt != "" {
			return fmt.Errorf("line %d: unknown kind %q (did you mean %q?)", n.Line, kind, alt)
		}
		return fmt.Errorf("line %d: unknown kind %q", n.Line, kind)
	}
	p := reflect.New(typ)
	if err := r.decodeStruct(n, p.Elem(), KindKey); err != nil {
		return err
	}
	v.Set(p)
	return nil
}

func closest(kind string, family map[string]reflect.Type) string {
	var best string
	bestDist := len(kind)/2 + 1
	for name := range family {
		if d := levenshtein.ComputeDistance(kind, name); d < bestDist || d == bestDist && best != "" && name < best {
			best, bestDist = name, d
		}
	}
	return best
}

// fieldName is the YAML name of a struct field: its yaml tag or, as in
// package yaml, the lowercased field name.
func fieldName(f reflect.StructField) (string, bool) {
	if f.PkgPath != "" {
		return "", false
	}
	tag := f.Tag.Get("yaml")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return strings.ToLower(f.Name), true
}

func (r *Reflector) decodeStruct(n *yaml.Node, v reflect.Value, skip string) error {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping for %s", n.Line, v.Type())
	}
	typ := v.Type()
	fields := make(map[string]int, typ.NumField())
	for k := 0; k < typ.NumField(); k++ {
		if name, ok := fieldName(typ.Field(k)); ok {
			fields[name] = k
		}
	}
	for k := 0; k+1 < len(n.Content); k += 2 {
		key := n.Content[k].Value
		if key == skip {
			continue
		}
		i, ok := fields[key]
		if !ok {
			return fmt.Errorf("line %d: unknown field %q in %s", n.Content[k].Line, key, typ.Name())
		}
		if err := r.decode(n.Content[k+1], v.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes v with the kind of every registered node written first
// in its mapping.  Fields appear in declaration order and map keys in
// sorted order, so equal trees encode to equal text.
func (r *Reflector) Marshal(v interface{}) ([]byte, error) {
	n, err := r.encode(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

var (
	marshalerType     = reflect.TypeOf((*yaml.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func (r *Reflector) encode(v reflect.Value) (*yaml.Node, error) {
	null := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if !v.IsValid() {
		return null, nil
	}
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) && v.IsNil() {
		return null, nil
	}
	if t := v.Type(); t.Kind() != reflect.Interface && (t.Implements(marshalerType) || t.Implements(textMarshalerType)) {
		n := &yaml.Node{}
		return n, n.Encode(v.Interface())
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		elem := v.Elem()
		if v.Kind() == reflect.Ptr && elem.Kind() == reflect.Struct {
			if kind, ok := r.names[elem.Type()]; ok {
				return r.encodeStruct(elem, kind)
			}
		}
		return r.encode(elem)
	case reflect.Struct:
		return r.encodeStruct(v, "")
	case reflect.Slice:
		if v.IsNil() {
			return null, nil
		}
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for k := 0; k < v.Len(); k++ {
			elem, err := r.encode(v.Index(k))
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, elem)
		}
		return n, nil
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, key := range keys {
			kn, err := r.encode(key)
			if err != nil {
				return nil, err
			}
			vn, err := r.encode(v.MapIndex(key))
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, kn, vn)
		}
		return n, nil
	}
	n := &yaml.Node{}
	return n, n.Encode(v.Interface())
}

func (r *Reflector) encodeStruct(v reflect.Value, kind string) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	if kind != "" {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: KindKey},
			&yaml.Node{Kind: yaml.ScalarNode, Value: kind})
	}
	typ := v.Type()
	for k := 0; k < typ.NumField(); k++ {
		name, ok := fieldName(typ.Field(k))
		if !ok {
			continue
		}
		fn, err := r.encode(v.Field(k))
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, fn)
	}
	return n, nil
}
