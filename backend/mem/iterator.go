package mem

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/brimdata/iql/term"
)

type groupStats struct {
	group int
	stats []int64
}

type termEntry struct {
	term    term.Term
	docFreq int64
	groups  []groupStats
}

type fieldEntry struct {
	name  string
	isInt bool
	terms []termEntry
}

// iterator is a snapshot of the field-term-group-stats of a session taken
// when it is opened.
type iterator struct {
	fields []fieldEntry
	field  int
	term   int
	group  int
}

func newIterator(s *Session, intFields, stringFields []string) *iterator {
	it := &iterator{field: -1}
	for _, f := range intFields {
		it.fields = append(it.fields, s.scan(f, true))
	}
	for _, f := range stringFields {
		it.fields = append(it.fields, s.scan(f, false))
	}
	return it
}

// scan must be called with s.mu held.
func (s *Session) scan(field string, isInt bool) fieldEntry {
	byTerm := make(map[term.Term]*termEntry)
	byGroup := make(map[term.Term]map[int][]int64)
	for k := range s.docs {
		doc := &s.docs[k]
		var t term.Term
		if isInt {
			v, ok := doc.Ints[field]
			if !ok {
				continue
			}
			t = term.Int(v)
		} else {
			v, ok := doc.Strings[field]
			if !ok {
				continue
			}
			t = term.String(v)
		}
		e, ok := byTerm[t]
		if !ok {
			e = &termEntry{term: t}
			byTerm[t] = e
			byGroup[t] = make(map[int][]int64)
		}
		e.docFreq++
		g := s.groups[k]
		if g == 0 {
			continue
		}
		sums, ok := byGroup[t][g]
		if !ok {
			sums = make([]int64, len(s.stats))
			byGroup[t][g] = sums
		}
		for i, vals := range s.stats {
			sums[i] += vals[k]
		}
	}
	terms := maps.Keys(byTerm)
	slices.SortFunc(terms, func(a, b term.Term) bool {
		return term.Compare(a, b) < 0
	})
	entry := fieldEntry{name: field, isInt: isInt}
	for _, t := range terms {
		e := byTerm[t]
		groups := maps.Keys(byGroup[t])
		if len(groups) == 0 {
			continue
		}
		slices.Sort(groups)
		for _, g := range groups {
			e.groups = append(e.groups, groupStats{group: g, stats: byGroup[t][g]})
		}
		entry.terms = append(entry.terms, *e)
	}
	return entry
}

func (i *iterator) NextField() bool {
	if i.field+1 >= len(i.fields) {
		i.field = len(i.fields)
		return false
	}
	i.field++
	i.term = -1
	i.group = -1
	return true
}

func (i *iterator) cur() *fieldEntry {
	return &i.fields[i.field]
}

func (i *iterator) FieldName() string {
	return i.cur().name
}

func (i *iterator) FieldIsInt() bool {
	return i.cur().isInt
}

func (i *iterator) NextTerm() bool {
	f := i.cur()
	if i.term+1 >= len(f.terms) {
		i.term = len(f.terms)
		return false
	}
	i.term++
	i.group = -1
	return true
}

func (i *iterator) curTerm() *termEntry {
	return &i.cur().terms[i.term]
}

func (i *iterator) TermInt() int64 {
	return i.curTerm().term.Int
}

func (i *iterator) TermString() string {
	return i.curTerm().term.Str
}

func (i *iterator) TermDocFreq() int64 {
	return i.curTerm().docFreq
}

func (i *iterator) NextGroup() bool {
	t := i.curTerm()
	if i.group+1 >= len(t.groups) {
		i.group = len(t.groups)
		return false
	}
	i.group++
	return true
}

func (i *iterator) Group() int {
	return i.curTerm().groups[i.group].group
}

func (i *iterator) GroupStats(buf []int64) {
	copy(buf, i.curTerm().groups[i.group].stats)
}

func (i *iterator) Err() error {
	return nil
}

func (i *iterator) Close() error {
	i.fields = nil
	return nil
}
