package capability

import (
	"fmt"
	"strings"
)

// Define is one preprocessor macro. A nil Value means "-DNAME" without a value.
type Define struct {
	Name  string
	Value *string
}

// Arg renders the define as a compiler flag.
func (d Define) Arg() string {
	if d.Value == nil {
		return "-D" + d.Name
	}
	return "-D" + d.Name + "=" + *d.Value
}

// DefineSet is an insertion-ordered set of macros shared by compilation and
// binding generation. A run builds it once and every stage reads the same
// value; stages that need extra macros work on a Clone.
type DefineSet struct {
	order []string
	vals  map[string]*string
}

// NewDefineSet returns an empty set.
func NewDefineSet() *DefineSet {
	return &DefineSet{vals: map[string]*string{}}
}

// Set adds name, or replaces its value keeping the original position.
func (s *DefineSet) Set(name string, value *string) *DefineSet {
	if s.vals == nil {
		s.vals = map[string]*string{}
	}
	if _, ok := s.vals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.vals[name] = value
	return s
}

// Flag adds a value-less macro.
func (s *DefineSet) Flag(name string) *DefineSet { return s.Set(name, nil) }

// Value adds a macro with a value.
func (s *DefineSet) Value(name, value string) *DefineSet { return s.Set(name, &value) }

// ParseDefines reads NAME or NAME=VALUE entries in order. A later entry
// for the same name replaces the earlier value.
func ParseDefines(entries []string) (*DefineSet, error) {
	s := NewDefineSet()
	for _, e := range entries {
		name, value, hasValue := strings.Cut(strings.TrimSpace(e), "=")
		if name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("invalid define %q", e)
		}
		if hasValue {
			s.Value(name, value)
		} else {
			s.Flag(name)
		}
	}
	return s, nil
}

func (s *DefineSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.vals[name]
	return ok
}

func (s *DefineSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Defines returns the macros in insertion order.
func (s *DefineSet) Defines() []Define {
	if s == nil {
		return nil
	}
	out := make([]Define, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Define{Name: name, Value: s.vals[name]})
	}
	return out
}

// Args renders every macro as -DNAME or -DNAME=VALUE.
func (s *DefineSet) Args() []string {
	defs := s.Defines()
	args := make([]string, 0, len(defs))
	for _, d := range defs {
		args = append(args, d.Arg())
	}
	return args
}

// Clone returns an independent copy.
func (s *DefineSet) Clone() *DefineSet {
	c := NewDefineSet()
	for _, d := range s.Defines() {
		c.Set(d.Name, d.Value)
	}
	return c
}

// Merge returns a copy of s with the macros of other appended.
func (s *DefineSet) Merge(other *DefineSet) *DefineSet {
	c := s.Clone()
	for _, d := range other.Defines() {
		c.Set(d.Name, d.Value)
	}
	return c
}

// Equal reports whether both sets hold the same macros in the same order.
func (s *DefineSet) Equal(other *DefineSet) bool {
	a, b := s.Defines(), other.Defines()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Arg() != b[i].Arg() {
			return false
		}
	}
	return true
}

func (s *DefineSet) String() string {
	return strings.Join(s.Args(), " ")
}
