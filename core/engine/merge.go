package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"categorical/internal/errors"
)

// Operand is one side of a merge. Num is only populated for numeric merges.
type Operand struct {
	Raw string
	Num decimal.Decimal
}

// Merge combines a pair of outcomes into a new outcome
type Merge struct {
	// Name is the identifier used in scenario files
	Name string

	// Numeric merges require every outcome on both sides to parse as a number
	Numeric bool

	// Fn must be deterministic
	Fn func(a, b Operand) string
}

// MergeRegistry maps merge names to merges
type MergeRegistry struct {
	merges map[string]Merge
}

// NewMergeRegistry creates an empty registry
func NewMergeRegistry() *MergeRegistry {
	return &MergeRegistry{merges: make(map[string]Merge)}
}

// DefaultMerges returns a registry with the built-in merges
func DefaultMerges() *MergeRegistry {
	r := NewMergeRegistry()
	for _, m := range builtinMerges {
		_ = r.Register(m)
	}
	return r
}

// Register adds a merge. Names must be unique.
func (r *MergeRegistry) Register(m Merge) error {
	if m.Name == "" || m.Fn == nil {
		return errors.Input("merge needs a name and a function")
	}
	if _, exists := r.merges[m.Name]; exists {
		return errors.Newf(errors.TypeInput, "merge %q already registered", m.Name)
	}
	r.merges[m.Name] = m
	return nil
}

// Get returns the merge registered under name
func (r *MergeRegistry) Get(name string) (Merge, error) {
	m, ok := r.merges[name]
	if !ok {
		return Merge{}, errors.Newf(errors.TypeNotSupported, "merge %q is not supported (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return m, nil
}

// Names returns every registered merge name in sorted order
func (r *MergeRegistry) Names() []string {
	names := make([]string, 0, len(r.merges))
	for name := range r.merges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtinMerges = []Merge{
	{
		Name:    "sum",
		Numeric: true,
		Fn:      func(a, b Operand) string { return a.Num.Add(b.Num).String() },
	},
	{
		Name:    "diff",
		Numeric: true,
		Fn:      func(a, b Operand) string { return a.Num.Sub(b.Num).String() },
	},
	{
		Name:    "product",
		Numeric: true,
		Fn:      func(a, b Operand) string { return a.Num.Mul(b.Num).String() },
	},
	{
		Name:    "max",
		Numeric: true,
		Fn: func(a, b Operand) string {
			if b.Num.GreaterThan(a.Num) {
				return b.Num.String()
			}
			return a.Num.String()
		},
	},
	{
		Name:    "min",
		Numeric: true,
		Fn: func(a, b Operand) string {
			if b.Num.LessThan(a.Num) {
				return b.Num.String()
			}
			return a.Num.String()
		},
	},
	{
		Name:    "gt",
		Numeric: true,
		Fn:      func(a, b Operand) string { return strconv.FormatBool(a.Num.GreaterThan(b.Num)) },
	},
	{
		Name:    "lt",
		Numeric: true,
		Fn:      func(a, b Operand) string { return strconv.FormatBool(a.Num.LessThan(b.Num)) },
	},
	{
		Name: "eq",
		Fn:   func(a, b Operand) string { return strconv.FormatBool(a.Raw == b.Raw) },
	},
	{
		Name: "pair",
		Fn:   func(a, b Operand) string { return fmt.Sprintf("(%s, %s)", a.Raw, b.Raw) },
	},
	{
		Name: "concat",
		Fn:   func(a, b Operand) string { return a.Raw + b.Raw },
	},
	{
		Name: "left",
		Fn:   func(a, _ Operand) string { return a.Raw },
	},
	{
		Name: "right",
		Fn:   func(_, b Operand) string { return b.Raw },
	},
}
