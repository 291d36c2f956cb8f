// Package categorical provides a discrete probability distribution over a finite
// set of outcomes and the operations to build joint distributions from it.
//
// A Distribution is immutable once constructed. Every operation that produces a
// distribution allocates a new one, so a single instance may be read from any
// number of goroutines without synchronization.
//
//	die, _ := categorical.NewUniform(categorical.Float64, []int{1, 2, 3, 4, 5, 6})
//	best := categorical.Combine(die, die, func(a, b int) int { return max(a, b) })
//	best.ProbabilityOf(6) // 11/36
package categorical

import (
	"fmt"
	"strings"

	"categorical/core/determinism"
	"categorical/internal/errors"
)

// Pair is an outcome tagged with its weight
type Pair[T comparable, P any] struct {
	Outcome T
	Weight  P
}

// Distribution maps each distinct outcome to its probability weight.
// Outcomes that are absent have probability zero.
type Distribution[T comparable, P any] struct {
	field   Field[P]
	weights map[T]P
}

// NewUniform creates a distribution assigning equal weight to every listed outcome.
// Repeated outcomes accumulate one share per occurrence before normalization,
// so []string{"a", "a", "b"} gives a two thirds of the mass.
func NewUniform[T comparable, P any](field Field[P], outcomes []T) (*Distribution[T, P], error) {
	if len(outcomes) == 0 {
		return nil, errors.EmptyInput("uniform distribution")
	}

	one := field.One()
	weights := make(map[T]P, len(outcomes))
	for _, o := range outcomes {
		weights[o] = accumulate(field, weights, o, one)
	}

	return normalized(field, weights)
}

// NewWeighted creates a distribution from outcome/weight pairs. Weights of equal
// outcomes are summed, then all weights are scaled so they total one.
func NewWeighted[T comparable, P any](field Field[P], pairs []Pair[T, P]) (*Distribution[T, P], error) {
	if len(pairs) == 0 {
		return nil, errors.EmptyInput("weighted distribution")
	}

	weights, err := collect(field, pairs)
	if err != nil {
		return nil, err
	}

	return normalized(field, weights)
}

// FromPairs collects outcome/weight pairs as given, summing duplicates but
// leaving the total untouched. An empty input yields an empty distribution.
func FromPairs[T comparable, P any](field Field[P], pairs []Pair[T, P]) (*Distribution[T, P], error) {
	weights, err := collect(field, pairs)
	if err != nil {
		return nil, err
	}
	return &Distribution[T, P]{field: field, weights: weights}, nil
}

// FromMap creates a distribution from a weight map without normalizing it.
// The map is copied.
func FromMap[T comparable, P any](field Field[P], m map[T]P) (*Distribution[T, P], error) {
	pairs := make([]Pair[T, P], 0, len(m))
	for o, w := range m {
		pairs = append(pairs, Pair[T, P]{Outcome: o, Weight: w})
	}
	return FromPairs(field, pairs)
}

// Field returns the arithmetic used for this distribution's weights
func (d *Distribution[T, P]) Field() Field[P] {
	return d.field
}

// ProbabilityOf returns the weight of outcome, or zero if it is not present.
func (d *Distribution[T, P]) ProbabilityOf(outcome T) P {
	if w, ok := d.weights[outcome]; ok {
		return w
	}
	return d.field.Zero()
}

// Len returns the number of distinct outcomes
func (d *Distribution[T, P]) Len() int {
	return len(d.weights)
}

// Total returns the sum of all weights
func (d *Distribution[T, P]) Total() P {
	return total(d.field, d.weights)
}

// Normalize returns a copy whose weights are scaled to sum to one.
func (d *Distribution[T, P]) Normalize() (*Distribution[T, P], error) {
	weights := make(map[T]P, len(d.weights))
	for o, w := range d.weights {
		weights[o] = w
	}
	return normalized(d.field, weights)
}

// Outcomes returns every outcome in deterministic order
func (d *Distribution[T, P]) Outcomes() []T {
	return determinism.SortedKeys(d.weights)
}

// Pairs returns every outcome with its weight in deterministic order
func (d *Distribution[T, P]) Pairs() []Pair[T, P] {
	pairs := make([]Pair[T, P], 0, len(d.weights))
	d.Range(func(o T, w P) bool {
		pairs = append(pairs, Pair[T, P]{Outcome: o, Weight: w})
		return true
	})
	return pairs
}

// Range calls fn for each outcome in deterministic order until fn returns false
func (d *Distribution[T, P]) Range(fn func(T, P) bool) {
	determinism.RangeMapSorted(d.weights, fn)
}

// String renders the distribution as {outcome: weight, ...}
func (d *Distribution[T, P]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	d.Range(func(o T, w P) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v: %s", o, d.field.Format(w))
		return true
	})
	b.WriteByte('}')
	return b.String()
}

func collect[T comparable, P any](field Field[P], pairs []Pair[T, P]) (map[T]P, error) {
	weights := make(map[T]P, len(pairs))
	for i, p := range pairs {
		if field.Sign(p.Weight) < 0 {
			return nil, errors.InvalidWeight("weights must be finite and non-negative").
				WithContext("index", i).
				WithContext("outcome", fmt.Sprint(p.Outcome)).
				WithContext("weight", field.Format(p.Weight))
		}
		weights[p.Outcome] = accumulate(field, weights, p.Outcome, p.Weight)
	}
	return weights, nil
}

func accumulate[T comparable, P any](field Field[P], weights map[T]P, o T, w P) P {
	if cur, ok := weights[o]; ok {
		return field.Add(cur, w)
	}
	return w
}

func total[T comparable, P any](field Field[P], weights map[T]P) P {
	sum := field.Zero()
	for _, w := range weights {
		sum = field.Add(sum, w)
	}
	return sum
}

// normalized scales weights in place and takes ownership of the map.
func normalized[T comparable, P any](field Field[P], weights map[T]P) (*Distribution[T, P], error) {
	sum := total(field, weights)
	if field.Sign(sum) <= 0 {
		return nil, errors.InvalidWeight("total weight must be positive and finite to normalize").
			WithContext("total", field.Format(sum))
	}
	for o, w := range weights {
		weights[o] = field.Div(w, sum)
	}
	return &Distribution[T, P]{field: field, weights: weights}, nil
}
