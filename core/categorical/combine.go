package categorical

import "categorical/internal/errors"

// Combine builds the joint distribution of two independent distributions.
//
// Every pair (a, b) from the Cartesian product contributes left(a)*right(b) to the
// outcome merge(a, b); pairs that merge to the same outcome have their mass summed.
// The result totals left.Total()*right.Total(), so two normalized inputs give a
// normalized result. If either input is empty the result is empty.
//
// merge must be deterministic. Neither input is modified. The result uses the
// left distribution's field.
func Combine[T, U, V comparable, P any](left *Distribution[T, P], right *Distribution[U, P], merge func(T, U) V) *Distribution[V, P] {
	field := left.field
	weights := make(map[V]P, max(len(left.weights), len(right.weights)))

	for a, pa := range left.weights {
		for b, pb := range right.weights {
			v := merge(a, b)
			weights[v] = accumulate(field, weights, v, field.Mul(pa, pb))
		}
	}

	return &Distribution[V, P]{field: field, weights: weights}
}

// Map pushes a distribution through fn. Outcomes that fn sends to the same
// value have their weights summed.
func Map[T, U comparable, P any](d *Distribution[T, P], fn func(T) U) *Distribution[U, P] {
	return Combine(d, Unit(d.field), func(a T, _ struct{}) U {
		return fn(a)
	})
}

// Unit returns the distribution with a single outcome of weight one.
// Combining with it leaves weights unchanged.
func Unit[P any](field Field[P]) *Distribution[struct{}, P] {
	return &Distribution[struct{}, P]{
		field:   field,
		weights: map[struct{}]P{{}: field.One()},
	}
}

// IsEmptyInput reports whether err was caused by constructing a distribution from no outcomes
func IsEmptyInput(err error) bool {
	return errors.IsType(err, errors.TypeEmptyInput)
}

// IsInvalidWeight reports whether err was caused by a negative weight or a zero total
func IsInvalidWeight(err error) bool {
	return errors.IsType(err, errors.TypeInvalidWeight)
}
