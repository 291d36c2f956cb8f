// Package engine evaluates scenarios into named categorical distributions.
// The CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"categorical/core/categorical"
	"categorical/core/scenario"
	"categorical/internal/errors"
)

// Options configures evaluation
type Options struct {
	// Tolerance is how far a combined total may drift from one before it is reported
	Tolerance float64

	// Renormalize rescales combined distributions that drifted past Tolerance
	Renormalize bool
}

// Engine evaluates scenarios with weights of type P
type Engine[P any] struct {
	field   categorical.Field[P]
	merges  *MergeRegistry
	options Options
	logger  *zap.Logger
}

// New creates an engine. A nil registry uses DefaultMerges, a nil logger discards output.
func New[P any](field categorical.Field[P], merges *MergeRegistry, options Options, logger *zap.Logger) *Engine[P] {
	if merges == nil {
		merges = DefaultMerges()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine[P]{
		field:   field,
		merges:  merges,
		options: options,
		logger:  logger,
	}
}

// Named is an evaluated distribution
type Named[P any] struct {
	Name         string
	Kind         scenario.Kind
	Distribution *categorical.Distribution[string, P]

	// Drifted is set when a combined total strayed from one by more than the tolerance
	Drifted bool

	// Renormalized is set when a drifted distribution was rescaled
	Renormalized bool
}

// Answer is the probability of one queried outcome
type Answer[P any] struct {
	Target      string
	Outcome     string
	Probability P
}

// Result holds every evaluated distribution in declaration order plus query answers
type Result[P any] struct {
	Source        scenario.Source
	Distributions []Named[P]
	Answers       []Answer[P]

	byName map[string]int
}

// Lookup returns the evaluated distribution called name
func (r *Result[P]) Lookup(name string) (*categorical.Distribution[string, P], bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.Distributions[i].Distribution, true
}

type evaluation[P any] struct {
	engine   *Engine[P]
	ctx      context.Context
	scenario *scenario.Scenario
	done     map[string]Named[P]
	visiting map[string]bool
	bases    map[string]scenario.Distribution
	combines map[string]scenario.Combine
}

// Evaluate builds every distribution the scenario declares and answers its queries.
// Combines may reference names declared later in the file; cycles are rejected.
func (e *Engine[P]) Evaluate(ctx context.Context, s *scenario.Scenario) (*Result[P], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ev := &evaluation[P]{
		engine:   e,
		ctx:      ctx,
		scenario: s,
		done:     make(map[string]Named[P]),
		visiting: make(map[string]bool),
		bases:    make(map[string]scenario.Distribution, len(s.Distributions)),
		combines: make(map[string]scenario.Combine, len(s.Combines)),
	}
	for _, d := range s.Distributions {
		ev.bases[d.Name] = d
	}
	for _, c := range s.Combines {
		ev.combines[c.Name] = c
	}

	result := &Result[P]{
		Source: s.Source,
		byName: make(map[string]int),
	}
	for _, name := range s.Names() {
		n, err := ev.resolve(name)
		if err != nil {
			return nil, err
		}
		result.byName[name] = len(result.Distributions)
		result.Distributions = append(result.Distributions, n)
	}

	for _, q := range s.Queries {
		d, _ := result.Lookup(q.Target)
		for _, o := range q.Outcomes {
			result.Answers = append(result.Answers, Answer[P]{
				Target:      q.Target,
				Outcome:     o,
				Probability: e.probabilityOf(d, o),
			})
		}
	}

	e.logger.Debug("scenario evaluated",
		zap.String("source", s.Source.Name),
		zap.Int("distributions", len(result.Distributions)),
		zap.Int("answers", len(result.Answers)),
	)
	return result, nil
}

func (ev *evaluation[P]) resolve(name string) (Named[P], error) {
	if n, ok := ev.done[name]; ok {
		return n, nil
	}
	if err := ev.ctx.Err(); err != nil {
		return Named[P]{}, err
	}
	if ev.visiting[name] {
		return Named[P]{}, errors.Newf(errors.TypeInput, "combine %q depends on itself", name)
	}
	ev.visiting[name] = true
	defer delete(ev.visiting, name)

	var (
		n   Named[P]
		err error
	)
	if d, ok := ev.bases[name]; ok {
		n, err = ev.buildBase(d)
	} else {
		n, err = ev.buildCombine(ev.combines[name])
	}
	if err != nil {
		return Named[P]{}, err
	}

	ev.done[name] = n
	return n, nil
}

func (ev *evaluation[P]) buildBase(d scenario.Distribution) (Named[P], error) {
	field := ev.engine.field
	n := Named[P]{Name: d.Name, Kind: d.Kind}

	var err error
	switch d.Kind {
	case scenario.KindUniform:
		n.Distribution, err = categorical.NewUniform(field, d.Uniform)
	case scenario.KindWeighted:
		pairs := make([]categorical.Pair[string, P], 0, len(d.Weights))
		for _, w := range d.Weights {
			p, perr := field.Parse(w.Weight)
			if perr != nil {
				return n, errors.Wrap(errors.TypeInput, fmt.Sprintf("distribution %q: weight of %q is not a number", d.Name, w.Outcome), perr).
					WithContext("line", d.Line)
			}
			pairs = append(pairs, categorical.Pair[string, P]{Outcome: w.Outcome, Weight: p})
		}
		n.Distribution, err = categorical.NewWeighted(field, pairs)
	}
	if err != nil {
		return n, fmt.Errorf("distribution %q: %w", d.Name, err)
	}

	ev.engine.logger.Debug("distribution built",
		zap.String("name", d.Name),
		zap.String("kind", string(d.Kind)),
		zap.Int("outcomes", n.Distribution.Len()),
	)
	return n, nil
}

func (ev *evaluation[P]) buildCombine(c scenario.Combine) (Named[P], error) {
	n := Named[P]{Name: c.Name, Kind: scenario.KindCombined}

	merge, err := ev.engine.merges.Get(c.Merge)
	if err != nil {
		return n, fmt.Errorf("combine %q: %w", c.Name, err)
	}
	left, err := ev.resolve(c.Left)
	if err != nil {
		return n, err
	}
	right, err := ev.resolve(c.Right)
	if err != nil {
		return n, err
	}

	operands := make(map[string]Operand)
	for _, side := range []Named[P]{left, right} {
		for _, o := range side.Distribution.Outcomes() {
			op := Operand{Raw: o}
			if merge.Numeric {
				num, perr := decimal.NewFromString(o)
				if perr != nil {
					return n, errors.Wrap(errors.TypeInput, fmt.Sprintf("combine %q: merge %q needs numeric outcomes, %s has %q", c.Name, merge.Name, side.Name, o), perr).
						WithContext("line", c.Line)
				}
				op.Num = num
			}
			operands[o] = op
		}
	}

	n.Distribution = categorical.Combine(left.Distribution, right.Distribution, func(a, b string) string {
		return merge.Fn(operands[a], operands[b])
	})

	ev.checkDrift(&n)

	ev.engine.logger.Debug("distributions combined",
		zap.String("name", c.Name),
		zap.String("merge", merge.Name),
		zap.Int("left", left.Distribution.Len()),
		zap.Int("right", right.Distribution.Len()),
		zap.Int("outcomes", n.Distribution.Len()),
	)
	return n, nil
}

// checkDrift flags, and optionally repairs, a combined total that is no longer one.
func (ev *evaluation[P]) checkDrift(n *Named[P]) {
	field := ev.engine.field
	total := field.Float64(n.Distribution.Total())
	if math.Abs(total-1) <= ev.engine.options.Tolerance {
		return
	}

	n.Drifted = true
	ev.engine.logger.Warn("combined total drifted from one",
		zap.String("name", n.Name),
		zap.Float64("total", total),
		zap.Float64("tolerance", ev.engine.options.Tolerance),
	)
	if !ev.engine.options.Renormalize {
		return
	}
	if normalized, err := n.Distribution.Normalize(); err == nil {
		n.Distribution = normalized
		n.Renormalized = true
	}
}

// probabilityOf answers a query. A numeric outcome matches every outcome with
// the same value, so "1.50" finds the "1.5" a numeric merge produced.
func (e *Engine[P]) probabilityOf(d *categorical.Distribution[string, P], outcome string) P {
	want, err := decimal.NewFromString(outcome)
	if err != nil {
		return d.ProbabilityOf(outcome)
	}
	sum := e.field.Zero()
	d.Range(func(o string, p P) bool {
		if n, err := decimal.NewFromString(o); err == nil && n.Equal(want) {
			sum = e.field.Add(sum, p)
		}
		return true
	})
	return sum
}
