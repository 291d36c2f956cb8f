// Package scenario defines the declarative description of a set of named
// distributions, the combinations between them and the probabilities to report.
// Adapters parse concrete file formats into a Scenario; the engine evaluates it.
package scenario

import (
	"fmt"
	"strconv"

	"categorical/core/determinism"
	"categorical/internal/errors"
)

// Source identifies where a scenario came from
type Source struct {
	// Name is a file path or a synthetic label such as "dice"
	Name string `json:"name"`

	// Hash is the content hash of the raw input
	Hash determinism.ContentHash `json:"-"`
}

// Scenario is a parsed, validated set of declarations
type Scenario struct {
	Source        Source
	Distributions []Distribution
	Combines      []Combine
	Queries       []Query
}

// Kind is how a base distribution is declared
type Kind string

const (
	KindUniform  Kind = "uniform"
	KindWeighted Kind = "weighted"
	KindCombined Kind = "combined"
)

// Distribution declares a base distribution. Uniform is used for KindUniform,
// Weights for KindWeighted.
type Distribution struct {
	Name    string
	Kind    Kind
	Uniform []string
	Weights []Weight
	Line    int
}

// Weight is an outcome with its weight in decimal string form
type Weight struct {
	Outcome string
	Weight  string
}

// Combine declares the joint distribution of two named distributions
type Combine struct {
	Name  string
	Left  string
	Right string
	Merge string
	Line  int
}

// Query asks for the probability of outcomes of a named distribution
type Query struct {
	Target   string
	Outcomes []string
	Line     int
}

// Names returns every declared distribution and combine name in declaration order
func (s *Scenario) Names() []string {
	names := make([]string, 0, len(s.Distributions)+len(s.Combines))
	for _, d := range s.Distributions {
		names = append(names, d.Name)
	}
	for _, c := range s.Combines {
		names = append(names, c.Name)
	}
	return names
}

// Validate checks structural rules that do not depend on weight arithmetic:
// unique names, exactly one form per distribution, known references.
func (s *Scenario) Validate() error {
	seen := make(map[string]int)
	declare := func(name string, line int) error {
		if name == "" {
			return errors.Input("declaration without a name").WithContext("line", line)
		}
		if prev, ok := seen[name]; ok {
			return errors.Newf(errors.TypeInput, "%q declared twice", name).
				WithContext("line", line).
				WithContext("previous_line", prev)
		}
		seen[name] = line
		return nil
	}

	for _, d := range s.Distributions {
		if err := declare(d.Name, d.Line); err != nil {
			return err
		}
		if d.Kind != KindUniform && d.Kind != KindWeighted {
			return errors.Newf(errors.TypeInput, "distribution %q must set exactly one of uniform or weights", d.Name).
				WithContext("line", d.Line)
		}
	}
	for _, c := range s.Combines {
		if err := declare(c.Name, c.Line); err != nil {
			return err
		}
	}

	for _, c := range s.Combines {
		for _, ref := range []string{c.Left, c.Right} {
			if _, ok := seen[ref]; !ok {
				return errors.NotFound("distribution", ref).
					WithContext("combine", c.Name).
					WithContext("line", c.Line)
			}
		}
	}
	for _, q := range s.Queries {
		if _, ok := seen[q.Target]; !ok {
			return errors.NotFound("distribution", q.Target).WithContext("line", q.Line)
		}
	}
	return nil
}

// Dice builds the scenario for rolling count dice with the given number of
// sides and folding them together with merge. The final roll is named "result".
func Dice(sides, count int, merge string) (*Scenario, error) {
	if sides < 1 {
		return nil, errors.Input("a die needs at least one side")
	}
	if count < 1 {
		return nil, errors.Input("at least one die must be rolled")
	}

	faces := make([]string, sides)
	for i := range faces {
		faces[i] = strconv.Itoa(i + 1)
	}

	label := fmt.Sprintf("%dd%d %s", count, sides, merge)
	s := &Scenario{
		Source: Source{
			Name: label,
			Hash: determinism.ComputeHash([]byte(label)),
		},
		Distributions: []Distribution{{Name: "d1", Kind: KindUniform, Uniform: faces}},
	}

	if count == 1 {
		s.Distributions[0].Name = "result"
		return s, s.Validate()
	}

	prev := "d1"
	for i := 2; i <= count; i++ {
		name := fmt.Sprintf("d%d", i)
		if i == count {
			name = "result"
		}
		s.Combines = append(s.Combines, Combine{Name: name, Left: prev, Right: "d1", Merge: merge})
		prev = name
	}

	return s, s.Validate()
}
