// Package output provides output formatting interfaces.
// This package produces human and machine-readable outputs.
package output

import (
	"io"
	"slices"

	"categorical/core/determinism"
	"categorical/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is the rendered view of an evaluated scenario.
// Weights are carried both in their exact string form and as float64.
type Report struct {
	Metadata      Metadata             `json:"metadata"`
	Distributions []DistributionReport `json:"distributions"`
	Answers       []AnswerReport       `json:"answers,omitempty"`
}

// Metadata contains execution context
type Metadata struct {
	// Source is the scenario file or label
	Source string `json:"source"`

	// InputHash is a hash of the scenario input
	InputHash string `json:"input_hash"`

	// Weights is the arithmetic used (float, decimal)
	Weights string `json:"weights"`

	// Duration is how long evaluation took
	Duration string `json:"duration,omitempty"`

	// Version is the tool version
	Version string `json:"version"`
}

// DistributionReport is one evaluated distribution
type DistributionReport struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Total        string  `json:"total"`
	Drifted      bool    `json:"drifted,omitempty"`
	Renormalized bool    `json:"renormalized,omitempty"`
	Entries      []Entry `json:"entries"`
}

// Entry is an outcome and its probability
type Entry struct {
	Outcome     string  `json:"outcome"`
	Probability string  `json:"probability"`
	Value       float64 `json:"value"`
}

// AnswerReport is the answer to one queried outcome
type AnswerReport struct {
	Target      string  `json:"target"`
	Outcome     string  `json:"outcome"`
	Probability string  `json:"probability"`
	Value       float64 `json:"value"`
}

// Only returns a copy of the report restricted to the named distributions.
// Answers are kept only for targets that remain. No names keeps everything.
func (r *Report) Only(names ...string) *Report {
	if len(names) == 0 {
		return r
	}
	out := &Report{Metadata: r.Metadata}
	for _, d := range r.Distributions {
		if slices.Contains(names, d.Name) {
			out.Distributions = append(out.Distributions, d)
		}
	}
	for _, a := range r.Answers {
		if slices.Contains(names, a.Target) {
			out.Answers = append(out.Answers, a)
		}
	}
	return out
}

// Registry manages formatter registration
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry creates a registry holding the given formatters
func NewRegistry(formatters ...Formatter) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	for _, f := range formatters {
		r.formatters[f.Format()] = f
	}
	return r
}

// DefaultRegistry holds the cli and json formatters
func DefaultRegistry(precision int) *Registry {
	return NewRegistry(NewCLIFormatter(precision), NewJSONFormatter())
}

// Get returns the formatter for format
func (r *Registry) Get(format Format) (Formatter, error) {
	f, ok := r.formatters[format]
	if !ok {
		return nil, errors.NotSupported("output format " + string(format))
	}
	return f, nil
}

// Formats returns the registered formats in sorted order
func (r *Registry) Formats() []Format {
	return determinism.SortedKeys(r.formatters)
}
