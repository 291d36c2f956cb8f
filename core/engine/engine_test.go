package engine

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"categorical/core/categorical"
	"categorical/core/scenario"
	"categorical/internal/errors"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func diceScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Source: scenario.Source{Name: "test"},
		Distributions: []scenario.Distribution{
			{Name: "d6", Kind: scenario.KindUniform, Uniform: []string{"1", "2", "3", "4", "5", "6"}},
		},
		Combines: []scenario.Combine{
			// declared before the combine it depends on
			{Name: "double_wins", Left: "best", Right: "d6", Merge: "gt"},
			{Name: "best", Left: "d6", Right: "d6", Merge: "max"},
		},
		Queries: []scenario.Query{
			{Target: "best", Outcomes: []string{"1", "3", "6", "7"}},
		},
	}
}

func TestEvaluateDice(t *testing.T) {
	e := New(categorical.Float64, nil, Options{Tolerance: 1e-9}, nil)

	res, err := e.Evaluate(context.Background(), diceScenario())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if len(res.Distributions) != 3 {
		t.Fatalf("got %d distributions, want 3", len(res.Distributions))
	}
	if res.Distributions[1].Name != "double_wins" || res.Distributions[1].Kind != scenario.KindCombined {
		t.Errorf("declaration order lost: %+v", res.Distributions[1])
	}

	want := []float64{1.0 / 36, 5.0 / 36, 11.0 / 36, 0}
	if len(res.Answers) != len(want) {
		t.Fatalf("got %d answers, want %d", len(res.Answers), len(want))
	}
	for i, a := range res.Answers {
		if !approx(a.Probability, want[i]) {
			t.Errorf("P(best = %s) = %v, want %v", a.Outcome, a.Probability, want[i])
		}
	}

	wins, ok := res.Lookup("double_wins")
	if !ok {
		t.Fatal("double_wins missing")
	}
	if got := wins.ProbabilityOf("true"); !approx(got, 125.0/216) {
		t.Errorf("P(double wins) = %v, want 125/216", got)
	}
}

func TestEvaluateDecimal(t *testing.T) {
	e := New[decimal.Decimal](categorical.NewDecimalField(24), nil, Options{Tolerance: 1e-12}, nil)

	s := &scenario.Scenario{
		Distributions: []scenario.Distribution{
			{Name: "loaded", Kind: scenario.KindWeighted, Weights: []scenario.Weight{
				{Outcome: "a", Weight: "0.2"},
				{Outcome: "a", Weight: "0.3"},
				{Outcome: "b", Weight: "0.5"},
			}},
		},
		Combines: []scenario.Combine{
			{Name: "both", Left: "loaded", Right: "loaded", Merge: "concat"},
		},
	}

	res, err := e.Evaluate(context.Background(), s)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	loaded, _ := res.Lookup("loaded")
	if got := loaded.ProbabilityOf("a"); !got.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("P(a) = %s, want 0.5", got)
	}
	both, _ := res.Lookup("both")
	if got := both.ProbabilityOf("ab"); !got.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("P(ab) = %s, want 0.25", got)
	}
	if res.Distributions[1].Drifted {
		t.Error("exact decimal combine reported drift")
	}
}

func TestEvaluateErrors(t *testing.T) {
	base := scenario.Distribution{Name: "d", Kind: scenario.KindUniform, Uniform: []string{"x", "y"}}

	tests := []struct {
		name     string
		scenario *scenario.Scenario
		check    func(error) bool
	}{
		{
			name: "empty uniform",
			scenario: &scenario.Scenario{Distributions: []scenario.Distribution{
				{Name: "empty", Kind: scenario.KindUniform},
			}},
			check: categorical.IsEmptyInput,
		},
		{
			name: "negative weight",
			scenario: &scenario.Scenario{Distributions: []scenario.Distribution{
				{Name: "neg", Kind: scenario.KindWeighted, Weights: []scenario.Weight{{Outcome: "a", Weight: "-1"}}},
			}},
			check: categorical.IsInvalidWeight,
		},
		{
			name: "weights overflow the total",
			scenario: &scenario.Scenario{Distributions: []scenario.Distribution{
				{Name: "huge", Kind: scenario.KindWeighted, Weights: []scenario.Weight{
					{Outcome: "a", Weight: "1e308"},
					{Outcome: "b", Weight: "1e308"},
				}},
			}},
			check: categorical.IsInvalidWeight,
		},
		{
			name: "unparseable weight",
			scenario: &scenario.Scenario{Distributions: []scenario.Distribution{
				{Name: "bad", Kind: scenario.KindWeighted, Weights: []scenario.Weight{{Outcome: "a", Weight: "lots"}}},
			}},
			check: func(err error) bool { return errors.IsType(err, errors.TypeInput) },
		},
		{
			name: "unknown merge",
			scenario: &scenario.Scenario{
				Distributions: []scenario.Distribution{base},
				Combines:      []scenario.Combine{{Name: "c", Left: "d", Right: "d", Merge: "xor"}},
			},
			check: func(err error) bool { return errors.IsType(err, errors.TypeNotSupported) },
		},
		{
			name: "numeric merge on text outcomes",
			scenario: &scenario.Scenario{
				Distributions: []scenario.Distribution{base},
				Combines:      []scenario.Combine{{Name: "c", Left: "d", Right: "d", Merge: "sum"}},
			},
			check: func(err error) bool { return errors.IsType(err, errors.TypeInput) },
		},
		{
			name: "cycle",
			scenario: &scenario.Scenario{
				Distributions: []scenario.Distribution{base},
				Combines: []scenario.Combine{
					{Name: "a", Left: "b", Right: "d", Merge: "pair"},
					{Name: "b", Left: "a", Right: "d", Merge: "pair"},
				},
			},
			check: func(err error) bool { return errors.IsType(err, errors.TypeInput) },
		},
		{
			name: "unknown reference",
			scenario: &scenario.Scenario{
				Distributions: []scenario.Distribution{base},
				Combines:      []scenario.Combine{{Name: "c", Left: "d", Right: "missing", Merge: "pair"}},
			},
			check: func(err error) bool { return errors.IsType(err, errors.TypeNotFound) },
		},
	}

	e := New(categorical.Float64, nil, Options{Tolerance: 1e-9}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Evaluate(context.Background(), tt.scenario)
			if err == nil {
				t.Fatalf("Evaluate succeeded: %+v", res)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error kind: %v", err)
			}
		})
	}
}

func TestQueryMatchesNumericOutcomesByValue(t *testing.T) {
	s := &scenario.Scenario{
		Distributions: []scenario.Distribution{
			{Name: "coin", Kind: scenario.KindUniform, Uniform: []string{"1.50", "2"}},
		},
		Combines: []scenario.Combine{
			{Name: "total", Left: "coin", Right: "coin", Merge: "sum"},
		},
		Queries: []scenario.Query{
			{Target: "coin", Outcomes: []string{"1.50", "1.5", "heads"}},
			{Target: "total", Outcomes: []string{"3", "3.00", "3.50", "4"}},
		},
	}

	res, err := New(categorical.Float64, nil, Options{Tolerance: 1e-9}, nil).Evaluate(context.Background(), s)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	want := []float64{0.5, 0.5, 0, 0.25, 0.25, 0.5, 0.25}
	if len(res.Answers) != len(want) {
		t.Fatalf("got %d answers, want %d", len(res.Answers), len(want))
	}
	for i, a := range res.Answers {
		if !approx(a.Probability, want[i]) {
			t.Errorf("P(%s = %s) = %v, want %v", a.Target, a.Outcome, a.Probability, want[i])
		}
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(categorical.Float64, nil, Options{}, nil)
	if _, err := e.Evaluate(ctx, diceScenario()); err != context.Canceled {
		t.Errorf("Evaluate error = %v, want context.Canceled", err)
	}
}

func TestDriftIsRenormalized(t *testing.T) {
	s := &scenario.Scenario{
		Distributions: []scenario.Distribution{
			{Name: "third", Kind: scenario.KindUniform, Uniform: []string{"1", "2", "3"}},
		},
		Combines: []scenario.Combine{
			{Name: "sum", Left: "third", Right: "third", Merge: "sum"},
		},
	}

	// 1/3 rounded to two places leaves the combined total at 0.9801
	field := categorical.NewDecimalField(2)

	strict := New[decimal.Decimal](field, nil, Options{Tolerance: 1e-6}, nil)
	res, err := strict.Evaluate(context.Background(), s)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n := res.Distributions[1]; !n.Drifted || n.Renormalized {
		t.Errorf("without renormalize: drifted=%v renormalized=%v", n.Drifted, n.Renormalized)
	}

	fixing := New[decimal.Decimal](field, nil, Options{Tolerance: 1e-6, Renormalize: true}, nil)
	res, err = fixing.Evaluate(context.Background(), s)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	n := res.Distributions[1]
	if !n.Drifted || !n.Renormalized {
		t.Errorf("with renormalize: drifted=%v renormalized=%v", n.Drifted, n.Renormalized)
	}
	if total := field.Float64(n.Distribution.Total()); math.Abs(total-1) > 0.05 {
		t.Errorf("renormalized total = %v", total)
	}
}

func TestReport(t *testing.T) {
	e := New(categorical.Float64, nil, Options{Tolerance: 1e-9}, nil)
	res, err := e.Evaluate(context.Background(), diceScenario())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	report := res.Report("float", "test")
	if report.Metadata.Weights != "float" || report.Metadata.Source != "test" {
		t.Errorf("Metadata = %+v", report.Metadata)
	}
	if got := report.Distributions[0].Entries; len(got) != 6 || got[0].Outcome != "1" || got[5].Outcome != "6" {
		t.Errorf("d6 entries = %+v", got)
	}
	last := report.Answers[2]
	if last.Outcome != "6" || !approx(last.Value, 11.0/36) {
		t.Errorf("answer = %+v", last)
	}
}

func TestMergeRegistry(t *testing.T) {
	r := DefaultMerges()
	if err := r.Register(Merge{Name: "sum", Fn: func(a, _ Operand) string { return a.Raw }}); err == nil {
		t.Error("duplicate merge registered")
	}
	if err := r.Register(Merge{Name: "first_char", Fn: func(a, _ Operand) string { return a.Raw[:1] }}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m, err := r.Get("first_char")
	if err != nil || m.Fn(Operand{Raw: "heads"}, Operand{}) != "h" {
		t.Errorf("Get(first_char) = %+v, %v", m, err)
	}

	_, err = r.Get("xor")
	if !errors.IsType(err, errors.TypeNotSupported) {
		t.Fatalf("Get(xor) error = %v, want NOT_SUPPORTED", err)
	}
	for _, name := range []string{"concat", "first_char", "max", "sum"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Get(xor) error %q does not list %q", err, name)
		}
	}

	names := r.Names()
	if !slices.IsSorted(names) || len(names) != len(builtinMerges)+1 {
		t.Errorf("Names() = %v", names)
	}

	maxMerge, _ := r.Get("max")
	got := maxMerge.Fn(Operand{Raw: "2", Num: decimal.NewFromInt(2)}, Operand{Raw: "10", Num: decimal.NewFromInt(10)})
	if got != "10" {
		t.Errorf("max(2, 10) = %q, want 10", got)
	}
}

func TestReportOrdersNumericOutcomes(t *testing.T) {
	s, err := scenario.Dice(6, 2, "sum")
	if err != nil {
		t.Fatalf("Dice: %v", err)
	}
	res, err := New(categorical.Float64, nil, Options{Tolerance: 1e-9}, nil).Evaluate(context.Background(), s)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	report := res.Report("float", "test").Only("result")
	entries := report.Distributions[0].Entries
	if len(entries) != 11 {
		t.Fatalf("got %d entries, want 11", len(entries))
	}
	for i, e := range entries {
		if want := strconv.Itoa(i + 2); e.Outcome != want {
			t.Errorf("entries[%d] = %q, want %q", i, e.Outcome, want)
		}
	}
	if !approx(entries[5].Value, 6.0/36) {
		t.Errorf("P(sum = 7) = %v, want 6/36", entries[5].Value)
	}
}
