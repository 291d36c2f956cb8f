package engine

import (
	"slices"

	"github.com/shopspring/decimal"

	"categorical/core/output"
)

// Report converts a result to its rendered view. weights names the arithmetic in use.
func (r *Result[P]) Report(weights, version string) *output.Report {
	report := &output.Report{
		Metadata: output.Metadata{
			Source:    r.Source.Name,
			InputHash: r.Source.Hash.String(),
			Weights:   weights,
			Version:   version,
		},
		Distributions: make([]output.DistributionReport, 0, len(r.Distributions)),
	}

	for _, n := range r.Distributions {
		field := n.Distribution.Field()
		dr := output.DistributionReport{
			Name:         n.Name,
			Kind:         string(n.Kind),
			Total:        field.Format(n.Distribution.Total()),
			Drifted:      n.Drifted,
			Renormalized: n.Renormalized,
			Entries:      make([]output.Entry, 0, n.Distribution.Len()),
		}
		n.Distribution.Range(func(o string, p P) bool {
			dr.Entries = append(dr.Entries, output.Entry{
				Outcome:     o,
				Probability: field.Format(p),
				Value:       field.Float64(p),
			})
			return true
		})
		sortNumeric(dr.Entries)
		report.Distributions = append(report.Distributions, dr)
	}

	for _, a := range r.Answers {
		field := r.Distributions[r.byName[a.Target]].Distribution.Field()
		report.Answers = append(report.Answers, output.AnswerReport{
			Target:      a.Target,
			Outcome:     a.Outcome,
			Probability: field.Format(a.Probability),
			Value:       field.Float64(a.Probability),
		})
	}
	return report
}

// sortNumeric orders entries by value when every outcome is a number,
// so 2 sorts before 10. Otherwise the existing order is kept.
func sortNumeric(entries []output.Entry) {
	nums := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		n, err := decimal.NewFromString(e.Outcome)
		if err != nil {
			return
		}
		nums[e.Outcome] = n
	}
	slices.SortStableFunc(entries, func(a, b output.Entry) int {
		return nums[a.Outcome].Cmp(nums[b.Outcome])
	})
}
