package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"categorical/internal/errors"
)

func sampleReport() *Report {
	return &Report{
		Metadata: Metadata{Source: "dice.hcl", Weights: "float", Version: "test"},
		Distributions: []DistributionReport{
			{
				Name:  "coin",
				Kind:  "uniform",
				Total: "1",
				Entries: []Entry{
					{Outcome: "heads", Probability: "0.5", Value: 0.5},
					{Outcome: "tails", Probability: "0.5", Value: 0.5},
				},
			},
			{
				Name:    "drift",
				Kind:    "combined",
				Total:   "0.99",
				Drifted: true,
				Entries: []Entry{{Outcome: "x", Probability: "0.99", Value: 0.99}},
			},
		},
		Answers: []AnswerReport{
			{Target: "coin", Outcome: "heads", Probability: "0.5", Value: 0.5},
			{Target: "drift", Outcome: "x", Probability: "0.99", Value: 0.99},
		},
	}
}

func TestCLIFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCLIFormatter(3).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"coin (uniform, 2 outcomes, total 1)",
		"drift (combined, 1 outcomes, total 0.99) [drifted]",
		"0.500",
		"QUERY",
		"0.990",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter().Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded.Distributions) != 2 || decoded.Distributions[1].Drifted != true {
		t.Errorf("decoded = %+v", decoded)
	}
	if strings.Contains(buf.String(), `"renormalized"`) {
		t.Error("false renormalized flag should be omitted")
	}
}

func TestReportOnly(t *testing.T) {
	r := sampleReport().Only("drift")
	if len(r.Distributions) != 1 || r.Distributions[0].Name != "drift" {
		t.Errorf("Distributions = %+v", r.Distributions)
	}
	if len(r.Answers) != 1 || r.Answers[0].Target != "drift" {
		t.Errorf("Answers = %+v", r.Answers)
	}

	full := sampleReport()
	if full.Only() != full {
		t.Error("Only() without names should return the report itself")
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(4)

	f, err := r.Get(FormatJSON)
	if err != nil || f.Format() != FormatJSON {
		t.Errorf("Get(json) = %v, %v", f, err)
	}
	if _, err := r.Get("html"); !errors.IsType(err, errors.TypeNotSupported) {
		t.Errorf("Get(html) error = %v, want NOT_SUPPORTED", err)
	}
	if got := r.Formats(); len(got) != 2 || got[0] != FormatCLI || got[1] != FormatJSON {
		t.Errorf("Formats() = %v", got)
	}
}
