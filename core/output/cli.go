package output

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// CLIFormatter renders aligned plain-text tables
type CLIFormatter struct {
	precision int
}

// NewCLIFormatter creates a formatter showing probabilities to precision decimal places
func NewCLIFormatter(precision int) *CLIFormatter {
	return &CLIFormatter{precision: precision}
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// Render writes one table per distribution followed by the query answers
func (f *CLIFormatter) Render(w io.Writer, report *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "source:\t%s\n", report.Metadata.Source)
	fmt.Fprintf(tw, "weights:\t%s\n", report.Metadata.Weights)
	if report.Metadata.InputHash != "" {
		fmt.Fprintf(tw, "input:\t%s\n", report.Metadata.InputHash)
	}

	for _, d := range report.Distributions {
		fmt.Fprintf(tw, "\n%s (%s, %d outcomes, total %s)", d.Name, d.Kind, len(d.Entries), d.Total)
		switch {
		case d.Renormalized:
			fmt.Fprint(tw, " [renormalized]")
		case d.Drifted:
			fmt.Fprint(tw, " [drifted]")
		}
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "  OUTCOME\tPROBABILITY")
		for _, e := range d.Entries {
			fmt.Fprintf(tw, "  %s\t%s\n", e.Outcome, f.value(e.Value))
		}
	}

	if len(report.Answers) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "QUERY\tOUTCOME\tPROBABILITY")
		for _, a := range report.Answers {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Target, a.Outcome, f.value(a.Value))
		}
	}

	return tw.Flush()
}

func (f *CLIFormatter) value(v float64) string {
	return strconv.FormatFloat(v, 'f', f.precision, 64)
}
