package cmd

import (
	"github.com/spf13/cobra"

	"categorical/adapters/hcl"
)

var evalOpts runOptions

// evalCmd evaluates a scenario file
var evalCmd = &cobra.Command{
	Use:   "eval <file.hcl>",
	Short: "Evaluate the distributions and queries in a scenario file",
	Long: `Evaluate a scenario file. A scenario declares distribution blocks,
combine blocks that join two independent distributions, and query blocks
that ask for the probability of outcomes. Numeric query outcomes match by
value, so "3.50" finds the "3.5" a sum merge produced.

  distribution "coin" {
    uniform = ["heads", "tails"]
  }

  distribution "loaded" {
    weights = { "1" = 1, "6" = 3 }
  }

  combine "best_of_two" {
    left  = "loaded"
    right = "loaded"
    merge = "max"
  }

  query "best_of_two" {
    outcomes = ["6"]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := hcl.NewParser().ParseFile(args[0])
		if err != nil {
			return err
		}
		return evaluate(cmd.Context(), cmd.OutOrStdout(), s, evalOpts)
	},
}

func init() {
	addRunFlags(evalCmd, &evalOpts)
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: cli, json (default from config)")
	cmd.Flags().StringVar(&opts.weights, "weights", "", "weight arithmetic: float, decimal (default from config)")
	cmd.Flags().BoolVar(&opts.renormalize, "renormalize", false, "rescale combined distributions whose total drifted")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "only show these distributions")
}
