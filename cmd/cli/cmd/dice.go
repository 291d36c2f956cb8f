package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"categorical/core/engine"
	"categorical/core/scenario"
)

var (
	diceOpts  runOptions
	diceSides int
	diceCount int
	diceMerge string
)

// diceCmd rolls fair dice and folds them together
var diceCmd = &cobra.Command{
	Use:   "dice",
	Short: "Show the distribution of rolling fair dice",
	Long: `Roll --count fair dice with --sides faces each and fold the rolls
together with --merge (sum, max, min, product, ...). The folded roll is
reported as "result".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scenario.Dice(diceSides, diceCount, diceMerge)
		if err != nil {
			return err
		}
		return evaluate(cmd.Context(), cmd.OutOrStdout(), s, diceOpts)
	},
}

func init() {
	diceCmd.Flags().IntVar(&diceSides, "sides", 6, "faces per die")
	diceCmd.Flags().IntVar(&diceCount, "count", 2, "number of dice")
	diceCmd.Flags().StringVar(&diceMerge, "merge", "sum",
		"how rolls are folded together: "+strings.Join(engine.DefaultMerges().Names(), ", "))
	addRunFlags(diceCmd, &diceOpts)
}
