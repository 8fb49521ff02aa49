package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/metapop/config"
)

var legacyCmd = &cobra.Command{
	Use:   "legacy <args...>",
	Short: "Run a simulation from positional arguments",
	Long: `Run a simulation from the positional arguments of the earlier ` +
		`command-line tools: 15 arguments for the single model, 22 for ` +
		`the meta model.

  destination timestep krecord untilext reps s N0 K u generations c r seed
  hosts kmax [pop2init pop2len pop1init pop1len tr mig mutcap]

Flags go before the destination. Everything after it is positional, so a
negative seed is read as a number.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromLegacyArgs(args)
		if err != nil {
			return err
		}

		if f := cmd.Flags().Lookup("data-dir"); f != nil && f.Changed {
			cfg.DataDir = f.Value.String()
		}

		if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
			cfg.LogLevel = f.Value.String()
		}

		return runSimulation(cfg)
	},
}

func init() {
	legacyCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(legacyCmd)
}
