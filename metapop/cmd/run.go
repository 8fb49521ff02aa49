package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run a simulation. Settings come from the defaults, the --config ` +
		`file, METAPOP_* environment variables and the flags below, the ` +
		`later ones winning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		return runSimulation(cfg)
	},
}

func init() {
	addConfigFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

// addConfigFlags defines one flag per configuration key. The defaults only
// document the keys; config.Defaults is what applies.
func addConfigFlags(f *pflag.FlagSet) {
	f.String("model", "meta", "population model, single or meta")
	f.String("destination", "default", "output folder under the data dir")
	f.Bool("timestep", true, "record every generation")
	f.String("krecord", "mean", "load statistic, mean or min")
	f.Bool("until-extinction", false, "end a replicate when it goes extinct")
	f.Int("reps", 1, "number of replicates")
	f.Int("generations", 100, "generations per replicate")
	f.Int64("seed", 1, "random seed")
	f.Float64("s", 0.05, "selection coefficient per mutation")
	f.Int("n0", 1000, "initial population size")
	f.Int("k", 1000, "carrying capacity")
	f.Float64("u", 0.0005, "mutation rate per segment")
	f.Float64("c", 0, "cost of carrying two segments")
	f.Float64("r", 0.5, "reassortment rate")
	f.Int("hosts", 1, "number of hosts")
	f.Int("kmax", 10, "mutation ceiling per segment")
	f.Int("mutcap", 0, "most new mutations per generation, 0 for no cap")
	f.Int("lethal-load", 0, "lethal mutation load, 0 for the model default")
	f.String("pop2-init", "1", "two-segment share of N0 per host, a~b~c")
	f.String("pop1-init", "0", "one-segment share of N0 per host, a~b~c")
	f.Float64("tr", 1, "transmission scale of immigration")
	f.Float64("mig", 0, "migrating fraction per generation")
	f.Bool("sqlite", false, "also write a SQLite database")
	f.Bool("monitor", false, "serve progress over HTTP")
	f.Int("monitor-port", 0, "monitoring port, 0 for a random one")
	f.Bool("open-browser", false, "open the monitor in a browser")
}

func runSimulation(cfg *config.Config) error {
	logger := setupLogger(cfg.LogLevel)

	s, err := simulation.MakeBuilder().
		WithConfig(cfg).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	defer s.Terminate()

	if err := s.Run(); err != nil {
		logger.WithError(err).Error("simulation failed")
		return err
	}

	logger.WithFields(logrus.Fields{
		"csv":    s.CSVPath(),
		"sqlite": s.DatabasePath(),
	}).Info("output written")

	return nil
}
