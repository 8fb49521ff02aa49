// Package cmd provides the command-line interface of metapop.
package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/metapop/config"
)

var (
	configFile string
	envFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metapop",
	Short: "Simulate mutation accumulation in viral metapopulations.",
	Long: `metapop simulates the accumulation of deleterious mutations in ` +
		`viruses with one or two genome segments, spread over hosts that ` +
		`exchange virions through a migration pool.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"file with METAPOP_* environment variables, skipped if missing")
	rootCmd.PersistentFlags().String("log-level", "info",
		"one of debug, info, warn, error")
	rootCmd.PersistentFlags().String("data-dir", "./data",
		"folder that holds the destination folders")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig layers defaults, the YAML file, the env file, the environment
// and the command-line flags, in increasing priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := config.NewViper()

	if configFile != "" {
		if err := config.ReadFile(v, configFile); err != nil {
			return nil, err
		}
	}

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	return config.Load(v)
}

// bindFlags binds every flag whose name matches a configuration key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := config.Defaults()

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := keys[key]; !ok || err != nil {
			return
		}

		err = v.BindPFlag(key, f)
	})

	return err
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}
