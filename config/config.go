// Package config defines the run configuration, its defaults and its
// validation.
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Model selects the population model.
type Model string

// Supported models.
const (
	// ModelSingle runs independent two-segment demes with a global density
	// term and no migration.
	ModelSingle Model = "single"

	// ModelMeta runs hosts linked by a migration pool and tracks a
	// one-segment population next to the two-segment one.
	ModelMeta Model = "meta"
)

// LoadStat selects the mutation-load statistic that is recorded.
type LoadStat string

// Supported statistics.
const (
	LoadMean LoadStat = "mean"
	LoadMin  LoadStat = "min"
)

// Config holds every parameter of a run. All values are fixed for the whole
// run.
type Config struct {
	Model           Model    `mapstructure:"model" yaml:"model"`
	Destination     string   `mapstructure:"destination" yaml:"destination"`
	DataDir         string   `mapstructure:"data_dir" yaml:"data_dir"`
	Timestep        bool     `mapstructure:"timestep" yaml:"timestep"`
	KRecord         LoadStat `mapstructure:"krecord" yaml:"krecord"`
	UntilExtinction bool     `mapstructure:"until_extinction" yaml:"until_extinction"`

	Replicates  int     `mapstructure:"reps" yaml:"reps"`
	Generations int     `mapstructure:"generations" yaml:"generations"`
	Seed        int64   `mapstructure:"seed" yaml:"seed"`
	S           float64 `mapstructure:"s" yaml:"s"`
	N0          int     `mapstructure:"n0" yaml:"n0"`
	K           int     `mapstructure:"k" yaml:"k"`
	U           float64 `mapstructure:"u" yaml:"u"`
	C           float64 `mapstructure:"c" yaml:"c"`
	R           float64 `mapstructure:"r" yaml:"r"`
	Hosts       int     `mapstructure:"hosts" yaml:"hosts"`
	KMax        int     `mapstructure:"kmax" yaml:"kmax"`
	MutCap      int     `mapstructure:"mutcap" yaml:"mutcap"`
	LethalLoad  int     `mapstructure:"lethal_load" yaml:"lethal_load"`

	Pop2Init []float64 `mapstructure:"pop2_init" yaml:"pop2_init"`
	Pop1Init []float64 `mapstructure:"pop1_init" yaml:"pop1_init"`
	Tr       float64   `mapstructure:"tr" yaml:"tr"`
	Mig      float64   `mapstructure:"mig" yaml:"mig"`

	SQLite      bool   `mapstructure:"sqlite" yaml:"sqlite"`
	Monitor     bool   `mapstructure:"monitor" yaml:"monitor"`
	MonitorPort int    `mapstructure:"monitor_port" yaml:"monitor_port"`
	OpenBrowser bool   `mapstructure:"open_browser" yaml:"open_browser"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
}

// Defaults returns the value of every key when nothing else sets it.
func Defaults() map[string]any {
	return map[string]any{
		"model":            string(ModelMeta),
		"destination":      "default",
		"data_dir":         "./data",
		"timestep":         true,
		"krecord":          string(LoadMean),
		"until_extinction": false,
		"reps":             1,
		"generations":      100,
		"seed":             1,
		"s":                0.05,
		"n0":               1000,
		"k":                1000,
		"u":                0.0005,
		"c":                0.0,
		"r":                0.5,
		"hosts":            1,
		"kmax":             10,
		"mutcap":           0,
		"lethal_load":      0,
		"pop2_init":        "1",
		"pop1_init":        "0",
		"tr":               1.0,
		"mig":              0.0,
		"sqlite":           false,
		"monitor":          false,
		"monitor_port":     0,
		"open_browser":     false,
		"log_level":        "info",
	}
}

// Lethal returns the mutation load at and above which individuals leave no
// offspring. An explicit LethalLoad wins over the model default.
func (c *Config) Lethal() int {
	if c.LethalLoad > 0 {
		return c.LethalLoad
	}

	if c.Model == ModelSingle {
		return c.KMax
	}

	return 2 * c.KMax
}

// HasOneSegment tells whether the model tracks one-segment individuals.
func (c *Config) HasOneSegment() bool {
	return c.Model == ModelMeta
}

// ConfigurationError lists every problem found while validating a Config.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigurationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks c and returns a *ConfigurationError describing every
// problem, or nil.
func (c *Config) Validate() error {
	e := &ConfigurationError{}

	switch c.Model {
	case ModelSingle, ModelMeta:
	default:
		e.add("unknown model %q", c.Model)
	}

	switch c.KRecord {
	case LoadMean, LoadMin:
	default:
		e.add("unknown krecord %q", c.KRecord)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"kmax", c.KMax},
		{"hosts", c.Hosts},
		{"reps", c.Replicates},
		{"generations", c.Generations},
		{"k", c.K},
	}
	for _, p := range positive {
		if p.value <= 0 {
			e.add("%s must be positive, got %d", p.name, p.value)
		}
	}

	rates := []struct {
		name  string
		value float64
	}{
		{"s", c.S},
		{"c", c.C},
		{"r", c.R},
		{"tr", c.Tr},
		{"mig", c.Mig},
	}
	for _, r := range rates {
		if !(r.value >= 0 && r.value <= 1) {
			e.add("%s must be within [0,1], got %v", r.name, r.value)
		}
	}

	if !(c.U >= 0) {
		e.add("u must not be negative, got %v", c.U)
	}

	if c.N0 < 0 {
		e.add("n0 must not be negative, got %d", c.N0)
	}

	if c.MutCap < 0 {
		e.add("mutcap must not be negative, got %d", c.MutCap)
	}

	if c.LethalLoad < 0 || (c.KMax > 0 && c.LethalLoad > 2*c.KMax) {
		e.add("lethal_load must be within 0..%d, got %d",
			2*c.KMax, c.LethalLoad)
	}

	if c.Model == ModelMeta {
		c.validateProportions(e, "pop2_init", c.Pop2Init)
		c.validateProportions(e, "pop1_init", c.Pop1Init)
	}

	if c.Destination == "" || strings.ContainsAny(c.Destination, `/\`) {
		e.add("destination must be a plain folder name, got %q",
			c.Destination)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		e.add("log_level: %v", err)
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		e.add("monitor_port out of range: %d", c.MonitorPort)
	}

	if len(e.Problems) > 0 {
		return e
	}

	return nil
}

func (c *Config) validateProportions(
	e *ConfigurationError,
	name string,
	p []float64,
) {
	if len(p) != c.Hosts {
		e.add("%s has %d entries for %d hosts", name, len(p), c.Hosts)
	}

	for i, v := range p {
		if !(v >= 0) {
			e.add("%s[%d] must not be negative, got %v", name, i, v)
		}
	}
}
