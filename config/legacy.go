package config

import (
	"strconv"
)

// Positional argument counts of the legacy interface.
const (
	LegacySingleArgs = 15
	LegacyMetaArgs   = 22
)

// FromLegacyArgs builds a Config from the positional argument list used by
// earlier versions of the simulator. Fifteen arguments select the single
// model, twenty-two the meta model:
//
//	destination timestep krecord untilext reps s N0 K u generations c r seed
//	hosts kmax [pop2init pop2len pop1init pop1len tr mig mutcap]
//
// Unlike the old tools, a malformed number is an error rather than zero.
func FromLegacyArgs(args []string) (*Config, error) {
	cfg := defaultConfig()

	switch len(args) {
	case LegacySingleArgs:
		cfg.Model = ModelSingle
	case LegacyMetaArgs:
		cfg.Model = ModelMeta
	default:
		return nil, &ConfigurationError{Problems: []string{
			"legacy mode takes " + strconv.Itoa(LegacySingleArgs) + " or " +
				strconv.Itoa(LegacyMetaArgs) + " arguments, got " +
				strconv.Itoa(len(args)),
		}}
	}

	p := &legacyParser{args: args, err: &ConfigurationError{}}

	cfg.Destination = args[0]
	cfg.Timestep = p.intArg(1, "timestep") != 0
	if p.intArg(2, "krecord") != 0 {
		cfg.KRecord = LoadMin
	} else {
		cfg.KRecord = LoadMean
	}
	cfg.UntilExtinction = p.intArg(3, "untilext") != 0
	cfg.Replicates = p.intArg(4, "rep")
	cfg.S = p.floatArg(5, "s")
	cfg.N0 = p.intArg(6, "N0")
	cfg.K = p.intArg(7, "K")
	cfg.U = p.floatArg(8, "u")
	cfg.Generations = p.intArg(9, "gen_num")
	cfg.C = p.floatArg(10, "c")
	cfg.R = p.floatArg(11, "r")
	cfg.Seed = p.int64Arg(12, "seed")
	cfg.Hosts = p.intArg(13, "host_num")
	cfg.KMax = p.intArg(14, "kmax")

	if cfg.Model == ModelMeta {
		cfg.Pop2Init = p.proportions(15, 16, "pop2init")
		cfg.Pop1Init = p.proportions(17, 18, "pop1init")
		cfg.Tr = p.floatArg(19, "tr")
		cfg.Mig = p.floatArg(20, "mig")
		cfg.MutCap = p.intArg(21, "mutcap")
	}

	if len(p.err.Problems) > 0 {
		return nil, p.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DataDir:  "./data",
		Tr:       1,
		LogLevel: "info",
	}
}

type legacyParser struct {
	args []string
	err  *ConfigurationError
}

func (p *legacyParser) intArg(i int, name string) int {
	v, err := strconv.Atoi(p.args[i])
	if err != nil {
		p.err.add("argument %d (%s): %q is not an integer", i+1, name, p.args[i])
	}

	return v
}

func (p *legacyParser) int64Arg(i int, name string) int64 {
	v, err := strconv.ParseInt(p.args[i], 10, 64)
	if err != nil {
		p.err.add("argument %d (%s): %q is not an integer", i+1, name, p.args[i])
	}

	return v
}

func (p *legacyParser) floatArg(i int, name string) float64 {
	v, err := strconv.ParseFloat(p.args[i], 64)
	if err != nil {
		p.err.add("argument %d (%s): %q is not a number", i+1, name, p.args[i])
	}

	return v
}

func (p *legacyParser) proportions(i, lenIdx int, name string) []float64 {
	n := p.intArg(lenIdx, name+" length")

	v, err := ParseTerminatedProportions(p.args[i], n)
	if err != nil {
		p.err.add("argument %d (%s): %v", i+1, name, err)
	}

	return v
}
