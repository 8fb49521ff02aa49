package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable that sets a key.
const EnvPrefix = "METAPOP"

// NewViper returns a viper instance with defaults and environment lookup in
// place. Keys use underscores; METAPOP_KMAX sets kmax.
func NewViper() *viper.Viper {
	v := viper.New()

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadDotEnv loads environment variables from the given files. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}

		return fmt.Errorf("loading %s: %w", f, err)
	}

	return nil
}

// ReadFile merges a YAML configuration file into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.DecodeHookFuncType(proportionsHook),
	))
	if err != nil {
		return nil, &ConfigurationError{Problems: []string{err.Error()}}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var float64SliceType = reflect.TypeOf([]float64(nil))

// proportionsHook turns "0.5~0.5" strings from flags and the environment
// into float slices.
func proportionsHook(from, to reflect.Type, data any) (any, error) {
	if to != float64SliceType {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		return ParseProportions(data.(string))
	case reflect.Float64, reflect.Int:
		return []float64{reflect.ValueOf(data).Convert(
			reflect.TypeOf(float64(0))).Float()}, nil
	default:
		return data, nil
	}
}

// YAML renders c as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
