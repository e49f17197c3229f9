package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sarchlab/csim/cache"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is everything a run needs to know before it starts.
type Config struct {
	cache.Geometry `yaml:",inline"`

	Trace   string `yaml:"trace"`
	Verbose bool   `yaml:"verbose"`
}

// LoadConfig reads a YAML configuration file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg := Config{Geometry: cache.DefaultGeometry()}

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	err = dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// resolveConfig merges the config file, if any, with the command line.
// Flags that were set explicitly win over the file.
func (o *options) resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg := Config{
		Geometry: cache.Geometry{
			SetBits:     o.setBits,
			BlockBits:   o.blockBits,
			LinesPerSet: o.linesPerSet,
		},
		Trace:   o.tracePath,
		Verbose: o.verbose,
	}

	if o.configPath == "" {
		return cfg, nil
	}

	fileCfg, err := LoadConfig(o.configPath)
	if err != nil {
		return Config{}, err
	}

	flags := cmd.Flags()
	if !flags.Changed("set-bits") {
		cfg.SetBits = fileCfg.SetBits
	}

	if !flags.Changed("block-bits") {
		cfg.BlockBits = fileCfg.BlockBits
	}

	if !flags.Changed("lines") {
		cfg.LinesPerSet = fileCfg.LinesPerSet
	}

	if !flags.Changed("trace") {
		cfg.Trace = fileCfg.Trace
	}

	if !flags.Changed("verbose") {
		cfg.Verbose = fileCfg.Verbose
	}

	return cfg, nil
}

// envDefaults maps environment variables to the flags they provide defaults
// for.
var envDefaults = map[string]string{
	"CSIM_LOG_LEVEL":    "log-level",
	"CSIM_RECORD":       "record",
	"CSIM_MONITOR_PORT": "monitor-port",
}

// loadEnv reads .env if it exists and applies environment defaults to flags
// that were not set on the command line.
func loadEnv(cmd *cobra.Command) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	for env, flag := range envDefaults {
		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(flag)
		if f == nil || f.Changed {
			continue
		}

		err := cmd.Flags().Set(flag, value)
		if err != nil {
			return fmt.Errorf("applying %s: %w", env, err)
		}
	}

	return nil
}
