package config

import (
	"io"
	"math"
	"os"
	"strings"

	"gointegral/adapters/montecarlo"
	"gointegral/adapters/quadrature"
	"gointegral/internal/errors"
	"gointegral/internal/logging"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix namespaces every environment override.
	EnvPrefix = "GOINTEGRAL_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config represents the complete application configuration
type Config struct {
	Engine  EngineConfig  `koanf:"engine"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// EngineConfig holds the default solver options applied to every run
type EngineConfig struct {
	Samples        int     `koanf:"samples"`
	BatchSize      int     `koanf:"batch_size"`
	Tolerance      float64 `koanf:"tolerance"`
	MaxDepth       int     `koanf:"max_depth"`
	MaxEvaluations int     `koanf:"max_evaluations"`
	Workers        int     `koanf:"workers"`
	Rule           string  `koanf:"rule"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `koanf:"level"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Textfile, when set, receives the metrics in text exposition format
	// after each command.
	Textfile string `koanf:"textfile"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Samples:        montecarlo.DefaultSamples,
			BatchSize:      montecarlo.DefaultBatchSize,
			Tolerance:      quadrature.DefaultTolerance,
			MaxDepth:       quadrature.DefaultMaxDepth,
			MaxEvaluations: quadrature.DefaultMaxEvaluations,
			Workers:        1,
			Rule:           quadrature.DefaultRule,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load layers configuration sources. Precedence, highest first:
//
//  1. Environment variables (GOINTEGRAL_ENGINE_SAMPLES -> engine.samples)
//  2. A .env file in the working directory, which never overrides variables
//     already set in the environment
//  3. The YAML file at path, when path is not empty
//  4. Defaults
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse config file %s", path))
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to load .env"))
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to load environment variables"))
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to decode configuration"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

// envKey maps GOINTEGRAL_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to open config file %s", path))
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read config file %s", path))
	}
	if len(content) > maxConfigFileSize {
		return nil, errors.ConfigInvalid("config file " + path + " exceeds 1MB")
	}
	return content, nil
}

// Validate rejects values no solver could run with.
func (c *Config) Validate() error {
	e := c.Engine
	switch {
	case e.Samples <= 0:
		return errors.ConfigInvalid("engine.samples must be positive")
	case e.BatchSize <= 0:
		return errors.ConfigInvalid("engine.batch_size must be positive")
	case !(e.Tolerance > 0) || math.IsInf(e.Tolerance, 0):
		return errors.ConfigInvalid("engine.tolerance must be a positive finite number")
	case e.MaxDepth <= 0:
		return errors.ConfigInvalid("engine.max_depth must be positive")
	case e.MaxEvaluations <= 0:
		return errors.ConfigInvalid("engine.max_evaluations must be positive")
	case e.Workers <= 0:
		return errors.ConfigInvalid("engine.workers must be positive")
	}
	if _, err := quadrature.LookupRule(e.Rule); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
