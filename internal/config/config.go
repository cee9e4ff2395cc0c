package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStorage  = "sparse"
	DefaultMethod   = "gauss-pp"
	DefaultSize     = 100
	DefaultStart    = 50
	DefaultEps      = 1e-10
	DefaultMaxIter  = 100000
	DefaultTrials   = 100000
	DefaultMaxSteps = 10000000
	DefaultWorkers  = 4
	DefaultSeed     = 1

	// EnvPrefix prefixes environment overrides, e.g. HOMEWALK_SOLVER_EPS.
	EnvPrefix = "HOMEWALK"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Storage    string           `yaml:"storage" mapstructure:"storage"`
	Method     string           `yaml:"method" mapstructure:"method"`
	Size       int              `yaml:"size" mapstructure:"size"`
	Start      int              `yaml:"start" mapstructure:"start"`
	Seed       int64            `yaml:"seed" mapstructure:"seed"`
	Solver     SolverConfig     `yaml:"solver" mapstructure:"solver"`
	MonteCarlo MonteCarloConfig `yaml:"monte_carlo" mapstructure:"monte_carlo"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Town       TownConfig       `yaml:"town" mapstructure:"town"`
}

type SolverConfig struct {
	Eps     float64 `yaml:"eps" mapstructure:"eps"`
	MaxIter int     `yaml:"max_iter" mapstructure:"max_iter"`
}

type MonteCarloConfig struct {
	Trials   int `yaml:"trials" mapstructure:"trials"`
	Workers  int `yaml:"workers" mapstructure:"workers"`
	MaxSteps int `yaml:"max_steps" mapstructure:"max_steps"`
}

type VerifyConfig struct {
	Sizes []int `yaml:"sizes" mapstructure:"sizes"`
}

type TownConfig struct {
	Path          string `yaml:"path,omitempty" mapstructure:"path"`
	Intersections int    `yaml:"intersections" mapstructure:"intersections"`
	Alleys        int    `yaml:"alleys" mapstructure:"alleys"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: DefaultStorage,
		Method:  DefaultMethod,
		Size:    DefaultSize,
		Start:   DefaultStart,
		Seed:    DefaultSeed,
		Solver: SolverConfig{
			Eps:     DefaultEps,
			MaxIter: DefaultMaxIter,
		},
		MonteCarlo: MonteCarloConfig{
			Trials:   DefaultTrials,
			Workers:  DefaultWorkers,
			MaxSteps: DefaultMaxSteps,
		},
		Verify: VerifyConfig{
			Sizes: []int{10, 20, 50, 100, 200, 500},
		},
		Town: TownConfig{
			Intersections: 20,
			Alleys:        30,
		},
	}
}

// Load reads defaults, then the YAML file at path (if non-empty), then
// HOMEWALK_* environment variables, each layer overriding the previous.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage", d.Storage)
	v.SetDefault("method", d.Method)
	v.SetDefault("size", d.Size)
	v.SetDefault("start", d.Start)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("solver.eps", d.Solver.Eps)
	v.SetDefault("solver.max_iter", d.Solver.MaxIter)
	v.SetDefault("monte_carlo.trials", d.MonteCarlo.Trials)
	v.SetDefault("monte_carlo.workers", d.MonteCarlo.Workers)
	v.SetDefault("monte_carlo.max_steps", d.MonteCarlo.MaxSteps)
	v.SetDefault("verify.sizes", d.Verify.Sizes)
	v.SetDefault("town.path", d.Town.Path)
	v.SetDefault("town.intersections", d.Town.Intersections)
	v.SetDefault("town.alleys", d.Town.Alleys)
}

// Validate checks ranges that every command relies on.
func (c *Config) Validate() error {
	switch {
	case c.Size < 2:
		return fmt.Errorf("%w: size %d < 2", ErrInvalidConfig, c.Size)
	case c.Start < 0 || c.Start >= c.Size:
		return fmt.Errorf("%w: start %d outside [0, %d)", ErrInvalidConfig, c.Start, c.Size)
	case c.Solver.Eps < 0:
		return fmt.Errorf("%w: negative eps", ErrInvalidConfig)
	case c.Solver.MaxIter < 0:
		return fmt.Errorf("%w: negative max_iter", ErrInvalidConfig)
	case c.MonteCarlo.Trials < 0:
		return fmt.Errorf("%w: negative monte carlo trials", ErrInvalidConfig)
	case c.MonteCarlo.Workers < 1:
		// Seeded estimates depend on the worker count.
		return fmt.Errorf("%w: monte carlo workers %d < 1", ErrInvalidConfig, c.MonteCarlo.Workers)
	}
	return nil
}
