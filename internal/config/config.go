package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel   = "m4"
	DefaultMethod  = "cmaes"
	DefaultTrials  = 2000
	DefaultDataDir = ".frictionfit"
)

// Config holds the settings of one identification run. CLI flags
// override config file values, which override preset values.
type Config struct {
	Actuator string `yaml:"actuator"`
	Model    string `yaml:"model"`
	Method   string `yaml:"method"`
	Trials   int    `yaml:"trials"`
	Workers  int    `yaml:"workers"`
	Seed     int64  `yaml:"seed"`
	LogDir   string `yaml:"log_dir"`
	Output   string `yaml:"output"`
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Method:   DefaultMethod,
		Trials:   DefaultTrials,
		DataDir:  DefaultDataDir,
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
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
