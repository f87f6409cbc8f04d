package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from a YAML file with
// environment-variable overrides.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`

	// Bootstrap optionally initializes the platform registry at startup
	// when it does not exist yet.
	Bootstrap Bootstrap `yaml:"bootstrap"`
}

// Bootstrap describes the optional registry initialization at startup.
type Bootstrap struct {
	Authority          string `yaml:"authority"`
	FeeRateBasisPoints uint64 `yaml:"fee_rate_bp"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

// LoadFromPath reads the configuration file and applies environment
// overrides on top.
func LoadFromPath(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LoadOrDefault loads the file when it exists, otherwise returns the
// defaults with environment overrides applied.
func LoadOrDefault(path string) Config {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if cfg, err := LoadFromPath(path); err == nil {
				return cfg
			}
		}
	}
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SONICPACT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SONICPACT_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SONICPACT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SONICPACT_BOOTSTRAP_AUTHORITY"); v != "" {
		cfg.Bootstrap.Authority = v
	}
	if v := os.Getenv("SONICPACT_BOOTSTRAP_FEE_BP"); v != "" {
		if bp, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Bootstrap.FeeRateBasisPoints = bp
		}
	}
}
