package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix scopes the process environment overlay; Broker.ListenAddr
// resolves as CHUTE_BROKER_LISTEN_ADDR, and so on down the struct.
const envPrefix = "chute"

// FromEnv overlays CHUTE_* environment variables onto cfg. Only
// variables actually present in the environment change anything;
// defaults stay the business of Default.
func FromEnv(cfg *Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("apply environment overrides: %w", err)
	}
	return nil
}

// Resolve runs the full three-layer load: defaults, optional file,
// then environment. The result is validated.
func Resolve(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if err := FromEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
