// Package cli carries the flag and configuration plumbing shared by
// every chute subcommand.
//
// Flags do not feed the config struct directly. A changed flag is
// bridged into the matching CHUTE_* environment variable and the
// normal resolution order (defaults, file, environment) runs
// afterwards, so a flag behaves exactly like an environment override
// and is inherited by any child process the command spawns.
package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/pkg/log"
)

// BindCommon registers the flags every role command accepts.
func BindCommon(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to a JSON config file (default: probe standard locations)")
	cmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	cmd.Flags().String("log-format", "", "Log format: text|json")
}

// BridgeEnv copies a changed flag's value into an environment
// variable so the config overlay sees it.
func BridgeEnv(cmd *cobra.Command, flag, envKey string) {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		_ = os.Setenv(envKey, f.Value.String())
	}
}

// BridgeRate maps the human-friendly --rate flag (items per second)
// onto the millisecond interval the producer actually sleeps between
// puts.
func BridgeRate(cmd *cobra.Command) {
	if !cmd.Flags().Changed("rate") {
		return
	}
	rate, _ := cmd.Flags().GetFloat64("rate")
	intervalMs := int64(0)
	if rate > 0 {
		intervalMs = int64(1000 / rate)
	}
	_ = os.Setenv("CHUTE_PRODUCER_INTERVAL_MS", strconv.FormatInt(intervalMs, 10))
}

// Setup resolves the configuration and builds the process logger from
// it. Call after all BridgeEnv calls for the command.
func Setup(cmd *cobra.Command) (config.Config, log.Logger, error) {
	BridgeEnv(cmd, "log-level", "CHUTE_LOG_LEVEL")
	BridgeEnv(cmd, "log-format", "CHUTE_LOG_FORMAT")

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Resolve(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := log.ApplyConfig(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	// Stray standard-library log output follows the process logger.
	log.RedirectStdLog(logger)
	return cfg, logger, nil
}
