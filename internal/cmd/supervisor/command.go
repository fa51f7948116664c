package supervisorrun

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chute-dev/chute/internal/cmd/cli"
)

// NewCommand constructs the `run` subcommand.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline: broker, consumer, and producer",
		Long: `Run the pipeline under a supervisor. The broker is spawned first and
polled until ready, then the consumer and producer follow, all as
child processes of this binary. SIGINT, SIGTERM, and SIGABRT wind the
pipeline down; by default the queue is drained before the broker
stops.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.BridgeEnv(cmd, "broker-addr", "CHUTE_BROKER_LISTEN_ADDR")
			cli.BridgeEnv(cmd, "capacity", "CHUTE_BROKER_CAPACITY")
			cli.BridgeEnv(cmd, "full-policy", "CHUTE_BROKER_FULL_POLICY")
			cli.BridgeEnv(cmd, "count", "CHUTE_PRODUCER_COUNT")
			cli.BridgeRate(cmd)
			bridgeDrain(cmd)
			cfg, logger, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), Options{Config: cfg, Logger: logger})
		},
	}
	cli.BindCommon(cmd)
	cmd.Flags().String("broker-addr", "", "host:port for the broker API (default 127.0.0.1:7381)")
	cmd.Flags().Int("capacity", 0, "Bound the queue to this many items (0 = unbounded)")
	cmd.Flags().String("full-policy", "", "Behavior at capacity: block|reject")
	cmd.Flags().Int("count", 0, "Stop after producing this many items (0 = run until interrupted)")
	cmd.Flags().Float64("rate", 0, "Throttle to roughly this many items per second (0 = flat out)")
	cmd.Flags().Bool("drain", true, "Close intake and drain the queue on shutdown")
	cmd.Flags().Bool("no-drain", false, "Terminate children immediately on shutdown")
	return cmd
}

// bridgeDrain folds the --drain/--no-drain pair into one setting;
// --no-drain wins when both are given.
func bridgeDrain(cmd *cobra.Command) {
	if cmd.Flags().Changed("no-drain") {
		if noDrain, _ := cmd.Flags().GetBool("no-drain"); noDrain {
			_ = os.Setenv("CHUTE_SUPERVISOR_DRAIN", "false")
			return
		}
	}
	cli.BridgeEnv(cmd, "drain", "CHUTE_SUPERVISOR_DRAIN")
}
