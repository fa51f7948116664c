package workerrun

import (
	"github.com/spf13/cobra"

	"github.com/chute-dev/chute/internal/cmd/cli"
)

// NewProduceCommand constructs the `produce` subcommand.
func NewProduceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Run the producing worker",
		Long: `Run the producer: appends a strictly increasing integer sequence to
the broker's queue, one item per put, starting at zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.BridgeEnv(cmd, "count", "CHUTE_PRODUCER_COUNT")
			cli.BridgeRate(cmd)
			cfg, logger, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			return RunProduce(cmd.Context(), Options{Config: cfg, Logger: logger})
		},
	}
	cli.BindCommon(cmd)
	cmd.Flags().Int("count", 0, "Stop after producing this many items (0 = unlimited)")
	cmd.Flags().Float64("rate", 0, "Throttle to roughly this many items per second (0 = flat out)")
	return cmd
}

// NewConsumeCommand constructs the `consume` subcommand.
func NewConsumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Run the consuming worker",
		Long: `Run the consumer: removes items from the broker's queue one at a
time and verifies that consecutive items differ by exactly one. A gap
is fatal; a queue that is closed and drained ends the run cleanly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.BridgeEnv(cmd, "wait-ms", "CHUTE_CONSUMER_WAIT_MS")
			cfg, logger, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			return RunConsume(cmd.Context(), Options{Config: cfg, Logger: logger})
		},
	}
	cli.BindCommon(cmd)
	cmd.Flags().Int64("wait-ms", 0, "Long-poll window for one blocking get (default 5000)")
	return cmd
}
