package brokerrun

import (
	"github.com/spf13/cobra"

	"github.com/chute-dev/chute/internal/cmd/cli"
)

// NewCommand constructs the `broker` subcommand.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Run the queue-owning broker process",
		Long: `Run the broker: the single process that owns the shared queue and
serves put/get/size over HTTP. Normally spawned by 'chute run', but
usable standalone for development.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.BridgeEnv(cmd, "listen-addr", "CHUTE_BROKER_LISTEN_ADDR")
			cli.BridgeEnv(cmd, "capacity", "CHUTE_BROKER_CAPACITY")
			cli.BridgeEnv(cmd, "full-policy", "CHUTE_BROKER_FULL_POLICY")
			cfg, logger, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), Options{Config: cfg, Logger: logger})
		},
	}
	cli.BindCommon(cmd)
	cmd.Flags().String("listen-addr", "", "host:port for the broker API (default 127.0.0.1:7381)")
	cmd.Flags().Int("capacity", 0, "Bound the queue to this many items (0 = unbounded)")
	cmd.Flags().String("full-policy", "", "Behavior at capacity: block|reject")
	return cmd
}
