package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	brokerrun "github.com/chute-dev/chute/internal/cmd/broker"
	clientcmd "github.com/chute-dev/chute/internal/cmd/client"
	supervisorrun "github.com/chute-dev/chute/internal/cmd/supervisor"
	workerrun "github.com/chute-dev/chute/internal/cmd/worker"
	"github.com/chute-dev/chute/internal/sequence"
	"github.com/chute-dev/chute/internal/supervisor"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chute",
		Short: "Chute pipeline CLI",
		Long: `Chute is a single-binary producer/consumer pipeline coordinated
through a broker-owned queue. One subcommand per process role, plus
ad-hoc queue operations.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		supervisorrun.NewCommand(),
		brokerrun.NewCommand(),
		workerrun.NewProduceCommand(),
		workerrun.NewConsumeCommand(),
		clientcmd.NewQueueCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps a failure to the process exit code: an ordering
// violation is 2, a failed child propagates its own code through the
// supervisor, everything else (broker unreachable included) is 1.
func exitStatus(err error) int {
	var childErr *supervisor.ChildExitError
	if errors.As(err, &childErr) && childErr.Code > 0 {
		return childErr.Code
	}
	var orderErr *sequence.OrderingError
	if errors.As(err, &orderErr) {
		return 2
	}
	return 1
}
