package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	qclient "github.com/chute-dev/chute/internal/client"
	"github.com/chute-dev/chute/internal/cmd/cli"
)

// NewQueueCommand constructs the `queue` command group and
// subcommands.
func NewQueueCommand() *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Ad-hoc queue operations (put, get, size, stats, close)",
		Long: `Ad-hoc operations against a running broker's queue.

  put     Append one item
  get     Remove one item (single long-poll window)
  size    Print the current queue depth
  stats   Print broker and queue statistics
  close   Close the queue's intake; gets drain the backlog`,
	}
	queueCmd.AddCommand(
		newQueuePutCommand(),
		newQueueGetCommand(),
		newQueueSizeCommand(),
		newQueueStatsCommand(),
		newQueueCloseCommand(),
	)
	return queueCmd
}

// withHandle resolves configuration, dials the broker, and runs fn.
func withHandle(cmd *cobra.Command, fn func(ctx context.Context, h *qclient.Handle) error) error {
	cli.BridgeEnv(cmd, "endpoint", "CHUTE_ENDPOINT")
	cfg, logger, err := cli.Setup(cmd)
	if err != nil {
		return err
	}
	h := qclient.New(qclient.Options{
		Endpoint: cfg.BrokerEndpoint(),
		WaitMs:   cfg.Consumer.WaitMs,
		Logger:   logger,
	})
	return fn(cmd.Context(), h)
}

func bindClientFlags(cmd *cobra.Command) {
	cli.BindCommon(cmd)
	cmd.Flags().String("endpoint", "", "Broker base URL (default http://127.0.0.1:7381)")
}

// newQueuePutCommand constructs the `queue put` subcommand.
func newQueuePutCommand() *cobra.Command {
	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Append one item to the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			item, _ := cmd.Flags().GetInt64("item")
			return withHandle(cmd, func(ctx context.Context, h *qclient.Handle) error {
				size, err := h.Put(ctx, item)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "item:", item, "size:", size)
				return nil
			})
		},
	}
	bindClientFlags(putCmd)
	putCmd.Flags().Int64("item", 0, "Item value to append")
	_ = putCmd.MarkFlagRequired("item")
	return putCmd
}

// newQueueGetCommand constructs the `queue get` subcommand.
func newQueueGetCommand() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Remove one item from the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			waitMs, _ := cmd.Flags().GetInt64("wait-ms")
			return withHandle(cmd, func(ctx context.Context, h *qclient.Handle) error {
				res, ok, err := h.GetWait(ctx, waitMs)
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "empty")
					return nil
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "item:", res.Item, "size:", res.Size)
				return nil
			})
		},
	}
	bindClientFlags(getCmd)
	getCmd.Flags().Int64("wait-ms", 0, "Long-poll window in ms (default: the configured consumer window)")
	return getCmd
}

// newQueueSizeCommand constructs the `queue size` subcommand.
func newQueueSizeCommand() *cobra.Command {
	sizeCmd := &cobra.Command{
		Use:   "size",
		Short: "Print the current queue depth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHandle(cmd, func(ctx context.Context, h *qclient.Handle) error {
				size, err := h.Size(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), size)
				return nil
			})
		},
	}
	bindClientFlags(sizeCmd)
	return sizeCmd
}

// newQueueStatsCommand constructs the `queue stats` subcommand.
func newQueueStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print broker and queue statistics as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHandle(cmd, func(ctx context.Context, h *qclient.Handle) error {
				st, err := h.Stats(ctx)
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			})
		},
	}
	bindClientFlags(statsCmd)
	return statsCmd
}

// newQueueCloseCommand constructs the `queue close` subcommand.
func newQueueCloseCommand() *cobra.Command {
	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close the queue's intake",
		Long: `Close the queue's intake. Later puts are rejected; gets keep
draining the backlog and report closed once it is empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHandle(cmd, func(ctx context.Context, h *qclient.Handle) error {
				if err := h.Close(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
				return nil
			})
		},
	}
	bindClientFlags(closeCmd)
	return closeCmd
}
