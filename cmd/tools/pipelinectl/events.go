package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"recruiting-pipeline/internal/common/logger"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage timeline events",
	}
	cmd.AddCommand(newEventsReplayCmd())
	return cmd
}

func newEventsReplayCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-append dead-lettered timeline events",
		Long: `Drains the Redis dead-letter list back into the event store, oldest first.
Stops at the first event that still cannot be written and leaves it at the head of the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := logger.NewFromConfig(cfg.Logging)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := openSession(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Recorder.Replay(ctx, limit)
			fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d events.\n", res.Replayed)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "max", 0, "replay at most this many events (0 = all)")
	return cmd
}
