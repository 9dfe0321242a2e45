package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
)

func newTimelineCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "timeline <candidateId>",
		Short: "Print a candidate's timeline, newest first",
		Args:  cobra.ExactArgs(1),
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

			evts, err := s.Recorder.Query(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(evts)
			}
			return printTimeline(cmd, evts)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printTimeline(cmd *cobra.Command, evts []models.Event) error {
	if len(evts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no events")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tSOURCE\tMETA")
	for _, e := range evts {
		meta, _ := json.Marshal(e.Meta)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), e.EventType, e.Source, meta)
	}
	return w.Flush()
}
