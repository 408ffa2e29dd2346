package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pharaon3/bark-automation/internal/scheduler"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run the pipeline exactly once and print the counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		unlock, err := scheduler.Lock(cfg.LockPath())
		if err != nil {
			return err
		}
		defer unlock() //nolint:errcheck

		e, err := newEngine(ctx, *cfg)
		if err != nil {
			return err
		}
		defer e.Close() //nolint:errcheck

		st, err := e.RunOnce(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s\n", st.RunID)
		fmt.Fprintf(out, "  listed:     %d\n", st.Listed)
		fmt.Fprintf(out, "  processed:  %d\n", st.Processed)
		fmt.Fprintf(out, "  skipped:    %d\n", st.Skipped)
		fmt.Fprintf(out, "  no text:    %d\n", st.NoText)
		fmt.Fprintf(out, "  failed:     %d\n", st.Failed)
		fmt.Fprintf(out, "  submitted:  %d\n", st.Submitted)
		fmt.Fprintf(out, "  duplicates: %d\n", st.Duplicates)
		fmt.Fprintf(out, "  enriched:   %d\n", st.Enriched)
		fmt.Fprintf(out, "  notified:   %d\n", st.Notified)
		return err
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
