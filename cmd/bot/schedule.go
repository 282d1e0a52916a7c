package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ykvlv/reminder-bot/internal/app"
	"github.com/ykvlv/reminder-bot/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the schedule the bot would run",
	Long: `Rebuild the schedule from the event store, the same way the bot does at
start, and print every job with its next fire time. Nothing is sent.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	repo, err := store.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer repo.Close()

	sched := app.NewScheduler(cfg, log, nil)
	noop := func(context.Context, int64, string) error { return nil }
	if _, err := sched.Restore(ctx, repo.GetAllEvents, noop); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHAT\tTIME\tDAY\tNEXT\tJOB")
	for _, e := range sched.Snapshot() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ChatID, e.Time, e.Weekday, e.Next.Format(time.RFC3339), e.ID)
	}
	return w.Flush()
}
