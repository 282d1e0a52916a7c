package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/store"
)

var eventsChat int64

func init() {
	eventsCmd.Flags().Int64Var(&eventsChat, "chat", 0, "only list reminders of this chat id")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List stored reminders",
	Long: `List reminders from the event store, sorted by chat and time.

Examples:
  # Everything
  reminder-bot events

  # One chat
  reminder-bot events --chat -1001234567890`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, _ []string) error {
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

	var all map[int64]map[string]domain.Event
	if cmd.Flags().Changed("chat") {
		byTime, err := repo.GetEventsByChat(ctx, eventsChat)
		if err != nil {
			return err
		}
		all = map[int64]map[string]domain.Event{eventsChat: byTime}
	} else if all, err = repo.GetAllEvents(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHAT\tTIME\tDAYS\tMESSAGE")
	for _, ev := range sortedEvents(all) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", ev.ChatID, ev.Time, ev.Days.Display(), ev.Message)
	}
	return w.Flush()
}

func sortedEvents(all map[int64]map[string]domain.Event) []domain.Event {
	var out []domain.Event
	for _, byTime := range all {
		for _, ev := range byTime {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].ChatID != out[k].ChatID {
			return out[i].ChatID < out[k].ChatID
		}
		return out[i].Time < out[k].Time
	})
	return out
}
