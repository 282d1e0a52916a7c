package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// --- Core commands ---

// handleStart seeds the default reminders for a chat that has none, then
// sends the help text.
func (c *Controller) handleStart(ctx context.Context, msg Message) {
	existing, err := c.store.GetEventsByChat(ctx, msg.ChatID)
	if err != nil {
		c.log.Error("load events failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
		c.reply(ctx, msg, helpText)
		return
	}
	if len(existing) == 0 {
		c.seedDefaults(ctx, msg.ChatID)
	}
	c.reply(ctx, msg, helpText)
}

// seedDefaults stores and schedules the default reminders, stopping at the
// first failure.
func (c *Controller) seedDefaults(ctx context.Context, chatID int64) {
	for i, d := range domain.DefaultEvents {
		if err := c.commitAdd(ctx, chatID, d.Time, d.Message, 0); err != nil {
			c.log.Error("seed default reminders failed",
				zap.Int64("chatID", chatID),
				zap.String("time", d.Time),
				zap.Int("seeded", i),
				zap.Int("total", len(domain.DefaultEvents)),
				zap.Error(err))
			return
		}
	}
	c.log.Info("default reminders seeded",
		zap.Int64("chatID", chatID), zap.Int("seeded", len(domain.DefaultEvents)))
}

func (c *Controller) handleList(ctx context.Context, msg Message) {
	events, err := c.store.GetEventsByChat(ctx, msg.ChatID)
	if err != nil {
		c.log.Error("load events failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
		c.reply(ctx, msg, readFailure)
		return
	}
	if len(events) == 0 {
		c.reply(ctx, msg, listEmpty)
		return
	}

	times := make([]string, 0, len(events))
	for hhmm := range events {
		times = append(times, hhmm)
	}
	sort.Strings(times)

	var b strings.Builder
	b.WriteString(listTitle)
	for _, hhmm := range times {
		ev := events[hhmm]
		fmt.Fprintf(&b, listItemFmt, hhmm, ev.Days.Display(), ev.Message)
	}
	c.reply(ctx, msg, b.String())
}

// --- Dialog steps ---

func (c *Controller) stepAddText(ctx context.Context, msg Message, text string) {
	hhmm, body, err := domain.ParseAddInput(text)
	if err != nil {
		c.reply(ctx, msg, badAddText)
		return
	}
	c.setState(msg.ChatID, state{kind: stateAwaitingAddDays, time: hhmm, text: body})
	c.reply(ctx, msg, askDays)
}

func (c *Controller) stepAddDays(ctx context.Context, msg Message, st state, text string) {
	days, err := domain.ParseDays(text)
	if err != nil {
		c.reply(ctx, msg, badDays)
		return
	}
	c.clearState(msg.ChatID)

	if err := c.commitAdd(ctx, msg.ChatID, st.time, st.text, days); err != nil {
		c.log.Error("add reminder failed",
			zap.Int64("chatID", msg.ChatID), zap.String("time", st.time), zap.Error(err))
		c.reply(ctx, msg, storageFailure)
		return
	}
	c.log.Info("reminder added",
		zap.Int64("chatID", msg.ChatID), zap.String("time", st.time), zap.String("days", days.Canonical()))
	c.reply(ctx, msg, fmt.Sprintf(addedFmt, st.time, days.Display(), st.text))
}

func (c *Controller) stepRemoveTime(ctx context.Context, msg Message, text string) {
	if !domain.ValidInput(text, domain.InputRemove) {
		c.reply(ctx, msg, badRemoveTime)
		return
	}
	c.clearState(msg.ChatID)

	err := c.commitRemove(ctx, msg.ChatID, text)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.reply(ctx, msg, fmt.Sprintf(notFoundFmt, text))
	case err != nil:
		c.log.Error("remove reminder failed",
			zap.Int64("chatID", msg.ChatID), zap.String("time", text), zap.Error(err))
		c.reply(ctx, msg, storageFailure)
	default:
		c.log.Info("reminder removed", zap.Int64("chatID", msg.ChatID), zap.String("time", text))
		c.reply(ctx, msg, fmt.Sprintf(removedFmt, text))
	}
}

// --- Commit helpers (store first, scheduler second) ---

// commitAdd persists the event and reschedules its key. The scheduler is
// not touched when the store write fails.
func (c *Controller) commitAdd(ctx context.Context, chatID int64, hhmm, text string, days domain.DaySet) error {
	if err := c.store.AddEvent(ctx, chatID, hhmm, text, days); err != nil {
		return err
	}
	c.sched.RemoveJob(chatID, hhmm)
	if _, err := c.sched.AddJob(chatID, hhmm, days, c.notify); err != nil {
		return fmt.Errorf("schedule %s: %w", hhmm, err)
	}
	return nil
}

func (c *Controller) commitRemove(ctx context.Context, chatID int64, hhmm string) error {
	ok, err := c.store.EventExists(ctx, chatID, hhmm)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	if err := c.store.RemoveEvent(ctx, chatID, hhmm); err != nil {
		return err
	}
	c.sched.RemoveJob(chatID, hhmm)
	return nil
}
