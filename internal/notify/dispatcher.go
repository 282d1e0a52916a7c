package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/metrics"
)

// EventSource is the part of the event store the dispatcher reads.
type EventSource interface {
	GetEvent(ctx context.Context, chatID int64, hhmm string) (domain.Event, bool, error)
	GetChatThreadID(ctx context.Context, chatID int64) (*int, error)
	IsChatActive(ctx context.Context, chatID int64) (bool, error)
	SetChatActive(ctx context.Context, chatID int64, active bool) error
}

// Dispatcher turns a due (chat, time) pair into a delivered message.
type Dispatcher struct {
	events    EventSource
	deliverer Deliverer
	format    Format
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(events EventSource, deliverer Deliverer, format Format, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		events:    events,
		deliverer: deliverer,
		format:    format,
		log:       log,
		metrics:   m,
	}
}

// Notify delivers the reminder stored at (chatID, hhmm). A reminder removed
// after its timer fired is silently skipped. Delivery failures are handled
// here and never returned; only store read failures are.
func (d *Dispatcher) Notify(ctx context.Context, chatID int64, hhmm string) error {
	ev, found, err := d.events.GetEvent(ctx, chatID, hhmm)
	if err != nil {
		return fmt.Errorf("lookup event: %w", err)
	}
	if !found {
		d.log.Debug("event vanished before delivery", zap.Int64("chatID", chatID), zap.String("time", hhmm))
		return nil
	}

	active, err := d.events.IsChatActive(ctx, chatID)
	if err != nil {
		d.log.Warn("chat activity lookup failed", zap.Int64("chatID", chatID), zap.Error(err))
		active = true
	}
	if !active {
		d.log.Debug("chat inactive, skipping", zap.Int64("chatID", chatID), zap.String("time", hhmm))
		return nil
	}

	threadID := 0
	thread, err := d.events.GetChatThreadID(ctx, chatID)
	if err != nil {
		d.log.Warn("thread lookup failed, sending to main chat", zap.Int64("chatID", chatID), zap.Error(err))
	} else if thread != nil {
		threadID = *thread
	}

	if err := d.deliverer.Deliver(ctx, chatID, ev.Message, d.format, threadID); err != nil {
		d.handleDeliveryError(ctx, chatID, hhmm, err)
		return nil
	}
	d.log.Info("reminder sent", zap.Int64("chatID", chatID), zap.String("time", hhmm))
	return nil
}

func (d *Dispatcher) handleDeliveryError(ctx context.Context, chatID int64, hhmm string, err error) {
	kind := KindOf(err)
	d.metrics.IncDeliveryFailure(string(kind))

	fields := []zap.Field{zap.Int64("chatID", chatID), zap.String("time", hhmm), zap.Error(err)}
	switch kind {
	case KindRecipientUnavailable:
		d.log.Warn("chat unavailable, marking inactive", fields...)
		if err := d.events.SetChatActive(ctx, chatID, false); err != nil {
			d.log.Error("mark chat inactive failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
	case KindTransient:
		d.log.Warn("transient delivery failure", fields...)
	default:
		d.log.Error("delivery failed", fields...)
	}
}
