package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/metrics"
)

type memEvents struct {
	events   map[string]domain.Event
	threads  map[int64]int
	inactive map[int64]bool
	getErr   error
}

func newMemEvents() *memEvents {
	return &memEvents{
		events:   map[string]domain.Event{},
		threads:  map[int64]int{},
		inactive: map[int64]bool{},
	}
}

func key(chatID int64, hhmm string) string {
	return fmt.Sprintf("%d/%s", chatID, hhmm)
}

func (m *memEvents) put(ev domain.Event) { m.events[key(ev.ChatID, ev.Time)] = ev }

func (m *memEvents) GetEvent(_ context.Context, chatID int64, hhmm string) (domain.Event, bool, error) {
	if m.getErr != nil {
		return domain.Event{}, false, m.getErr
	}
	ev, ok := m.events[key(chatID, hhmm)]
	return ev, ok, nil
}

func (m *memEvents) GetChatThreadID(_ context.Context, chatID int64) (*int, error) {
	if id, ok := m.threads[chatID]; ok {
		return &id, nil
	}
	return nil, nil
}

func (m *memEvents) IsChatActive(_ context.Context, chatID int64) (bool, error) {
	return !m.inactive[chatID], nil
}

func (m *memEvents) SetChatActive(_ context.Context, chatID int64, active bool) error {
	m.inactive[chatID] = !active
	return nil
}

type sent struct {
	chatID   int64
	text     string
	format   Format
	threadID int
}

type fakeDeliverer struct {
	sent []sent
	err  error
}

func (f *fakeDeliverer) Deliver(_ context.Context, chatID int64, text string, format Format, threadID int) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{chatID, text, format, threadID})
	return nil
}

func newTestDispatcher(events *memEvents, d *fakeDeliverer) (*Dispatcher, *observer.ObservedLogs, *metrics.Metrics) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New(prometheus.NewRegistry())
	return NewDispatcher(events, d, FormatHTML, zap.New(core), m), logs, m
}

func TestNotify_DeliversWithThread(t *testing.T) {
	events := newMemEvents()
	events.put(domain.Event{ChatID: 42, Time: "09:30", Message: "<b>Standup</b>"})
	events.threads[42] = 15
	d := &fakeDeliverer{}
	disp, _, _ := newTestDispatcher(events, d)

	require.NoError(t, disp.Notify(context.Background(), 42, "09:30"))
	assert.Equal(t, []sent{{42, "<b>Standup</b>", FormatHTML, 15}}, d.sent)
}

func TestNotify_AfterDeleteIsNoop(t *testing.T) {
	events := newMemEvents()
	d := &fakeDeliverer{}
	disp, _, _ := newTestDispatcher(events, d)

	require.NoError(t, disp.Notify(context.Background(), 42, "09:30"))
	assert.Empty(t, d.sent, "no delivery for a removed event")
}

func TestNotify_StoreFailureIsReturned(t *testing.T) {
	events := newMemEvents()
	events.getErr = errors.New("disk gone")
	d := &fakeDeliverer{}
	disp, _, _ := newTestDispatcher(events, d)

	require.Error(t, disp.Notify(context.Background(), 1, "09:00"))
	assert.Empty(t, d.sent)
}

func TestNotify_RecipientUnavailableMarksInactive(t *testing.T) {
	events := newMemEvents()
	events.put(domain.Event{ChatID: 5, Time: "10:00", Message: "hi"})
	d := &fakeDeliverer{err: &DeliveryError{Kind: KindRecipientUnavailable, Err: errors.New("Forbidden: bot was blocked by the user")}}
	disp, logs, m := newTestDispatcher(events, d)
	ctx := context.Background()

	require.NoError(t, disp.Notify(ctx, 5, "10:00"), "delivery failures are not propagated")
	assert.True(t, events.inactive[5])
	assert.Equal(t, 1, logs.FilterMessage("chat unavailable, marking inactive").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("recipient_unavailable")))

	// Inactive chats are skipped until they talk to the bot again.
	d.err = nil
	require.NoError(t, disp.Notify(ctx, 5, "10:00"))
	assert.Empty(t, d.sent)

	require.NoError(t, events.SetChatActive(ctx, 5, true))
	require.NoError(t, disp.Notify(ctx, 5, "10:00"))
	assert.Len(t, d.sent, 1)
}

func TestNotify_TransientFailureOnlyLogs(t *testing.T) {
	events := newMemEvents()
	events.put(domain.Event{ChatID: 5, Time: "10:00", Message: "hi"})
	d := &fakeDeliverer{err: &DeliveryError{Kind: KindTransient, Err: errors.New("Too Many Requests")}}
	disp, logs, _ := newTestDispatcher(events, d)

	require.NoError(t, disp.Notify(context.Background(), 5, "10:00"))
	assert.False(t, events.inactive[5])
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("transient delivery failure").Len())
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), &DeliveryError{Kind: KindTransient, Err: errors.New("x")})
	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
