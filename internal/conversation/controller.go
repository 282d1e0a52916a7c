package conversation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/metrics"
	"github.com/ykvlv/reminder-bot/internal/scheduler"
)

// EventStore is the part of the event store the conversation writes to.
type EventStore interface {
	AddEvent(ctx context.Context, chatID int64, hhmm, message string, days domain.DaySet) error
	RemoveEvent(ctx context.Context, chatID int64, hhmm string) error
	EventExists(ctx context.Context, chatID int64, hhmm string) (bool, error)
	GetEventsByChat(ctx context.Context, chatID int64) (map[string]domain.Event, error)
	SetChatThreadID(ctx context.Context, chatID int64, threadID *int) error
	SetChatActive(ctx context.Context, chatID int64, active bool) error
}

// JobScheduler is the part of the scheduler the conversation drives.
type JobScheduler interface {
	AddJob(chatID int64, hhmm string, days domain.DaySet, cb scheduler.Callback) (bool, error)
	RemoveJob(chatID int64, hhmm string) bool
}

// Replier answers in the chat (and topic) a message came from.
type Replier interface {
	Reply(ctx context.Context, chatID int64, threadID int, text string) error
}

// Message is an inbound chat message.
type Message struct {
	ChatID   int64
	ThreadID int
	Text     string
}

type stateKind int

const (
	stateIdle stateKind = iota
	stateAwaitingAddText
	stateAwaitingAddDays
	stateAwaitingRemoveTime
)

// state is what the chat is expected to send next. time and text are set
// only in stateAwaitingAddDays.
type state struct {
	kind stateKind
	time string
	text string
}

// Controller drives the add/remove dialogs and commits their results to the
// store first and the scheduler second.
type Controller struct {
	store   EventStore
	sched   JobScheduler
	notify  scheduler.Callback
	replier Replier
	log     *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	states map[int64]state // chatID -> pending step
}

// New creates a Controller. notify is registered as the callback of every
// job the controller schedules. m may be nil.
func New(store EventStore, sched JobScheduler, notify scheduler.Callback, replier Replier, log *zap.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		store:   store,
		sched:   sched,
		notify:  notify,
		replier: replier,
		log:     log,
		metrics: m,
		states:  make(map[int64]state),
	}
}

func (c *Controller) setState(chatID int64, s state) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[chatID] = s
}

func (c *Controller) getState(chatID int64) state {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[chatID]
}

func (c *Controller) clearState(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, chatID)
}

// Handle processes one inbound message. A command always aborts a pending
// dialog and is dispatched on its own.
func (c *Controller) Handle(ctx context.Context, msg Message) {
	text := strings.TrimSpace(msg.Text)

	if cmd, ok := parseCommand(text); ok {
		c.clearState(msg.ChatID)
		c.bindChat(ctx, msg)
		c.metrics.IncCommand(cmd)
		c.handleCommand(ctx, msg, cmd)
		return
	}

	switch st := c.getState(msg.ChatID); st.kind {
	case stateAwaitingAddText:
		c.stepAddText(ctx, msg, text)
	case stateAwaitingAddDays:
		c.stepAddDays(ctx, msg, st, text)
	case stateAwaitingRemoveTime:
		c.stepRemoveTime(ctx, msg, text)
	default:
		// No pending flow: ignore free-form message
	}
}

func (c *Controller) handleCommand(ctx context.Context, msg Message, cmd string) {
	switch cmd {
	case "start":
		c.handleStart(ctx, msg)
	case "help":
		c.reply(ctx, msg, helpText)
	case "add":
		c.setState(msg.ChatID, state{kind: stateAwaitingAddText})
		c.reply(ctx, msg, askAddText)
	case "remove":
		c.setState(msg.ChatID, state{kind: stateAwaitingRemoveTime})
		c.reply(ctx, msg, askRemoveTime)
	case "list":
		c.handleList(ctx, msg)
	case "cancel":
		c.reply(ctx, msg, cancelled)
	default:
		c.reply(ctx, msg, unknownCommand)
	}
}

// bindChat records the topic replies go to and reactivates the chat.
func (c *Controller) bindChat(ctx context.Context, msg Message) {
	var thread *int
	if msg.ThreadID != 0 {
		id := msg.ThreadID
		thread = &id
	}
	if err := c.store.SetChatThreadID(ctx, msg.ChatID, thread); err != nil {
		c.log.Warn("save thread binding failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
	}
	if err := c.store.SetChatActive(ctx, msg.ChatID, true); err != nil {
		c.log.Warn("mark chat active failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
	}
}

func (c *Controller) reply(ctx context.Context, msg Message, text string) {
	if err := c.replier.Reply(ctx, msg.ChatID, msg.ThreadID, text); err != nil {
		c.log.Error("reply failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
	}
}

// parseCommand returns the command name of "/name" or "/name@bot args".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), true
}
