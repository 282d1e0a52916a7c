package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// ErrStorage wraps every persistence failure returned by a Repo.
var ErrStorage = errors.New("storage failure")

// Repo persists reminders and per-chat settings. Every call is atomic on its
// own; callers never need a transaction spanning several calls.
type Repo interface {
	// AddEvent inserts or replaces the event at (chatID, hhmm).
	AddEvent(ctx context.Context, chatID int64, hhmm, message string, days domain.DaySet) error
	// RemoveEvent deletes the event if present; absence is not an error.
	RemoveEvent(ctx context.Context, chatID int64, hhmm string) error
	GetEvent(ctx context.Context, chatID int64, hhmm string) (domain.Event, bool, error)
	GetEventsByChat(ctx context.Context, chatID int64) (map[string]domain.Event, error)
	EventExists(ctx context.Context, chatID int64, hhmm string) (bool, error)
	GetAllEvents(ctx context.Context) (map[int64]map[string]domain.Event, error)

	SetChatThreadID(ctx context.Context, chatID int64, threadID *int) error
	GetChatThreadID(ctx context.Context, chatID int64) (*int, error)
	SetChatActive(ctx context.Context, chatID int64, active bool) error
	// IsChatActive reports true for chats never seen before.
	IsChatActive(ctx context.Context, chatID int64) (bool, error)

	Close() error
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the configured backend and applies migrations.
// For sqlite dsn is a file path; for postgres it is a connection string.
func Open(ctx context.Context, driver, dsn string) (*SQLRepo, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
