package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// SQLRepo implements Repo on top of sqlx; queries are written with "?"
// placeholders and rebound for the active driver.
type SQLRepo struct {
	db     *sqlx.DB
	driver string
}

// Close releases the underlying database resources.
func (r *SQLRepo) Close() error {
	return r.db.Close()
}

// Driver returns the database driver name.
func (r *SQLRepo) Driver() string {
	return r.driver
}

// AddEvent upserts the event at (chatID, hhmm): message and days are replaced.
func (r *SQLRepo) AddEvent(ctx context.Context, chatID int64, hhmm, message string, days domain.DaySet) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO events (chat_id, time_of_day, message, days)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (chat_id, time_of_day) DO UPDATE SET
			message = excluded.message,
			days    = excluded.days`),
		chatID, hhmm, message, daysToNull(days),
	)
	if err != nil {
		return storageErr("add event", err)
	}
	return nil
}

// RemoveEvent deletes the event at (chatID, hhmm) if it exists.
func (r *SQLRepo) RemoveEvent(ctx context.Context, chatID int64, hhmm string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM events WHERE chat_id = ? AND time_of_day = ?`),
		chatID, hhmm,
	)
	if err != nil {
		return storageErr("remove event", err)
	}
	return nil
}

// GetEvent returns the event at the exact key; found is false if absent.
func (r *SQLRepo) GetEvent(ctx context.Context, chatID int64, hhmm string) (domain.Event, bool, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT chat_id, time_of_day, message, days
		FROM events
		WHERE chat_id = ? AND time_of_day = ?`),
		chatID, hhmm,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, false, nil
	}
	if err != nil {
		return domain.Event{}, false, storageErr("get event", err)
	}
	return row.toDomain(), true, nil
}

// GetEventsByChat returns the chat's events keyed by time of day.
func (r *SQLRepo) GetEventsByChat(ctx context.Context, chatID int64) (map[string]domain.Event, error) {
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT chat_id, time_of_day, message, days
		FROM events
		WHERE chat_id = ?
		ORDER BY time_of_day`),
		chatID,
	)
	if err != nil {
		return nil, storageErr("get events by chat", err)
	}
	res := make(map[string]domain.Event, len(rows))
	for _, row := range rows {
		res[row.Time] = row.toDomain()
	}
	return res, nil
}

// EventExists reports whether an event is stored at (chatID, hhmm).
func (r *SQLRepo) EventExists(ctx context.Context, chatID int64, hhmm string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM events WHERE chat_id = ? AND time_of_day = ?`),
		chatID, hhmm,
	)
	if err != nil {
		return false, storageErr("event exists", err)
	}
	return n > 0, nil
}

// GetAllEvents returns every stored event grouped by chat and time of day.
func (r *SQLRepo) GetAllEvents(ctx context.Context) (map[int64]map[string]domain.Event, error) {
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT chat_id, time_of_day, message, days
		FROM events
		ORDER BY chat_id, time_of_day`)
	if err != nil {
		return nil, storageErr("get all events", err)
	}
	res := make(map[int64]map[string]domain.Event)
	for _, row := range rows {
		byTime, ok := res[row.ChatID]
		if !ok {
			byTime = make(map[string]domain.Event)
			res[row.ChatID] = byTime
		}
		byTime[row.Time] = row.toDomain()
	}
	return res, nil
}

// SetChatThreadID records which topic of the chat receives its messages.
func (r *SQLRepo) SetChatThreadID(ctx context.Context, chatID int64, threadID *int) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO chat_settings (chat_id, thread_id)
		VALUES (?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET thread_id = excluded.thread_id`),
		chatID, toNullInt64(threadID),
	)
	if err != nil {
		return storageErr("set chat thread", err)
	}
	return nil
}

// GetChatThreadID returns the chat's topic binding, nil if none.
func (r *SQLRepo) GetChatThreadID(ctx context.Context, chatID int64) (*int, error) {
	var thread sql.NullInt64
	err := r.db.GetContext(ctx, &thread, r.db.Rebind(`
		SELECT thread_id FROM chat_settings WHERE chat_id = ?`),
		chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get chat thread", err)
	}
	return fromNullInt64(thread), nil
}

// SetChatActive toggles whether notifications are delivered to the chat.
func (r *SQLRepo) SetChatActive(ctx context.Context, chatID int64, active bool) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO chat_settings (chat_id, active)
		VALUES (?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET active = excluded.active`),
		chatID, active,
	)
	if err != nil {
		return storageErr("set chat active", err)
	}
	return nil
}

// IsChatActive reports the chat's activity flag; unknown chats are active.
func (r *SQLRepo) IsChatActive(ctx context.Context, chatID int64) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active, r.db.Rebind(`
		SELECT active FROM chat_settings WHERE chat_id = ?`),
		chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, storageErr("get chat active", err)
	}
	return active, nil
}
