package store

import (
	"database/sql"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

type eventRow struct {
	ChatID  int64          `db:"chat_id"`
	Time    string         `db:"time_of_day"`
	Message string         `db:"message"`
	Days    sql.NullString `db:"days"`
}

func (r eventRow) toDomain() domain.Event {
	ev := domain.Event{ChatID: r.ChatID, Time: r.Time, Message: r.Message}
	if r.Days.Valid {
		ev.Days = domain.ParseCanonicalDays(r.Days.String)
	}
	return ev
}

// daysToNull stores "every day" as NULL.
func daysToNull(days domain.DaySet) sql.NullString {
	if days.EveryDay() {
		return sql.NullString{}
	}
	return sql.NullString{String: days.Canonical(), Valid: true}
}

func toNullInt64(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
