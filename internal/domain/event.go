package domain

// Event is a persisted reminder: one per (ChatID, Time).
type Event struct {
	ChatID  int64
	Time    string // HH:MM, 24h
	Message string // may carry HTML markup
	Days    DaySet // empty means every day
}

// DefaultEvent is a reminder seeded for a chat on first contact.
type DefaultEvent struct {
	Time    string
	Message string
}

// DefaultEvents are seeded for a chat that has no reminders yet.
var DefaultEvents = []DefaultEvent{
	{Time: "09:00", Message: "Доброе утро! Запланируйте главные задачи дня."},
	{Time: "13:00", Message: "Время обеда и короткой прогулки."},
	{Time: "18:00", Message: "Подведите итоги дня."},
}
