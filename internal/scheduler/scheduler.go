package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/metrics"
)

const (
	defaultInterval = time.Second
	defaultBackoff  = 5 * time.Second
)

// Callback is invoked on the tick loop when a reminder is due.
type Callback func(ctx context.Context, chatID int64, hhmm string) error

// FetchAllFunc returns every persisted event grouped by chat and time.
type FetchAllFunc func(ctx context.Context) (map[int64]map[string]domain.Event, error)

// Key identifies the jobs of one reminder.
type Key struct {
	ChatID int64
	Time   string
}

type job struct {
	id       uuid.UUID
	key      Key
	weekday  *time.Weekday // nil fires daily
	schedule cron.Schedule
	next     time.Time
	cb       Callback
}

// Entry is one job in a schedule dump.
type Entry struct {
	ID      string    `json:"id"`
	ChatID  int64     `json:"chat_id"`
	Time    string    `json:"time"`
	Weekday string    `json:"weekday"` // "daily" or a lower-case English weekday
	Next    time.Time `json:"next"`
}

// Scheduler keeps the live set of recurring jobs in memory. It is a cache of
// the event store: Restore rebuilds it and nothing here is persisted.
type Scheduler struct {
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	interval time.Duration
	backoff  time.Duration
	metrics  *metrics.Metrics

	mu   sync.Mutex
	jobs map[Key][]*job

	running atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the wall clock zone jobs are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithFaultBackoff sets the pause after a faulted tick.
func WithFaultBackoff(d time.Duration) Option {
	return func(s *Scheduler) { s.backoff = d }
}

// WithMetrics attaches collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates an empty Scheduler.
func New(log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:      log,
		loc:      time.Local,
		now:      time.Now,
		interval: defaultInterval,
		backoff:  defaultBackoff,
		jobs:     make(map[Key][]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob schedules cb for (chatID, hhmm) on each of days, or daily when days
// is empty. It returns false without touching anything if the key is
// already scheduled.
func (s *Scheduler) AddJob(chatID int64, hhmm string, days domain.DaySet, cb Callback) (bool, error) {
	key := Key{ChatID: chatID, Time: hhmm}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; ok {
		return false, nil
	}

	handles, err := buildJobs(key, days, cb, s.clock())
	if err != nil {
		return false, err
	}
	s.jobs[key] = handles
	s.metrics.SetScheduledKeys(len(s.jobs))

	s.log.Debug("job scheduled",
		zap.Int64("chatID", chatID),
		zap.String("time", hhmm),
		zap.String("days", days.Canonical()),
		zap.Int("timers", len(handles)),
	)
	return true, nil
}

// buildJobs creates one job per weekday of days, or a single daily job.
func buildJobs(key Key, days domain.DaySet, cb Callback, now time.Time) ([]*job, error) {
	hour, minute, err := domain.ParseTime(key.Time)
	if err != nil {
		return nil, err
	}

	var weekdays []*time.Weekday
	if days.EveryDay() {
		weekdays = []*time.Weekday{nil}
	} else {
		for _, d := range days.Weekdays() {
			d := d
			weekdays = append(weekdays, &d)
		}
	}

	handles := make([]*job, 0, len(weekdays))
	for _, wd := range weekdays {
		sched, err := cron.ParseStandard(cronSpec(hour, minute, wd))
		if err != nil {
			return nil, fmt.Errorf("build schedule for %s: %w", key.Time, err)
		}
		handles = append(handles, &job{
			id:       uuid.New(),
			key:      key,
			weekday:  wd,
			schedule: sched,
			next:     sched.Next(now),
			cb:       cb,
		})
	}
	return handles, nil
}

// RemoveJob cancels every timer of (chatID, hhmm) and reports whether the
// key was scheduled.
func (s *Scheduler) RemoveJob(chatID int64, hhmm string) bool {
	key := Key{ChatID: chatID, Time: hhmm}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; !ok {
		return false
	}
	delete(s.jobs, key)
	s.metrics.SetScheduledKeys(len(s.jobs))
	s.log.Debug("job removed", zap.Int64("chatID", chatID), zap.String("time", hhmm))
	return true
}

// Restore replaces the whole schedule with one rebuilt from fetchAll. The
// new table is swapped in at once, and a job that survives the rebuild
// keeps its pending occurrence. If the fetch fails the schedule is left
// empty and the error is returned.
func (s *Scheduler) Restore(ctx context.Context, fetchAll FetchAllFunc, cb Callback) (int, error) {
	events, err := fetchAll(ctx)
	if err != nil {
		s.swap(make(map[Key][]*job))
		return 0, fmt.Errorf("restore: fetch events: %w", err)
	}

	now := s.clock()
	jobs := make(map[Key][]*job)
	for chatID, byTime := range events {
		for hhmm, ev := range byTime {
			key := Key{ChatID: chatID, Time: hhmm}
			handles, err := buildJobs(key, ev.Days, cb, now)
			if err != nil {
				s.log.Warn("restore: skipping event",
					zap.Int64("chatID", chatID), zap.String("time", hhmm), zap.Error(err))
				continue
			}
			jobs[key] = handles
		}
	}
	s.swap(jobs)

	s.log.Info("schedule restored", zap.Int("jobs", len(jobs)))
	return len(jobs), nil
}

// swap installs jobs as the live table. Pending occurrences of jobs with
// the same key and weekday carry over from the old table.
func (s *Scheduler) swap(jobs map[Key][]*job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, handles := range jobs {
		old := s.jobs[key]
		for _, j := range handles {
			for _, o := range old {
				if sameWeekday(o.weekday, j.weekday) && o.next.Before(j.next) {
					j.next = o.next
				}
			}
		}
	}
	s.jobs = jobs
	s.metrics.SetScheduledKeys(len(s.jobs))
}

func sameWeekday(a, b *time.Weekday) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Len returns the number of scheduled keys.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Snapshot dumps every job sorted by chat, time and weekday (daily first,
// then monday..sunday).
func (s *Scheduler) Snapshot() []Entry {
	type row struct {
		entry Entry
		day   int
	}

	s.mu.Lock()
	rows := make([]row, 0, len(s.jobs))
	for _, handles := range s.jobs {
		for _, j := range handles {
			r := row{
				entry: Entry{
					ID:      j.id.String(),
					ChatID:  j.key.ChatID,
					Time:    j.key.Time,
					Weekday: "daily",
					Next:    j.next,
				},
				day: -1,
			}
			if j.weekday != nil {
				r.entry.Weekday = weekdayToken(*j.weekday)
				r.day = weekIndex(*j.weekday)
			}
			rows = append(rows, r)
		}
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, k int) bool {
		a, b := rows[i], rows[k]
		if a.entry.ChatID != b.entry.ChatID {
			return a.entry.ChatID < b.entry.ChatID
		}
		if a.entry.Time != b.entry.Time {
			return a.entry.Time < b.entry.Time
		}
		return a.day < b.day
	})

	var out []Entry
	for _, r := range rows {
		out = append(out, r.entry)
	}
	return out
}

// Run starts the tick loop and blocks until ctx is canceled. Only the first
// call runs; later calls return immediately.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("scheduler already running")
		return
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			if !s.safeTick(ctx) {
				continue
			}
			select {
			case <-ctx.Done():
				s.log.Info("scheduler stopping")
				return
			case <-time.After(s.backoff):
			}
		}
	}
}

// safeTick runs one tick and reports whether it faulted.
func (s *Scheduler) safeTick(ctx context.Context) (faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncSchedulerFaults()
			s.log.Error("scheduler tick fault", zap.Any("panic", r), zap.Duration("backoff", s.backoff))
			faulted = true
		}
	}()
	s.tick(ctx)
	return false
}

type firing struct {
	key Key
	id  uuid.UUID
	cb  Callback
}

// tick fires every due job. Jobs are advanced under the lock and the
// callbacks run after it is released.
func (s *Scheduler) tick(ctx context.Context) {
	for _, f := range s.collectDue(s.clock()) {
		s.fire(ctx, f)
	}
}

// collectDue advances every due job to its next occurrence. A key fires at
// most once per tick even if several of its weekday jobs are overdue.
func (s *Scheduler) collectDue(now time.Time) []firing {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []firing
	for key, handles := range s.jobs {
		fired := false
		for _, j := range handles {
			if now.Before(j.next) {
				continue
			}
			j.next = j.schedule.Next(now)
			if fired {
				continue
			}
			fired = true
			due = append(due, firing{key: key, id: j.id, cb: j.cb})
		}
	}
	return due
}

func (s *Scheduler) fire(ctx context.Context, f firing) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncCallbackErrors()
			s.log.Error("reminder callback panicked",
				zap.Int64("chatID", f.key.ChatID),
				zap.String("time", f.key.Time),
				zap.Any("panic", r),
			)
		}
	}()

	s.metrics.IncFired()
	if err := f.cb(ctx, f.key.ChatID, f.key.Time); err != nil {
		s.metrics.IncCallbackErrors()
		s.log.Error("reminder callback failed",
			zap.Int64("chatID", f.key.ChatID),
			zap.String("time", f.key.Time),
			zap.String("job", f.id.String()),
			zap.Error(err),
		)
	}
}

func (s *Scheduler) clock() time.Time {
	return s.now().In(s.loc)
}

// cronSpec builds a standard 5-field spec; a nil weekday fires every day.
func cronSpec(hour, minute int, wd *time.Weekday) string {
	dow := "*"
	if wd != nil {
		dow = fmt.Sprintf("%d", int(*wd))
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dow)
}

// weekIndex numbers weekdays monday=0 .. sunday=6.
func weekIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func weekdayToken(d time.Weekday) string {
	return domain.NewDaySet(d).Canonical()
}
