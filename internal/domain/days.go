package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DaySet is a set of weekdays stored as a 7-bit mask indexed by time.Weekday.
// The zero value means "every day".
type DaySet uint8

// weekOrder is the cyclic ordering used for ranges and display.
var weekOrder = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

var dayVocabulary = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"понедельник": time.Monday, "пн": time.Monday, "пон": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"вторник": time.Tuesday, "вт": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"среда": time.Wednesday, "среду": time.Wednesday, "ср": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"четверг": time.Thursday, "чт": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"пятница": time.Friday, "пятницу": time.Friday, "пт": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"суббота": time.Saturday, "субботу": time.Saturday, "сб": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
	"воскресенье": time.Sunday, "вс": time.Sunday,
}

var everyDayTokens = map[string]struct{}{
	"all":         {},
	"every day":   {},
	"everyday":    {},
	"*":           {},
	"все":         {},
	"каждый день": {},
	"ежедневно":   {},
}

var displayNames = map[time.Weekday]string{
	time.Monday:    "пн",
	time.Tuesday:   "вт",
	time.Wednesday: "ср",
	time.Thursday:  "чт",
	time.Friday:    "пт",
	time.Saturday:  "сб",
	time.Sunday:    "вс",
}

// NewDaySet builds a set from the given weekdays.
func NewDaySet(days ...time.Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns s with d added.
func (s DaySet) With(d time.Weekday) DaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s DaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// EveryDay reports whether the set carries no weekday restriction.
func (s DaySet) EveryDay() bool {
	return s == 0
}

// Weekdays returns the members in monday..sunday order.
func (s DaySet) Weekdays() []time.Weekday {
	var out []time.Weekday
	for _, d := range weekOrder {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Canonical encodes the set as comma-joined English weekday tokens,
// e.g. "monday,friday". Every day encodes as "".
func (s DaySet) Canonical() string {
	days := s.Weekdays()
	tokens := make([]string, 0, len(days))
	for _, d := range days {
		tokens = append(tokens, strings.ToLower(d.String()))
	}
	return strings.Join(tokens, ",")
}

// Display renders the set for chat messages.
func (s DaySet) Display() string {
	if s.EveryDay() {
		return "каждый день"
	}
	days := s.Weekdays()
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, displayNames[d])
	}
	return strings.Join(names, ", ")
}

// ParseCanonicalDays decodes a stored day list. Unknown tokens are skipped.
func ParseCanonicalDays(s string) DaySet {
	var set DaySet
	for _, tok := range strings.Split(s, ",") {
		if d, ok := lookupDay(tok); ok {
			set = set.With(d)
		}
	}
	return set
}

// ParseDays parses a user day specification:
//
//	"все", "каждый день", "all"  -> every day
//	"пт-пн", "friday-monday"     -> range over the week, wrapping past sunday
//	"пн, ср, пт"                 -> explicit list, unknown names dropped
//
// A list in which no name is recognised is rejected instead of being widened
// to every day.
func ParseDays(input string) (DaySet, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if _, ok := everyDayTokens[s]; ok {
		return 0, nil
	}

	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		start, ok := lookupDay(parts[0])
		if !ok {
			return 0, fmt.Errorf("%w: unknown day %q", ErrValidation, strings.TrimSpace(parts[0]))
		}
		end, ok := lookupDay(parts[1])
		if !ok {
			return 0, fmt.Errorf("%w: unknown day %q", ErrValidation, strings.TrimSpace(parts[1]))
		}
		return dayRange(start, end), nil
	}

	var set DaySet
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	for _, tok := range tokens {
		if d, ok := lookupDay(tok); ok {
			set = set.With(d)
		}
	}
	if set.EveryDay() {
		return 0, fmt.Errorf("%w: no known days in %q", ErrValidation, input)
	}
	return set, nil
}

// dayRange returns the days from start to end inclusive in monday..sunday
// order, wrapping around the week when start comes after end.
func dayRange(start, end time.Weekday) DaySet {
	i1, i2 := weekIndex(start), weekIndex(end)
	var set DaySet
	if i1 <= i2 {
		for _, d := range weekOrder[i1 : i2+1] {
			set = set.With(d)
		}
		return set
	}
	for _, d := range weekOrder[i1:] {
		set = set.With(d)
	}
	for _, d := range weekOrder[:i2+1] {
		set = set.With(d)
	}
	return set
}

func weekIndex(d time.Weekday) int {
	// monday=0 .. sunday=6
	return (int(d) + 6) % 7
}

func lookupDay(tok string) (time.Weekday, bool) {
	d, ok := dayVocabulary[strings.ToLower(strings.TrimSpace(tok))]
	return d, ok
}
