package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
)

var (
	addInputRe = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):([0-5][0-9])\s+(.+)$`)
	timeRe     = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):([0-5][0-9])$`)
)

// InputKind selects which conversation step an input is validated for.
type InputKind int

const (
	// InputAdd expects "HH:MM <text>".
	InputAdd InputKind = iota
	// InputRemove expects "HH:MM".
	InputRemove
)

// ValidInput reports whether s is acceptable for the given step.
func ValidInput(s string, kind InputKind) bool {
	switch kind {
	case InputAdd:
		return addInputRe.MatchString(s)
	case InputRemove:
		return timeRe.MatchString(s)
	default:
		return false
	}
}

// ParseAddInput splits "HH:MM <text>" into its time and text parts.
func ParseAddInput(s string) (hhmm, text string, err error) {
	m := addInputRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", fmt.Errorf("%w: expected HH:MM <text>", ErrValidation)
	}
	return m[1] + ":" + m[2], m[3], nil
}

// ParseTime parses a strict 24h "HH:MM".
func ParseTime(s string) (hour, minute int, err error) {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: expected HH:MM, got %q", ErrValidation, s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}
