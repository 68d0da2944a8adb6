package utils

import (
	"errors"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDay accepts YYYY-MM-DD or an RFC 3339 timestamp and returns midnight
// UTC of the calendar day as written, ignoring any offset.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return StartOfDay(t), nil
}

// StartOfDay keeps the year, month and day of t and drops everything else.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Today(now time.Time) time.Time {
	return StartOfDay(now.UTC())
}

// Nights counts whole calendar days between two day-aligned instants.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

func FormatDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
