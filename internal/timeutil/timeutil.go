// Package timeutil provides calendar helpers for the ledger. All arithmetic
// is plain calendar date plus duration; timezones are deliberately ignored.
package timeutil

import (
	"fmt"
	"time"

	"github.com/mkallio/manweek/internal/apperr"
)

// DateLayout is the canonical YYYY-MM-DD form used for entry dates and week
// start dates.
const DateLayout = "2006-01-02"

// DateOf formats the calendar date of a Unix timestamp.
func DateOf(ts int64) string {
	return time.Unix(ts, 0).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, apperr.Wrap(
			apperr.Validation,
			err,
			"dates must be in YYYY-MM-DD form",
		)
	}

	return t, nil
}

// ISOWeekOf returns the ISO year and week number for a date.
func ISOWeekOf(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// ISOWeekStart returns the Monday that begins the ISO week containing t.
func ISOWeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the ISO week
	}

	return t.AddDate(0, 0, 1-weekday)
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// parseClock accepts HH:MM and HH:MM:SS clock strings.
func parseClock(s string) (time.Duration, error) {
	var layouts = []string{"15:04:05", "15:04"}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}

		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second, nil
	}

	return 0, apperr.New(
		apperr.Validation,
		"clock times must be in HH:MM or HH:MM:SS form, got %q",
		s,
	)
}

// ClockOnDate resolves a wall-clock string against a calendar date and
// returns the resulting Unix timestamp.
func ClockOnDate(date, clock string) (int64, error) {
	day, err := ParseDate(date)
	if err != nil {
		return 0, err
	}

	offset, err := parseClock(clock)
	if err != nil {
		return 0, err
	}

	return day.Add(offset).Unix(), nil
}

// FormatClock renders the wall-clock portion of a Unix timestamp.
func FormatClock(ts int64) string {
	return time.Unix(ts, 0).Format("15:04:05")
}

// FormatSeconds renders a second count as H:MM:SS.
func FormatSeconds(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60

	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
