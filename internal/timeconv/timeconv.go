// Package timeconv converts stored UTC timestamps to naive local wall time.
//
// Hour-of-day and weekday arithmetic in this module always runs on values
// returned by ToLocal: the wall clock of the target zone, carried in a
// time.Time whose location is UTC so that later formatting never shifts it.
package timeconv

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // IANA names must resolve on Windows too.
)

// ErrBadTimestamp reports a created_at value that matches no known layout.
var ErrBadTimestamp = errors.New("malformed timestamp")

// Zone-less layouts are interpreted as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a stored created_at value.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrBadTimestamp)
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, raw)
}

// ToLocal returns the wall clock of t in target, with the zone stripped.
func ToLocal(t time.Time, target *time.Location) time.Time {
	if target == nil {
		target = time.Local
	}
	local := t.In(target)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}

// ParseLocal parses raw and converts it to naive local time in one step.
func ParseLocal(raw string, target *time.Location) (time.Time, error) {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ToLocal(t, target), nil
}

// LoadLocation resolves a configured zone name. Empty and "Local" mean the
// system zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// Now returns the current wall clock in target, zone stripped.
func Now(target *time.Location) time.Time {
	return ToLocal(time.Now(), target)
}
