package models

import (
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day as sent by the backend ("HH:MM" or "HH:MM:SS")
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

var clockFormats = []string{
	"15:04",
	"15:04:05",
	"15:04:05.999999999",
}

// ParseClockTime parses an ISO local time of day
func ParseClockTime(s string) (ClockTime, error) {
	var parseErr error
	for _, format := range clockFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
		parseErr = err
	}
	return ClockTime{}, fmt.Errorf("unable to parse clock time %q: %w", s, parseErr)
}

// String formats the clock time as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// UnmarshalJSON accepts "HH:MM" and "HH:MM:SS"
func (c *ClockTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalJSON writes the clock time as "HH:MM"
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// LocalDateTime handles the backend's zone-less timestamps
// (Java LocalDateTime) as well as datetime-local form values.
type LocalDateTime struct {
	time.Time
}

// localDateTimeLayout is what the backend expects on the way in
const localDateTimeLayout = "2006-01-02T15:04:05"

var localDateTimeFormats = []string{
	"2006-01-02T15:04:05.999999999",
	localDateTimeLayout,
	"2006-01-02T15:04", // <input type="datetime-local">
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseLocalDateTime parses a timestamp, placing zone-less values in loc
func ParseLocalDateTime(s string, loc *time.Location) (LocalDateTime, error) {
	var parseErr error
	for _, format := range localDateTimeFormats {
		t, err := time.ParseInLocation(format, s, loc)
		if err == nil {
			return LocalDateTime{Time: t}, nil
		}
		parseErr = err
	}
	return LocalDateTime{}, fmt.Errorf("unable to parse time %q: %w", s, parseErr)
}

// UnmarshalJSON handles parsing of timestamps without timezone
func (lt *LocalDateTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseLocalDateTime(s, time.Local)
	if err != nil {
		return err
	}
	*lt = parsed
	return nil
}

// MarshalJSON converts the time back to the backend's zone-less format
func (lt LocalDateTime) MarshalJSON() ([]byte, error) {
	if lt.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("\"%s\"", lt.Time.Format(localDateTimeLayout))), nil
}

// FormValue renders the timestamp for a datetime-local input
func (lt LocalDateTime) FormValue() string {
	if lt.Time.IsZero() {
		return ""
	}
	return lt.Time.Format("2006-01-02T15:04")
}

// Display renders the timestamp for the records table (dd.mm.yyyy, hh:mm)
func (lt LocalDateTime) Display() string {
	if lt.Time.IsZero() {
		return "N/A"
	}
	return lt.Time.Format("02.01.2006, 15:04")
}
