// Package weeks converts timestamps to ISO week identifiers (YYYY-Www) and walks week ranges.
// Weeks start on Monday and use the ISO week-year, which can differ from the calendar
// year around January 1.
package weeks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	// zoneinfo is embedded, hosts and containers without tzdata resolve zones the same way
	_ "time/tzdata"
)

// DefaultMaxRangeWeeks bounds Between when no explicit limit is configured, about ten years.
const DefaultMaxRangeWeeks = 520

var (
	ErrInvalidWeekID    = errors.New("invalid week id")
	ErrWeekRangeTooLong = errors.New("week range exceeds the allowed number of weeks")
	ErrUnknownTimezone  = errors.New("unknown timezone")
)

// ID returns the ISO week identifier of t, as seen in loc.
func ID(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	year, week := t.In(loc).ISOWeek()
	return format(year, week)
}

// IDInZone is like ID, but takes an IANA timezone name.
func IDInZone(t time.Time, tz string) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return ID(t, loc), nil
}

// LoadLocation resolves an IANA timezone name; an empty name means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w [%s]: %s", ErrUnknownTimezone, tz, err)
	}
	return loc, nil
}

// Parse splits a week id into its ISO year and week number.
func Parse(id string) (year, week int, err error) {
	if len(id) != 8 || id[4:6] != "-W" || !digits(id[:4]) || !digits(id[6:]) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeekID, id)
	}
	year, _ = strconv.Atoi(id[:4])
	week, _ = strconv.Atoi(id[6:])
	if year < 1 || week < 1 || week > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeekID, id)
	}
	return year, week, nil
}

// Valid reports whether id is a canonical week id.
func Valid(id string) bool {
	_, _, err := Parse(id)
	return err == nil
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in the given ISO year.
func WeeksInYear(year int) int {
	// December 28th always falls in the last ISO week of its year
	_, week := time.Date(year, time.December, 28, 12, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// Start returns Monday 00:00 of the week, in loc.
func Start(id string, loc *time.Location) (time.Time, error) {
	year, week, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	firstMonday := jan4.AddDate(0, 0, 1-weekday)
	return firstMonday.AddDate(0, 0, (week-1)*7), nil
}

func Previous(id string) (string, error) {
	year, week, err := Parse(id)
	if err != nil {
		return "", err
	}
	if week > 1 {
		return format(year, week-1), nil
	}
	return format(year-1, WeeksInYear(year-1)), nil
}

func Next(id string) (string, error) {
	year, week, err := Parse(id)
	if err != nil {
		return "", err
	}
	if week < WeeksInYear(year) {
		return format(year, week+1), nil
	}
	return format(year+1, 1), nil
}

// Compare orders canonical week ids chronologically.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Between returns the week ids strictly after start, up to and including end.
// An empty start yields exactly [end]. A start at or after end yields no weeks.
// If the range holds more than maxWeeks ids, ErrWeekRangeTooLong is returned instead of
// a truncated range.
func Between(start, end string, maxWeeks int) ([]string, error) {
	if _, _, err := Parse(end); err != nil {
		return nil, err
	}
	if start == "" {
		return []string{end}, nil
	}
	if _, _, err := Parse(start); err != nil {
		return nil, err
	}
	if maxWeeks <= 0 {
		maxWeeks = DefaultMaxRangeWeeks
	}
	if Compare(start, end) >= 0 {
		return []string{}, nil
	}

	var ids []string
	cur := start
	for cur != end {
		next, err := Next(cur)
		if err != nil {
			return nil, err
		}
		if len(ids) == maxWeeks {
			return nil, fmt.Errorf("%w: from %s to %s, max %d", ErrWeekRangeTooLong, start, end, maxWeeks)
		}
		ids = append(ids, next)
		cur = next
	}
	return ids, nil
}

func format(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
