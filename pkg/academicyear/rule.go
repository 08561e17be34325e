// Package academicyear maps calendar instants onto academic-year labels.
//
// A label is the calendar year in which the academic year starts, so with a
// 1 August boundary both 2024-09-02 and 2025-03-14 belong to "2024".
package academicyear

import (
	"fmt"
	"strconv"
	"time"
)

// Rule is a pure date -> label mapping anchored on a fixed month/day boundary.
type Rule struct {
	month    time.Month
	day      int
	location *time.Location
}

// NewRule builds a rule. A nil location means UTC.
func NewRule(month time.Month, day int, location *time.Location) (Rule, error) {
	if month < time.January || month > time.December {
		return Rule{}, fmt.Errorf("academic year boundary month %d out of range", month)
	}
	probe := time.Date(2001, month, day, 0, 0, 0, 0, time.UTC)
	if day < 1 || probe.Month() != month || probe.Day() != day {
		return Rule{}, fmt.Errorf("academic year boundary %02d-%02d does not exist every year", month, day)
	}
	if location == nil {
		location = time.UTC
	}
	return Rule{month: month, day: day, location: location}, nil
}

// MustRule is NewRule for static configuration in tests and tools.
func MustRule(month time.Month, day int, location *time.Location) Rule {
	rule, err := NewRule(month, day, location)
	if err != nil {
		panic(err)
	}
	return rule
}

// LoadRule resolves the timezone by name before building the rule.
func LoadRule(month time.Month, day int, timezone string) (Rule, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return Rule{}, fmt.Errorf("load academic year timezone %q: %w", timezone, err)
		}
	}
	return NewRule(month, day, loc)
}

// StartYear returns the calendar year in which t's academic year began.
func (r Rule) StartYear(t time.Time) int {
	local := t.In(r.loc())
	boundary := time.Date(local.Year(), r.boundaryMonth(), r.boundaryDay(), 0, 0, 0, 0, r.loc())
	if local.Before(boundary) {
		return local.Year() - 1
	}
	return local.Year()
}

// Label returns the academic-year label for t.
func (r Rule) Label(t time.Time) string {
	return strconv.Itoa(r.StartYear(t))
}

// Bounds returns the half-open [start, end) interval covered by label.
func (r Rule) Bounds(label string) (time.Time, time.Time, error) {
	year, err := ParseLabel(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, r.boundaryMonth(), r.boundaryDay(), 0, 0, 0, 0, r.loc())
	return start, start.AddDate(1, 0, 0), nil
}

// ParseLabel validates a label and returns its starting year.
func ParseLabel(label string) (int, error) {
	if len(label) != 4 {
		return 0, fmt.Errorf("academic year %q must be a four digit year", label)
	}
	year, err := strconv.Atoi(label)
	if err != nil || year < 1900 {
		return 0, fmt.Errorf("academic year %q must be a four digit year", label)
	}
	return year, nil
}

// ValidLabel reports whether label is well formed.
func ValidLabel(label string) bool {
	_, err := ParseLabel(label)
	return err == nil
}

// zero Rule behaves as a 1 August / UTC rule.
func (r Rule) loc() *time.Location {
	if r.location == nil {
		return time.UTC
	}
	return r.location
}

func (r Rule) boundaryMonth() time.Month {
	if r.month == 0 {
		return time.August
	}
	return r.month
}

func (r Rule) boundaryDay() int {
	if r.day == 0 {
		return 1
	}
	return r.day
}
