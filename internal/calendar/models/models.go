// Package models holds the calendar configuration and the pure schedule
// classification over it.
package models

import (
	"fmt"
	"strings"
	"time"

	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
)

// Weekday counts from Monday (0) to Sunday (6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf converts a Go weekday (Sunday = 0) to the Monday-based numbering.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (w Weekday) IsValid() bool {
	return w >= Monday && w <= Sunday
}

// Result classifies one instant against the calendar.
type Result string

const (
	InSchedule    Result = "IN_SCHEDULE"
	OutOfSchedule Result = "OUT_OF_SCHEDULE"
	NoLaborable   Result = "NO_LABORABLE"
)

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid time %q, expected HH:MM or HH:MM:SS", s))
}

// ClockOf returns the wall-clock time of t in its own location, truncated to
// the second.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// WorkSchedule is the working window for one weekday.
type WorkSchedule struct {
	ID       int64
	Weekday  Weekday
	Start    TimeOfDay
	End      TimeOfDay
	IsActive bool
}

// Contains reports whether local falls inside [Start, End]. The end bound is
// compared at full precision: any fraction past End is outside.
func (ws WorkSchedule) Contains(local time.Time) bool {
	clock := ClockOf(local)
	if clock < ws.Start {
		return false
	}
	return clock < ws.End || (clock == ws.End && local.Nanosecond() == 0)
}

// Holiday marks one calendar date as non-working.
type Holiday struct {
	ID          id.HolidayID
	Date        Date
	Description string
	IsActive    bool
}

// Date is a calendar date without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Calendar is a snapshot of the schedule configuration.
type Calendar struct {
	Schedules []WorkSchedule
	Holidays  []Holiday
}

// Classify evaluates local, which must already be in the calendar's time zone.
// Sunday and active holidays are non-working; a weekday without an active
// window is out of schedule; both window ends are inclusive.
func (c Calendar) Classify(local time.Time) Result {
	weekday := WeekdayOf(local)
	if weekday == Sunday {
		return NoLaborable
	}

	today := DateOf(local)
	for _, h := range c.Holidays {
		if h.IsActive && h.Date == today {
			return NoLaborable
		}
	}

	for _, ws := range c.Schedules {
		if !ws.IsActive || ws.Weekday != weekday {
			continue
		}
		if ws.Contains(local) {
			return InSchedule
		}
		return OutOfSchedule
	}
	return OutOfSchedule
}

// ValidateSchedules checks a full replacement set: weekdays Monday through
// Saturday, no weekday twice, and start strictly before end.
func ValidateSchedules(schedules []WorkSchedule) error {
	seen := make(map[Weekday]struct{}, len(schedules))
	for _, ws := range schedules {
		if ws.Weekday < Monday || ws.Weekday > Saturday {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("weekday %d is not a working day (0=Monday..5=Saturday)", ws.Weekday))
		}
		if _, dup := seen[ws.Weekday]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("weekday %d appears more than once", ws.Weekday))
		}
		seen[ws.Weekday] = struct{}{}
		if ws.Start >= ws.End {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("weekday %d: start time must be before end time", ws.Weekday))
		}
	}
	return nil
}
