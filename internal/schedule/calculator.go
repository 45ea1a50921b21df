package schedule

import (
	"fmt"
	"strings"
	"time"

	"auction-platform/internal/domain"
)

// SchedulingError reports a malformed schedule configuration. It is fatal:
// callers are expected to fail at startup rather than run with a bad schedule.
type SchedulingError struct {
	Reason string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("invalid auction schedule: %s", e.Reason)
}

// WeeklySchedule describes the recurring window: the auction is open on
// Weekday from OpenHour to CloseHour (exclusive) in Location. Registration for
// the next occurrence is open exactly while the window is closed; there is no
// settlement buffer after the close boundary.
type WeeklySchedule struct {
	Weekday   time.Weekday
	OpenHour  int
	CloseHour int
	Location  *time.Location
}

// New parses and validates a schedule from configuration values.
func New(weekday string, openHour, closeHour int, timezone string) (WeeklySchedule, error) {
	day, err := parseWeekday(weekday)
	if err != nil {
		return WeeklySchedule{}, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return WeeklySchedule{}, &SchedulingError{Reason: fmt.Sprintf("unknown timezone %q", timezone)}
	}

	s := WeeklySchedule{
		Weekday:   day,
		OpenHour:  openHour,
		CloseHour: closeHour,
		Location:  loc,
	}
	if err := s.Validate(); err != nil {
		return WeeklySchedule{}, err
	}
	return s, nil
}

func (s WeeklySchedule) Validate() error {
	if s.Location == nil {
		return &SchedulingError{Reason: "missing timezone"}
	}
	if s.OpenHour < 0 || s.OpenHour > 23 {
		return &SchedulingError{Reason: fmt.Sprintf("open hour %d out of range", s.OpenHour)}
	}
	if s.CloseHour < 1 || s.CloseHour > 24 {
		return &SchedulingError{Reason: fmt.Sprintf("close hour %d out of range", s.CloseHour)}
	}
	if s.OpenHour >= s.CloseHour {
		return &SchedulingError{Reason: fmt.Sprintf("open hour %d not before close hour %d", s.OpenHour, s.CloseHour)}
	}
	return nil
}

// StateAt computes the window state at the given instant. Pure: no stored
// state, safe to re-evaluate every second.
//
// Boundary semantics: exactly at the opening instant the window is open;
// exactly at the closing instant it is closed.
func (s WeeklySchedule) StateAt(now time.Time) domain.WindowState {
	now = now.In(s.Location)

	var target time.Time
	open := s.isOpenAt(now)
	if open {
		target = s.closingOf(now)
	} else {
		target = s.NextOpening(now)
	}

	remaining := target.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return domain.WindowState{
		IsOpen:           open,
		RegistrationOpen: !open,
		Days:             int(remaining / (24 * time.Hour)),
		Hours:            int(remaining/time.Hour) % 24,
		Minutes:          int(remaining/time.Minute) % 60,
		Seconds:          int(remaining/time.Second) % 60,
		Target:           target,
	}
}

// NextOpening returns the first opening instant strictly after any already
// started occurrence: same day before the open hour resolves to that day,
// at/after the close hour to the following week.
func (s WeeklySchedule) NextOpening(now time.Time) time.Time {
	now = now.In(s.Location)
	opening := time.Date(now.Year(), now.Month(), now.Day(), s.OpenHour, 0, 0, 0, s.Location)
	opening = opening.AddDate(0, 0, daysUntil(now.Weekday(), s.Weekday))

	if now.Weekday() == s.Weekday && !now.Before(opening) {
		// Today's occurrence already started (or ended); next one is a
		// week out.
		opening = opening.AddDate(0, 0, 7)
	}
	return opening
}

// NextClosing returns the closing instant of the current occurrence when the
// window is open, otherwise the closing of the next occurrence.
func (s WeeklySchedule) NextClosing(now time.Time) time.Time {
	now = now.In(s.Location)
	if s.isOpenAt(now) {
		return s.closingOf(now)
	}
	next := s.NextOpening(now)
	return time.Date(next.Year(), next.Month(), next.Day(), s.CloseHour, 0, 0, 0, s.Location)
}

// ClosingOf returns the closing instant of the occurrence that opens at the
// given instant.
func (s WeeklySchedule) ClosingOf(opening time.Time) time.Time {
	opening = opening.In(s.Location)
	return time.Date(opening.Year(), opening.Month(), opening.Day(), s.CloseHour, 0, 0, 0, s.Location)
}

func (s WeeklySchedule) isOpenAt(now time.Time) bool {
	if now.Weekday() != s.Weekday {
		return false
	}
	opening := time.Date(now.Year(), now.Month(), now.Day(), s.OpenHour, 0, 0, 0, s.Location)
	closing := time.Date(now.Year(), now.Month(), now.Day(), s.CloseHour, 0, 0, 0, s.Location)
	return !now.Before(opening) && now.Before(closing)
}

func (s WeeklySchedule) closingOf(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), s.CloseHour, 0, 0, 0, s.Location)
}

func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return 0, &SchedulingError{Reason: fmt.Sprintf("unknown weekday %q", name)}
}
