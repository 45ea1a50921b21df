package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-03-15 is a Friday.
var friday = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func fridaySchedule(t *testing.T) WeeklySchedule {
	t.Helper()
	s, err := New("Friday", 7, 22, "UTC")
	require.NoError(t, err)
	return s
}

func at(base time.Time, hour, min, sec int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, min, sec, 0, time.UTC)
}

func TestNewRejectsMalformedSchedules(t *testing.T) {
	cases := []struct {
		name     string
		weekday  string
		open     int
		close    int
		timezone string
	}{
		{"unknown weekday", "Fredag", 7, 22, "UTC"},
		{"unknown timezone", "Friday", 7, 22, "Mars/Olympus"},
		{"open after close", "Friday", 22, 7, "UTC"},
		{"open equals close", "Friday", 7, 7, "UTC"},
		{"negative open hour", "Friday", -1, 22, "UTC"},
		{"close hour past midnight", "Friday", 7, 25, "UTC"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.weekday, tc.open, tc.close, tc.timezone)
			require.Error(t, err)
			var schedErr *SchedulingError
			assert.ErrorAs(t, err, &schedErr)
		})
	}
}

func TestStateAtDuringOpenInterval(t *testing.T) {
	s := fridaySchedule(t)

	state := s.StateAt(at(friday, 10, 0, 0))
	assert.True(t, state.IsOpen)
	assert.False(t, state.RegistrationOpen)
	assert.Equal(t, at(friday, 22, 0, 0), state.Target)
	assert.Equal(t, 0, state.Days)
	assert.Equal(t, 12, state.Hours)
	assert.Equal(t, 0, state.Minutes)
	assert.Equal(t, 0, state.Seconds)
}

func TestStateAtOpeningBoundaryIsOpen(t *testing.T) {
	s := fridaySchedule(t)

	state := s.StateAt(at(friday, 7, 0, 0))
	assert.True(t, state.IsOpen)
	assert.False(t, state.RegistrationOpen)
	assert.Equal(t, at(friday, 22, 0, 0), state.Target)
}

func TestStateAtClosingBoundaryIsClosed(t *testing.T) {
	s := fridaySchedule(t)

	state := s.StateAt(at(friday, 22, 0, 0))
	assert.False(t, state.IsOpen)
	assert.True(t, state.RegistrationOpen)
	assert.Equal(t, at(friday.AddDate(0, 0, 7), 7, 0, 0), state.Target)
}

func TestStateAtSameDayBeforeOpening(t *testing.T) {
	s := fridaySchedule(t)

	state := s.StateAt(at(friday, 6, 59, 59))
	assert.False(t, state.IsOpen)
	assert.True(t, state.RegistrationOpen)
	// The next occurrence is later the same day.
	assert.Equal(t, at(friday, 7, 0, 0), state.Target)
	assert.Equal(t, 0, state.Days)
	assert.Equal(t, 0, state.Hours)
	assert.Equal(t, 0, state.Minutes)
	assert.Equal(t, 1, state.Seconds)
}

func TestStateAtJustBeforeClose(t *testing.T) {
	s := fridaySchedule(t)

	state := s.StateAt(at(friday, 21, 59, 59))
	assert.True(t, state.IsOpen)
	assert.Equal(t, 0, state.Days)
	assert.Equal(t, 0, state.Hours)
	assert.Equal(t, 0, state.Minutes)
	assert.Equal(t, 1, state.Seconds)
}

func TestStateAtJustAfterClose(t *testing.T) {
	s := fridaySchedule(t)

	state := s.StateAt(at(friday, 22, 0, 1))
	assert.False(t, state.IsOpen)
	assert.True(t, state.RegistrationOpen)
	assert.Equal(t, 6, state.Days)
	assert.Equal(t, 8, state.Hours)
	assert.Equal(t, 59, state.Minutes)
	assert.Equal(t, 59, state.Seconds)
}

func TestStateAtMidweek(t *testing.T) {
	s := fridaySchedule(t)

	wednesday := friday.AddDate(0, 0, -2)
	state := s.StateAt(at(wednesday, 12, 0, 0))
	assert.False(t, state.IsOpen)
	assert.True(t, state.RegistrationOpen)
	assert.Equal(t, at(friday, 7, 0, 0), state.Target)
	assert.Equal(t, 1, state.Days)
	assert.Equal(t, 19, state.Hours)
}

func TestCountdownDecreasesSecondOverSecond(t *testing.T) {
	s := fridaySchedule(t)

	start := at(friday.AddDate(0, 0, 1), 3, 12, 45) // Saturday, closed
	prev := s.StateAt(start)
	for i := 1; i <= 120; i++ {
		state := s.StateAt(start.Add(time.Duration(i) * time.Second))
		assert.GreaterOrEqual(t, state.Days, 0)
		assert.GreaterOrEqual(t, state.Hours, 0)
		assert.GreaterOrEqual(t, state.Minutes, 0)
		assert.GreaterOrEqual(t, state.Seconds, 0)

		total := func(d, h, m, sec int) int {
			return ((d*24+h)*60+m)*60 + sec
		}
		assert.Equal(t,
			total(prev.Days, prev.Hours, prev.Minutes, prev.Seconds)-1,
			total(state.Days, state.Hours, state.Minutes, state.Seconds))
		prev = state
	}
}

func TestCountdownResetsAcrossBoundary(t *testing.T) {
	s := fridaySchedule(t)

	before := s.StateAt(at(friday, 6, 59, 59))
	after := s.StateAt(at(friday, 7, 0, 0))

	assert.False(t, before.IsOpen)
	assert.True(t, after.IsOpen)
	// After the boundary, the target flips to the close and the countdown
	// restarts at the full interval length.
	assert.Equal(t, at(friday, 22, 0, 0), after.Target)
	assert.Equal(t, 15, after.Hours)
}

func TestStateAtIsIdempotent(t *testing.T) {
	s := fridaySchedule(t)

	instant := at(friday, 13, 37, 21)
	first := s.StateAt(instant)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.StateAt(instant))
	}
}

func TestNextOpeningFromEveryWeekday(t *testing.T) {
	s := fridaySchedule(t)

	want := at(friday, 7, 0, 0)
	for offset := -6; offset <= 0; offset++ {
		day := friday.AddDate(0, 0, offset)
		got := s.NextOpening(at(day, 3, 0, 0))
		assert.Equal(t, want, got, "from %s", day.Weekday())
	}

	// At or after the close on auction day, the next opening is a week out.
	got := s.NextOpening(at(friday, 23, 0, 0))
	assert.Equal(t, at(friday.AddDate(0, 0, 7), 7, 0, 0), got)
}

func TestNextClosing(t *testing.T) {
	s := fridaySchedule(t)

	assert.Equal(t, at(friday, 22, 0, 0), s.NextClosing(at(friday, 12, 0, 0)))
	assert.Equal(t, at(friday.AddDate(0, 0, 7), 22, 0, 0), s.NextClosing(at(friday, 22, 30, 0)))
}
