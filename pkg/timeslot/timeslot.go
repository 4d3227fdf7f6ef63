package timeslot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of minutes in a wall-clock day.
const MinutesPerDay = 24 * 60

// Window is a half-open minute-of-day interval [Start, End).
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ToMinutes converts an "HH:MM" wall-clock string into minutes since midnight.
func ToMinutes(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", value, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// Valid reports whether value is a well formed "HH:MM" string.
func Valid(value string) bool {
	_, err := ToMinutes(value)
	return err == nil
}

// SessionWindow derives the session interval for a start time and a duration in hours.
// The end is not wrapped past midnight.
func SessionWindow(start string, durationHours int) (Window, error) {
	startMinute, err := ToMinutes(start)
	if err != nil {
		return Window{}, err
	}
	if durationHours < 0 {
		return Window{}, fmt.Errorf("negative duration %d", durationHours)
	}
	return Window{Start: startMinute, End: startMinute + durationHours*60}, nil
}

// Overlaps reports whether two half-open windows share at least one minute.
// Windows that merely touch (w.End == o.Start) do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && w.End > o.Start
}

// ContainsStrict reports whether minute lies strictly inside the window, excluding both bounds.
func (w Window) ContainsStrict(minute int) bool {
	return w.Start < minute && minute < w.End
}

// String renders the window as "HH:MM-HH:MM".
func (w Window) String() string {
	return fmt.Sprintf("%s-%s", Format(w.Start), Format(w.End))
}

// Format renders a minute-of-day as "HH:MM". Values past midnight keep counting hours.
func Format(minute int) string {
	if minute < 0 {
		minute = 0
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// MinuteOfDay returns the wall-clock minute of t in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
