package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidWindow is a fatal precondition failure: the window start must be
// strictly before its end.
var ErrInvalidWindow = errors.New("work window start must be before end")

// Clock is a wall-clock time of day, independent of date and zone.
type Clock struct {
	Hour, Minute, Second int
}

// Seconds returns seconds since midnight.
func (c Clock) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}

	var c Clock
	fields := []*int{&c.Hour, &c.Minute, &c.Second}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Clock{}, fmt.Errorf("invalid time %q: %w", s, err)
		}
		*fields[i] = n
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}
	return c, nil
}

// Window is the configured work window applied uniformly per analyzed date.
type Window struct {
	Start, End Clock
}

// ParseWindow parses and validates a work window from start/end strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	w := Window{Start: s, End: e}
	if s.Seconds() >= e.Seconds() {
		return Window{}, fmt.Errorf("%w: %s >= %s", ErrInvalidWindow, s, e)
	}
	return w, nil
}
