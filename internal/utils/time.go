package utils

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// NowIn returns the clock's current time in loc.
func NowIn(clock clockwork.Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return clock.Now().In(loc)
}
