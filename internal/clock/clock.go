package clock

import "time"

// Clock provides the current time. Services take a Clock instead of
// calling time.Now so expiry behavior is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystem returns a Clock backed by the system clock.
func NewSystem() Clock {
	return systemClock{}
}
