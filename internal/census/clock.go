package census

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock supplies timestamps for generated artifacts (summary tables, report
// headers) so tests can freeze time.
var clock clockwork.Clock = clockwork.NewRealClock()

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}

// SetClock replaces the package clock, for tests. Passing nil restores the
// real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
