package notify

import "time"

// NoTime replaces the timestamp when the clock is not usable.
const NoTime = "no time"

// TimestampLayout is the format of message timestamps.
const TimestampLayout = "2006-01-02 15:04:05 MST"

// minSyncedYear separates a real wall clock from one still counting up
// from its epoch after boot without NTP.
const minSyncedYear = 2020

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Timestamp formats the clock's current time, or returns NoTime when c is
// nil or not yet synchronised.
func Timestamp(c Clock) string {
	if c == nil {
		return NoTime
	}
	now := c.Now()
	if now.Year() < minSyncedYear {
		return NoTime
	}
	return now.Format(TimestampLayout)
}
