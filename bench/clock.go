package bench

import "time"

// Clock reads wall-clock time. Tests substitute a scripted clock.
type Clock interface {
	Time() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Time() time.Time { return time.Now() }

// since returns the time elapsed from start, never less than zero.
func since(c Clock, start time.Time) time.Duration {
	d := c.Time().Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
