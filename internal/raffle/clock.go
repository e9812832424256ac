package raffle

import "time"

// Clock supplies reservation timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock is backed by time.Now, in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T.UTC()
}
