package ports

import "time"

// Clock abstracts time.Now so SLA math is deterministic under test
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
