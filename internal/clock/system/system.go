// Package system provides the wall clock used outside tests.
package system

import "time"

// Clock reports the current time in UTC.
type Clock struct{}

// New creates a Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Func returns Now as a plain function, the form crawler.WithClock takes.
func (c Clock) Func() func() time.Time {
	return c.Now
}
