package application

import "time"

// Clock lets services stamp records with a controllable time
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, UTC time.Now().
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T; handy in tests.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
