package application

import "time"

// Clock interface supaya gampang ditest. It also satisfies ratelimit.Clock,
// so services and limiters share one time source.
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now() dalam UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T. Useful for tests and demo fixtures.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
