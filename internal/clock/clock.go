package clock

import "time"

// Clock supplies the current time. Every component that stamps timestamps or
// classifies expiration windows takes one, so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
