package clock

import "time"

// Clock abstracts time.Now so engine logic can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the wall clock.
func Real() Clock { return realClock{} }

// Fake is a manually advanced clock for tests.
type Fake struct {
	current time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

func (f *Fake) Now() time.Time { return f.current }

func (f *Fake) Advance(d time.Duration) { f.current = f.current.Add(d) }

func (f *Fake) Set(t time.Time) { f.current = t }
