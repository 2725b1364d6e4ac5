package breaker

import "time"

// fakeClock is a manually advanced clock for deterministic tests.
type fakeClock struct {
	nanos int64
}

func (f *fakeClock) Nanos() int64 {
	return f.nanos
}

func (f *fakeClock) Millis() int64 {
	return f.nanos / int64(time.Millisecond)
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	// Never fires; tests drive time through explicit nanos.
	return make(chan time.Time)
}
