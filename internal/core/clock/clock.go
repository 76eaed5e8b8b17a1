// Package clock provides an injectable time source so that code which
// sleeps can be tested without waiting.
//
// Production code uses Real(). Tests use Fake(), whose Sleep returns
// immediately after advancing the fake time and recording the duration.
package clock

import "time"

// Clock abstracts the time operations used by the retry loop.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
