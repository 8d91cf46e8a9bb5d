package worker

import (
	"math/rand/v2"
	"time"
)

// Backoff doubles Base per attempt up to Max and adds up to Jitter on top so
// a burst of failed notifications does not retry in lockstep.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration
}

var DefaultBackoff = Backoff{Base: 2 * time.Second, Max: 5 * time.Minute, Jitter: 250 * time.Millisecond}

// Delay is the wait before retry number attempt+1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := b.Max
	// past 2^30 the shift overflows well beyond any sane Max
	if attempt < 30 {
		if d := b.Base << attempt; d > 0 && d < b.Max {
			delay = d
		}
	}

	if b.Jitter > 0 {
		delay += rand.N(b.Jitter)
	}
	return delay
}

// ExponentialBackoff is DefaultBackoff.Delay: 2s, 4s, 8s ... capped at 5m.
func ExponentialBackoff(attempt int) time.Duration {
	return DefaultBackoff.Delay(attempt)
}
