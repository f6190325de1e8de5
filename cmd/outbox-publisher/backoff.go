package main

import (
	"math/rand/v2"
	"time"
)

const jitterFraction = 4

// backoff doubles from base up to max and starts over on Reset.
type backoff struct {
	base, max, current time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

func (b *backoff) Reset() {
	b.current = 0
}

// Next returns the next delay with jitter applied.
func (b *backoff) Next() time.Duration {
	switch {
	case b.current == 0:
		b.current = b.base
	case b.current < b.max:
		b.current = min(b.current*2, b.max)
	}
	return jitter(b.current)
}

// jitter adds up to a quarter of d so idle relays do not poll in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := int64(d) / jitterFraction
	if spread <= 0 {
		return d
	}
	return d + time.Duration(rand.Int64N(spread))
}
