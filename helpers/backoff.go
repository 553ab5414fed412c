package helpers

import (
	"time"
)

// Limited exponential backoff for reconnect delays.
// First delay is always 0.
// Update(false) or Failure() increases next delay by K.
// Not safe for concurrent use.
type Backoff struct {
	next time.Duration
	last time.Time

	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms
	Now func() time.Time
}

// Use scenario:
// for {
//   time.Sleep(backoff.DelayBefore())
//   err := op()
//   backoff.Update(err==nil)
// }
func (b *Backoff) DelayBefore() time.Duration {
	if b.next == 0 {
		return 0
	}
	delay := b.limit(b.next)
	since := b.now().Sub(b.last)
	if since >= delay {
		return 0
	}
	return b.round(delay - since)
}

// Next is delay after last failure, without time already passed.
func (b *Backoff) Next() time.Duration { return b.next }

// Increase next delay.
func (b *Backoff) Failure() {
	next := b.next
	if next == 0 {
		next = b.Min
	} else {
		next = time.Duration(float32(next) * b.K)
	}
	b.next = b.limit(next)
	b.last = b.now()
}

func (b *Backoff) Reset() {
	b.last = b.now()
	b.next = 0
}

func (b *Backoff) Update(success bool) {
	if success {
		b.Reset()
	} else {
		b.Failure()
	}
}

func (b *Backoff) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = 1 * time.Millisecond
	}
	return d / res * res
}
