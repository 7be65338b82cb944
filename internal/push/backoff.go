package push

import "time"

// backoff yields capped exponential reconnect delays. Not safe for
// concurrent use; the run loop owns it.
type backoff struct {
	min     time.Duration
	max     time.Duration
	factor  float64
	attempt int
}

func newBackoff(min, max time.Duration, factor float64) *backoff {
	if min <= 0 {
		min = 500 * time.Millisecond
	}
	if max < min {
		max = 30 * time.Second
	}
	if factor < 1 {
		factor = 2
	}
	return &backoff{min: min, max: max, factor: factor}
}

func (b *backoff) Next() time.Duration {
	d := time.Duration(float64(b.min) * pow(b.factor, b.attempt))
	if d > b.max || d <= 0 {
		d = b.max
	}
	b.attempt++
	return d
}

func (b *backoff) Reset() { b.attempt = 0 }

func pow(f float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= f
		if out > 1e9 {
			return out
		}
	}
	return out
}
