package reactormq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDefaultsAppliedForZeroValues(t *testing.T) {
	b := newBackoff(0, 0, 0)
	assert.Equal(t, 500*time.Millisecond, b.initial)
	assert.Equal(t, 60*time.Second, b.max)
	assert.Equal(t, 2.0, b.multiplier)
}

func TestBackoffGrowsAndCapsAtMax(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 50*time.Millisecond, 2.0)

	var last time.Duration
	for i := 0; i < 10; i++ {
		d := b.next()
		assert.Greater(t, d, time.Duration(0))
		// Jitter is +/-10%; bound against the worst case so the delay
		// never implausibly shrinks and never exceeds max by more than jitter.
		assert.LessOrEqual(t, d, time.Duration(float64(b.max)*1.1))
		last = d
	}
	_ = last
}

func TestBackoffResetReturnsToInitial(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 100*time.Millisecond, 2.0)
	b.next()
	b.next()
	b.reset()
	assert.Equal(t, time.Duration(0), b.current)
}
