package retry

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

func TestShouldRetryBodyStatus(t *testing.T) {
	assert.True(t, ShouldRetryBodyStatus(500))
	assert.True(t, ShouldRetryBodyStatus(503))
	assert.False(t, ShouldRetryBodyStatus(400))
	assert.False(t, ShouldRetryBodyStatus(200))
}

func TestShouldRetryHTTPStatus(t *testing.T) {
	assert.True(t, ShouldRetryHTTPStatus(429, false, false))
	assert.True(t, ShouldRetryHTTPStatus(500, false, false))
	assert.True(t, ShouldRetryHTTPStatus(503, false, false))
	assert.False(t, ShouldRetryHTTPStatus(403, false, true))
	assert.True(t, ShouldRetryHTTPStatus(403, true, true))
	assert.False(t, ShouldRetryHTTPStatus(403, true, false))
	assert.False(t, ShouldRetryHTTPStatus(400, false, false))
}

func TestShouldRetryTransportError(t *testing.T) {
	assert.True(t, ShouldRetryTransportError(boj.TransportTimeout))
	assert.True(t, ShouldRetryTransportError(boj.TransportConnect))
	assert.False(t, ShouldRetryTransportError(boj.TransportInvalidURL))
	assert.False(t, ShouldRetryTransportError(boj.TransportTLSTrust))
}

func TestParseRetryAfter_Seconds(t *testing.T) {
	d, ok := ParseRetryAfter("30")
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)
}

func TestParseRetryAfter_Invalid(t *testing.T) {
	_, ok := ParseRetryAfter("not-a-date")
	assert.False(t, ok)
	_, ok = ParseRetryAfter("")
	assert.False(t, ok)
}

func TestFullJitterBackoff_BoundedByCap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cap := 8 * time.Second
	for attempt := 0; attempt < 10; attempt++ {
		d := FullJitterBackoff(rng, attempt, 500*time.Millisecond, cap, 1.0)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, cap)
	}
}

func TestFullJitterBackoff_ZeroJitterRatioIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := FullJitterBackoff(rng, 3, 500*time.Millisecond, 8*time.Second, 0)
	assert.Equal(t, time.Duration(0), d)
}

func TestDecideWait_PicksLargestAndLabelsSource(t *testing.T) {
	retryAfter := 2 * time.Second
	dec := DecideWait(&retryAfter, 500*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, 2*time.Second, dec.Wait)
	assert.Equal(t, SourceRetryAfter, dec.Source)

	dec = DecideWait(nil, 3*time.Second, 1*time.Second)
	assert.Equal(t, 3*time.Second, dec.Wait)
	assert.Equal(t, SourceLocalRate, dec.Source)

	dec = DecideWait(nil, 1*time.Second, 3*time.Second)
	assert.Equal(t, 3*time.Second, dec.Wait)
	assert.Equal(t, SourceBackoff, dec.Source)
}
