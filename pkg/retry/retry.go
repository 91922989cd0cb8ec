// Package retry classifies transport and body-level failures, computes
// wait time between attempts, and caps attempts per failure class. It
// holds no HTTP loop of its own — pkg/transport drives the attempts and
// consults this package for each decision — so the classification and
// backoff math can be tested in isolation from any network code.
package retry

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// Config mirrors the original implementation's RetryConfig: attempt
// budgets and backoff shape, independent of which failure class is
// being retried.
type Config struct {
	MaxAttempts           int
	TransportMaxAttempts  int
	BaseDelay             time.Duration
	CapDelay              time.Duration
	JitterRatio           float64
	RetryOn403            bool
	RetryOn403MaxAttempts int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:           5,
		TransportMaxAttempts:  5,
		BaseDelay:             500 * time.Millisecond,
		CapDelay:              8 * time.Second,
		JitterRatio:           1.0,
		RetryOn403:            false,
		RetryOn403MaxAttempts: 2,
	}
}

// ShouldRetryBodyStatus reports whether the in-body STATUS value is
// retriable by itself (§4.2: 500/503 retriable, 400 non-retriable,
// 200/M181030I is not an error at all and never reaches this check).
func ShouldRetryBodyStatus(status int) bool {
	return status == 500 || status == 503
}

// ShouldRetryHTTPStatus reports whether statusCode is retriable purely
// on HTTP semantics, used when the body is unparseable or absent.
func ShouldRetryHTTPStatus(statusCode int, retryOn403, hasRetryAfter bool) bool {
	switch statusCode {
	case 429, 500, 503:
		return true
	case 403:
		return retryOn403 && hasRetryAfter
	default:
		return false
	}
}

// ShouldRetryTransportError reports whether a transport failure of the
// given kind is ever retriable, independent of attempt budget.
func ShouldRetryTransportError(kind boj.TransportKind) bool {
	return kind.Retriable()
}

// ParseRetryAfter parses a Retry-After header value, which may be a
// delta-seconds integer or an HTTP-date.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// FullJitterBackoff computes uniform(0, min(cap, base*2^attempt)) *
// jitterRatio, matching the original implementation's
// full_jitter_backoff. attempt is 0-based.
func FullJitterBackoff(rng *rand.Rand, attempt int, base, cap time.Duration, jitterRatio float64) time.Duration {
	upper := base << attempt // base * 2^attempt
	if attempt > 30 || upper > cap || upper <= 0 {
		upper = cap
	}
	if upper <= 0 {
		return 0
	}
	d := time.Duration(rng.Int63n(int64(upper) + 1))
	return time.Duration(float64(d) * jitterRatio)
}

// Source names which input governed a wait decision, for test
// observability per §4.2.
type Source string

const (
	SourceRetryAfter Source = "retry_after"
	SourceLocalRate  Source = "local_rate"
	SourceBackoff    Source = "backoff"
)

// WaitDecision is the outcome of DecideWait.
type WaitDecision struct {
	Wait   time.Duration
	Source Source
}

// DecideWait implements wait = max(retry_after, local_wait, backoff),
// selecting the largest contributor as the reported Source. retryAfter
// is nil when the response carried no such header.
func DecideWait(retryAfter *time.Duration, localWait, backoff time.Duration) WaitDecision {
	if retryAfter == nil {
		if localWait >= backoff {
			return WaitDecision{Wait: localWait, Source: SourceLocalRate}
		}
		return WaitDecision{Wait: backoff, Source: SourceBackoff}
	}
	wait := *retryAfter
	source := SourceRetryAfter
	if localWait > wait {
		wait, source = localWait, SourceLocalRate
	}
	if backoff > wait {
		wait, source = backoff, SourceBackoff
	}
	return WaitDecision{Wait: wait, Source: source}
}
