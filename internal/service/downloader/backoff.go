package downloader

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// MaxDelay caps every computed retry delay.
const MaxDelay = 300 * time.Second

// Delay computes the exponential backoff delay for the given attempt:
// base * 2^attempt, perturbed by jitter drawn uniformly from 25% of
// that value in either direction, capped at MaxDelay.
func Delay(attempt int, base time.Duration) time.Duration {
	delay := float64(base) * math.Pow(2, float64(attempt))
	jitter := delay * 0.25 * (2*rand.Float64() - 1)

	total := delay + jitter
	if total > float64(MaxDelay) {
		return MaxDelay
	}
	if total < 0 {
		return 0
	}
	return time.Duration(total)
}

// RateLimitDelay computes the delay after a rate-limit response. A
// numeric Retry-After hint is used verbatim; a hint that fails to
// parse falls back to the standard formula. With no hint at all the
// standard formula runs with the base doubled.
func RateLimitDelay(attempt int, base time.Duration, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(retryAfter), 64); err == nil && secs >= 0 {
			d := time.Duration(secs * float64(time.Second))
			if d > MaxDelay {
				return MaxDelay
			}
			return d
		}
		return Delay(attempt, base)
	}
	return Delay(attempt, 2*base)
}
