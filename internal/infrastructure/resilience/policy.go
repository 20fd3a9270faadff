package resilience

import "time"

const (
	defaultRetryMaxAttempts    = 3
	defaultRetryInitialBackoff = 100 * time.Millisecond
	defaultRetryMaxBackoff     = 2 * time.Second
	defaultRetryMultiplier     = 2.0

	defaultBreakerMinRequests  = 5
	defaultBreakerFailureRatio = 0.6
	defaultBreakerOpenTimeout  = 10 * time.Second
)

// Config tunes the retry and circuit-breaker policy shared by outbound
// dependencies. The half-open state always admits a single probe call.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled      bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

func (c Config) normalize() Config {
	out := c
	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = defaultRetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = defaultRetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1 {
		out.RetryMultiplier = defaultRetryMultiplier
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = defaultBreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = defaultBreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = defaultBreakerOpenTimeout
	}
	return out
}
