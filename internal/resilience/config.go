package resilience

import (
	"time"

	"github.com/sells-group/underwriter/internal/config"
)

// PolicyFromConfig builds a RetryPolicy from configuration, keeping defaults
// for unset values.
func PolicyFromConfig(c config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoffMs > 0 {
		p.InitialBackoff = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		p.MaxBackoff = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	if c.Multiplier > 0 {
		p.Multiplier = c.Multiplier
	}
	if c.JitterFraction >= 0 {
		p.JitterFraction = c.JitterFraction
	}
	return p
}

// BreakerFromConfig builds BreakerSettings from configuration.
func BreakerFromConfig(c config.CircuitConfig) BreakerSettings {
	s := DefaultBreakerSettings()
	if c.FailureThreshold > 0 {
		s.FailureThreshold = c.FailureThreshold
	}
	if c.ResetTimeoutSecs > 0 {
		s.Cooldown = time.Duration(c.ResetTimeoutSecs) * time.Second
	}
	return s
}
