package otpkit

import (
	"errors"
	"time"
)

// Config groups the tunables for every engine subsystem. Zero values are not
// usable; start from [DefaultConfig] and override.
type Config struct {
	Verification VerificationConfig
	RateLimit    RateLimitConfig
	Session      SessionConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// VerificationConfig controls pending-code records.
type VerificationConfig struct {
	// CodeTTL is how long an issued code stays verifiable.
	CodeTTL time.Duration
	// MaxAttempts is the number of failed verifies tolerated before the
	// record is invalidated.
	MaxAttempts int
	// CodeDigits is the code length. Codes are uniform over
	// [10^(digits-1), 10^digits - 1], so no leading zeros.
	CodeDigits int
	// RedisPrefix namespaces verification keys when a Redis backend is used.
	RedisPrefix string
}

// RateLimitConfig controls the per-identifier issue budget.
type RateLimitConfig struct {
	// Window is the fixed window length.
	Window time.Duration
	// MaxPerWindow is the number of issues allowed per identifier per window.
	MaxPerWindow int
	// RedisPrefix namespaces limiter keys when a Redis backend is used.
	RedisPrefix string
}

// SessionConfig controls verified sessions.
type SessionConfig struct {
	// TTL is how long a verified session stays consumable.
	TTL time.Duration
	// RedisPrefix namespaces session keys when a Redis backend is used.
	RedisPrefix string
}

// AuditConfig controls dispatcher buffering behavior.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: 6-digit codes valid for
// 10 minutes with 3 verify attempts, 3 issues per 15-minute window, and
// 15-minute single-use sessions.
func DefaultConfig() Config {
	return Config{
		Verification: VerificationConfig{
			CodeTTL:     10 * time.Minute,
			MaxAttempts: 3,
			CodeDigits:  6,
			RedisPrefix: "okv",
		},
		RateLimit: RateLimitConfig{
			Window:       15 * time.Minute,
			MaxPerWindow: 3,
			RedisPrefix:  "okr",
		},
		Session: SessionConfig{
			TTL:         15 * time.Minute,
			RedisPrefix: "oks",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations that would make records unexpirable or
// budgets unenforceable.
func (c Config) Validate() error {
	if c.Verification.CodeTTL <= 0 {
		return errors.New("Verification.CodeTTL must be positive")
	}
	if c.Verification.MaxAttempts <= 0 {
		return errors.New("Verification.MaxAttempts must be positive")
	}
	if c.Verification.CodeDigits < 4 || c.Verification.CodeDigits > 10 {
		return errors.New("Verification.CodeDigits must be in [4, 10]")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit.Window must be positive")
	}
	if c.RateLimit.MaxPerWindow <= 0 {
		return errors.New("RateLimit.MaxPerWindow must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session.TTL must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}
