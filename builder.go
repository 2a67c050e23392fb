package otpkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/kvasirlabs/otpkit/internal/audit"
	"github.com/kvasirlabs/otpkit/internal/limiters"
	"github.com/kvasirlabs/otpkit/internal/stores"
)

// Builder assembles an [Engine]. Configure it during initialization and call
// [Builder.Build] exactly once; a Builder is not safe for concurrent use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identity  IdentityProvider
	auditSink AuditSink
	clock     Clock
	codes     CodeGenerator

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis backs the verification, session, and rate-limit state with Redis
// instead of process-local memory. Required when more than one process serves
// the same identifier space.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityProvider wires the account backend used by
// [Engine.CompleteRegistration] and [Engine.CompletePasswordReset]. Optional;
// without it only the raw ConsumeSession form is available.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.identity = p
	return b
}

// WithAuditSink sets the destination for audit events and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithClock overrides the time source. Tests use this to drive expiry and
// window rollover deterministically.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithCodeGenerator overrides code generation. Tests use this to pin codes.
func (b *Builder) WithCodeGenerator(g CodeGenerator) *Builder {
	b.codes = g
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verify latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the engine. Without a Redis
// client the engine runs on in-memory backends, which confine all state to
// the current process.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		identity: b.identity,
	}

	engine.clock = b.clock
	if engine.clock == nil {
		engine.clock = SystemClock()
	}

	engine.codes = b.codes
	if engine.codes == nil {
		engine.codes = CryptoCodeGenerator()
	}

	limiterCfg := limiters.Config{
		Window:       cfg.RateLimit.Window,
		MaxPerWindow: cfg.RateLimit.MaxPerWindow,
	}

	if b.redis != nil {
		engine.verifications = stores.NewRedisVerificationStore(b.redis, cfg.Verification.RedisPrefix)
		engine.sessions = stores.NewRedisSessionStore(b.redis, cfg.Session.RedisPrefix)
		engine.limiter = limiters.NewRedisIssueLimiter(b.redis, cfg.RateLimit.RedisPrefix, limiterCfg)
	} else {
		engine.verifications = stores.NewMemoryVerificationStore()
		engine.sessions = stores.NewMemorySessionStore()
		engine.limiter = limiters.NewMemoryIssueLimiter(limiterCfg)
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
