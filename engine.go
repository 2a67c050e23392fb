package otpkit

import (
	"context"
	"errors"
	"fmt"
	"io"

	internalaudit "github.com/kvasirlabs/otpkit/internal/audit"
	"github.com/kvasirlabs/otpkit/internal/limiters"
	"github.com/kvasirlabs/otpkit/internal/stores"
)

// Engine orchestrates the verification workflow. Construct one through
// [Builder.Build]; after that, all methods are safe for concurrent use.
type Engine struct {
	config        Config
	clock         Clock
	codes         CodeGenerator
	verifications stores.VerificationStore
	sessions      stores.SessionStore
	limiter       limiters.IssueLimiter
	identity      IdentityProvider
	audit         *internalaudit.Dispatcher
	metrics       *Metrics
}

// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Reset wipes all verification records, rate windows, and verified sessions.
// It exists for test isolation and must not run against live traffic.
func (e *Engine) Reset(ctx context.Context) error {
	if e == nil || e.verifications == nil {
		return ErrEngineNotReady
	}
	if err := e.verifications.Purge(ctx); err != nil {
		return mapStoreError(err)
	}
	if err := e.sessions.Purge(ctx); err != nil {
		return mapStoreError(err)
	}
	if err := e.limiter.Purge(ctx); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// MetricsSnapshot returns a deep copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.verifications != nil && e.sessions != nil &&
		e.limiter != nil && e.clock != nil && e.codes != nil
}

// mapStoreError folds internal store/limiter sentinels into the public
// taxonomy. Callers handle stores.ErrNotFound themselves where it carries
// operation-specific meaning.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, stores.ErrUnavailable), errors.Is(err, limiters.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}

// AuditEvent is the structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink is an [AuditSink] that forwards events to a zap logger.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
