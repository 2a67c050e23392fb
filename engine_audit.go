package otpkit

import (
	"context"

	"go.uber.org/zap"

	internalaudit "github.com/kvasirlabs/otpkit/internal/audit"
)

const (
	auditEventIssue   = "code.issue"
	auditEventVerify  = "code.verify"
	auditEventConsume = "session.consume"
)

// NewZapSink creates a [ZapSink] that forwards events to logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

// emitAudit builds and dispatches one audit event. The metadata closure is
// only invoked when a dispatcher is attached, so hot paths pay nothing for
// disabled auditing.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identifier string,
	failure error,
	metadata func() map[string]string,
) {
	if e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp:  e.clock.Now(),
		EventType:  eventType,
		Identifier: identifier,
		IP:         clientIPFromContext(ctx),
		Success:    success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
