package otpkit

import (
	"context"
	"strconv"

	"github.com/kvasirlabs/otpkit/internal"
)

// IssueCode starts (or restarts) verification for an identifier: it consumes
// one slot from the identifier's issue budget, generates a fresh code, and
// stores it with a zeroed attempt counter, overwriting any pending code.
//
// The code is returned to the caller for out-of-band delivery; the engine
// performs no delivery itself. On ErrRateLimited the result's RetryAfter
// says how long until the window admits another issue.
func (e *Engine) IssueCode(ctx context.Context, identifier string) (IssueResult, error) {
	if !e.ready() {
		return IssueResult{}, ErrEngineNotReady
	}

	id := internal.NormalizeIdentifier(identifier)
	if id == "" {
		e.emitAudit(ctx, auditEventIssue, false, identifier, ErrIdentifierInvalid, nil)
		return IssueResult{}, ErrIdentifierInvalid
	}

	now := e.clock.Now()

	decision, err := e.limiter.TryConsume(ctx, id, now)
	if err != nil {
		mapped := mapStoreError(err)
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, id, mapped, nil)
		return IssueResult{}, mapped
	}
	if !decision.Allowed {
		e.metricInc(MetricIssueRateLimited)
		e.emitAudit(ctx, auditEventIssue, false, id, ErrRateLimited, func() map[string]string {
			return map[string]string{
				"retry_after_ms": strconv.FormatInt(decision.RetryAfter.Milliseconds(), 10),
			}
		})
		return IssueResult{RetryAfter: decision.RetryAfter}, ErrRateLimited
	}

	code, err := e.codes.Next(e.config.Verification.CodeDigits)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, id, err, func() map[string]string {
			return map[string]string{
				"reason": "code_generation_failed",
			}
		})
		return IssueResult{}, ErrStoreUnavailable
	}

	expiresAt := now.Add(e.config.Verification.CodeTTL)
	if err := e.verifications.Put(ctx, id, internal.HashCode(code), now, expiresAt); err != nil {
		mapped := mapStoreError(err)
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, id, mapped, nil)
		return IssueResult{}, mapped
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventIssue, true, id, nil, nil)

	return IssueResult{Code: code, ExpiresAt: expiresAt}, nil
}
