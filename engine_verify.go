package otpkit

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"time"

	"github.com/kvasirlabs/otpkit/internal"
	"github.com/kvasirlabs/otpkit/internal/stores"
)

// VerifyCode checks a submitted code against the pending record for the
// identifier.
//
// Every call charges the record's attempt counter, and the counter update is
// atomic in the store, so concurrent mismatches cannot undercount. A match
// promotes the identifier to a verified session and removes the record; the
// code is verifiable exactly once. Expiry and the attempt budget are enforced
// here lazily: an expired or exhausted record is removed and the caller must
// re-issue.
func (e *Engine) VerifyCode(ctx context.Context, identifier, submittedCode string) (VerifyResult, error) {
	if !e.ready() {
		return VerifyResult{}, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}()

	id := internal.NormalizeIdentifier(identifier)
	if id == "" {
		e.emitAudit(ctx, auditEventVerify, false, identifier, ErrIdentifierInvalid, nil)
		return VerifyResult{}, ErrIdentifierInvalid
	}

	now := e.clock.Now()

	record, err := e.verifications.Get(ctx, id)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditEventVerify, false, id, ErrCodeNotFound, nil)
			return VerifyResult{}, ErrCodeNotFound
		}
		mapped := mapStoreError(err)
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerify, false, id, mapped, nil)
		return VerifyResult{}, mapped
	}

	if !now.Before(record.ExpiresAt) {
		if err := e.verifications.Remove(ctx, id); err != nil {
			return VerifyResult{}, mapStoreError(err)
		}
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerify, false, id, ErrCodeExpired, nil)
		return VerifyResult{}, ErrCodeExpired
	}

	record, err = e.verifications.RecordAttempt(ctx, id)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			// Raced with another verify that consumed or invalidated the
			// record.
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditEventVerify, false, id, ErrCodeNotFound, nil)
			return VerifyResult{}, ErrCodeNotFound
		}
		return VerifyResult{}, mapStoreError(err)
	}

	maxAttempts := e.config.Verification.MaxAttempts
	if record.Attempts > maxAttempts {
		if err := e.verifications.Remove(ctx, id); err != nil {
			return VerifyResult{}, mapStoreError(err)
		}
		e.metricInc(MetricVerifyFailure)
		e.metricInc(MetricVerifyAttemptsExceeded)
		e.emitAudit(ctx, auditEventVerify, false, id, ErrTooManyAttempts, nil)
		return VerifyResult{}, ErrTooManyAttempts
	}

	submittedHash := internal.HashCode(submittedCode)
	if subtle.ConstantTimeCompare(record.CodeHash[:], submittedHash[:]) != 1 {
		remaining := maxAttempts + 1 - record.Attempts
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerify, false, id, ErrCodeMismatch, func() map[string]string {
			return map[string]string{
				"attempts_remaining": strconv.Itoa(remaining),
			}
		})
		return VerifyResult{AttemptsRemaining: remaining}, ErrCodeMismatch
	}

	// Promote before removing the record so a crash between the two steps
	// leaves a session plus a stale record rather than a lost verification.
	if err := e.sessions.Promote(ctx, id, now, now.Add(e.config.Session.TTL)); err != nil {
		return VerifyResult{}, mapStoreError(err)
	}
	if err := e.verifications.Remove(ctx, id); err != nil {
		return VerifyResult{}, mapStoreError(err)
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventVerify, true, id, nil, nil)

	return VerifyResult{Verified: true}, nil
}
