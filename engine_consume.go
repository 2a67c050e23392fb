package otpkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/kvasirlabs/otpkit/internal"
	"github.com/kvasirlabs/otpkit/internal/stores"
)

// ConsumeSession runs action under the identifier's verified session and
// deletes the session afterwards. Each session admits exactly one successful
// consume.
//
// The action runs with no store locks held; a slow identity backend cannot
// stall other identifiers. If the action fails the session is kept so the
// caller may retry until the session expires, and the returned error wraps
// both [ErrActionFailed] and the action's error.
func (e *Engine) ConsumeSession(ctx context.Context, identifier string, action Action) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if action == nil {
		return fmt.Errorf("%w: nil action", ErrActionFailed)
	}

	id := internal.NormalizeIdentifier(identifier)
	if id == "" {
		e.emitAudit(ctx, auditEventConsume, false, identifier, ErrIdentifierInvalid, nil)
		return ErrIdentifierInvalid
	}

	now := e.clock.Now()

	session, err := e.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			e.metricInc(MetricConsumeFailure)
			e.emitAudit(ctx, auditEventConsume, false, id, ErrNotVerified, nil)
			return ErrNotVerified
		}
		mapped := mapStoreError(err)
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventConsume, false, id, mapped, nil)
		return mapped
	}

	if !now.Before(session.ExpiresAt) {
		if err := e.sessions.Delete(ctx, id); err != nil {
			return mapStoreError(err)
		}
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventConsume, false, id, ErrSessionExpired, nil)
		return ErrSessionExpired
	}

	if err := action(ctx); err != nil {
		e.metricInc(MetricActionFailed)
		wrapped := fmt.Errorf("%w: %w", ErrActionFailed, err)
		e.emitAudit(ctx, auditEventConsume, false, id, wrapped, nil)
		return wrapped
	}

	if err := e.sessions.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}

	e.metricInc(MetricConsumeSuccess)
	e.emitAudit(ctx, auditEventConsume, true, id, nil, nil)

	return nil
}

// CompleteRegistration consumes the identifier's verified session and creates
// the account through the configured [IdentityProvider]. The session survives
// a provider failure, so a transient backend error does not force the user
// back through code verification.
func (e *Engine) CompleteRegistration(ctx context.Context, identifier, credential string) (UserRecord, error) {
	if e == nil || e.identity == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	id := internal.NormalizeIdentifier(identifier)

	var user UserRecord
	err := e.ConsumeSession(ctx, id, func(ctx context.Context) error {
		created, err := e.identity.CreateAccount(ctx, id, credential)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

// CompletePasswordReset consumes the identifier's verified session and writes
// the new credential through the configured [IdentityProvider].
func (e *Engine) CompletePasswordReset(ctx context.Context, identifier, newCredential string) error {
	if e == nil || e.identity == nil {
		return ErrEngineNotReady
	}

	id := internal.NormalizeIdentifier(identifier)

	return e.ConsumeSession(ctx, id, func(ctx context.Context) error {
		return e.identity.UpdateCredential(ctx, id, newCredential)
	})
}
