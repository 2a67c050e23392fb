package otpkit

import "errors"

var (
	// ErrRateLimited is returned by IssueCode when the identifier has
	// exhausted its issue budget for the current window. The accompanying
	// IssueResult carries the retry-after duration.
	ErrRateLimited = errors.New("code issuance rate limited")
	// ErrCodeNotFound is returned by VerifyCode when no pending code exists
	// for the identifier.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrCodeExpired is returned by VerifyCode when the pending code has
	// passed its TTL. The record is removed; the caller must re-issue.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch is returned by VerifyCode when the submitted code does
	// not match. The record survives for retry; the accompanying VerifyResult
	// carries the remaining attempt count.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrTooManyAttempts is returned by VerifyCode when the attempt budget is
	// exhausted. The record is removed; the caller must re-issue.
	ErrTooManyAttempts = errors.New("verification attempts exceeded")
	// ErrNotVerified is returned by ConsumeSession when no verified session
	// exists for the identifier.
	ErrNotVerified = errors.New("identifier not verified")
	// ErrSessionExpired is returned by ConsumeSession when the verified
	// session has passed its TTL.
	ErrSessionExpired = errors.New("verified session expired")
	// ErrActionFailed wraps a failure from the delegated identity-provider
	// action. The session is kept so the action can be retried within the
	// session window.
	ErrActionFailed = errors.New("consume action failed")
	// ErrIdentifierInvalid is returned when the identifier is empty after
	// normalization.
	ErrIdentifierInvalid = errors.New("invalid identifier")
	// ErrStoreUnavailable is returned when a Redis-backed store or limiter
	// cannot be reached. The memory backend never returns it.
	ErrStoreUnavailable = errors.New("verification backend unavailable")
	// ErrEngineNotReady is returned when an Engine is used before Build
	// completed.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrAccountExists is returned by IdentityProvider.CreateAccount for a
	// duplicate identifier.
	ErrAccountExists = errors.New("account already exists")
	// ErrUserNotFound is returned by IdentityProvider lookups and credential
	// updates for unknown identifiers.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by IdentityProvider.Authenticate when
	// the credential does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordPolicy is returned by providers that enforce a password
	// policy on credential material.
	ErrPasswordPolicy = errors.New("password policy violation")
)
